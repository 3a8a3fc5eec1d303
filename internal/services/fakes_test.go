package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"eventdesk/internal/domain"

	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) add(e *domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[e.ID] = e
}

func copyEvent(e *domain.Event) *domain.Event {
	out := *e
	out.Settings.ReviewerUserIDs = slices.Clone(e.Settings.ReviewerUserIDs)
	return &out
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.byID[id]; ok {
		return copyEvent(e), nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetPublicBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Slug == slug && e.IsPublic() {
			return copyEvent(e), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) AppendReviewer(ctx context.Context, eventID, userID string) (*domain.EventSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if e.Settings.HasReviewer(userID) {
		return nil, domain.ErrAlreadyReviewer
	}
	e.Settings.ReviewerUserIDs = append(e.Settings.ReviewerUserIDs, userID)
	out := copyEvent(e).Settings
	return &out, nil
}

func (f *fakeEventRepo) RemoveReviewer(ctx context.Context, eventID, userID string) (*domain.EventSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok || !e.Settings.HasReviewer(userID) {
		return nil, domain.ErrNotFound
	}
	e.Settings.ReviewerUserIDs = slices.DeleteFunc(e.Settings.ReviewerUserIDs, func(id string) bool { return id == userID })
	out := copyEvent(e).Settings
	return &out, nil
}

func (f *fakeEventRepo) MergeSettings(ctx context.Context, eventID string, patch domain.EventSettingsPatch) (*domain.EventSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Settings = e.Settings.Merge(patch)
	out := copyEvent(e).Settings
	return &out, nil
}

func (f *fakeEventRepo) roster(eventID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.byID[eventID].Settings.ReviewerUserIDs)
}

// fakeSpeakerRepo is an in-memory SpeakerRepository for tests.
type fakeSpeakerRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Speaker
	order  []string
	nextID int
}

func newFakeSpeakerRepo() *fakeSpeakerRepo {
	return &fakeSpeakerRepo{byID: make(map[string]*domain.Speaker), nextID: 1}
}

func (f *fakeSpeakerRepo) add(s *domain.Speaker) *domain.Speaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(s)
	return s
}

func (f *fakeSpeakerRepo) insertLocked(s *domain.Speaker) {
	if s.ID == "" {
		s.ID = fmt.Sprintf("sp-%d", f.nextID)
		f.nextID++
	}
	stored := *s
	f.byID[s.ID] = &stored
	f.order = append(f.order, s.ID)
}

func (f *fakeSpeakerRepo) findLocked(eventID, email string) *domain.Speaker {
	for _, id := range f.order {
		if s := f.byID[id]; s.EventID == eventID && s.Email == email {
			return s
		}
	}
	return nil
}

func (f *fakeSpeakerRepo) GetByID(ctx context.Context, id string) (*domain.Speaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.byID[id]; ok {
		out := *s
		return &out, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSpeakerRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Speaker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Speaker
	for _, id := range f.order {
		if s := f.byID[id]; s.EventID == eventID {
			c := *s
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeSpeakerRepo) LinkUser(ctx context.Context, speakerID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[speakerID]
	if !ok {
		return domain.ErrNotFound
	}
	if s.UserID != nil && *s.UserID != userID {
		return domain.ErrConflict
	}
	s.UserID = &userID
	return nil
}

func (f *fakeSpeakerRepo) UpsertLinked(ctx context.Context, speaker *domain.Speaker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.findLocked(speaker.EventID, speaker.Email); existing != nil {
		if existing.UserID != nil && speaker.UserID != nil && *existing.UserID != *speaker.UserID {
			return domain.ErrConflict
		}
		existing.UserID = speaker.UserID
		speaker.ID = existing.ID
		return nil
	}
	f.insertLocked(speaker)
	return nil
}

func (f *fakeSpeakerRepo) upsertByEmail(speaker *domain.Speaker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing := f.findLocked(speaker.EventID, speaker.Email); existing != nil {
		existing.FirstName = speaker.FirstName
		existing.LastName = speaker.LastName
		speaker.ID = existing.ID
		speaker.UserID = existing.UserID
		return
	}
	f.insertLocked(speaker)
}

func (f *fakeSpeakerRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeAbstractRepo is an in-memory AbstractRepository for tests.
type fakeAbstractRepo struct {
	mu           sync.Mutex
	byID         map[string]*domain.Abstract
	order        []string
	nextID       int
	speakers     *fakeSpeakerRepo
	beforeUpdate func(stored *domain.Abstract)
}

func newFakeAbstractRepo(speakers *fakeSpeakerRepo) *fakeAbstractRepo {
	return &fakeAbstractRepo{byID: make(map[string]*domain.Abstract), nextID: 1, speakers: speakers}
}

func (f *fakeAbstractRepo) insertLocked(a *domain.Abstract) {
	if a.ID == "" {
		a.ID = fmt.Sprintf("ab-%d", f.nextID)
		f.nextID++
	}
	if a.Version == 0 {
		a.Version = 1
	}
	stored := *a
	stored.Speaker = nil
	f.byID[a.ID] = &stored
	f.order = append(f.order, a.ID)
}

func (f *fakeAbstractRepo) add(a *domain.Abstract) *domain.Abstract {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(a)
	return a
}

func (f *fakeAbstractRepo) withSpeaker(a *domain.Abstract) *domain.Abstract {
	out := *a
	if s, err := f.speakers.GetByID(context.Background(), a.SpeakerID); err == nil {
		out.Speaker = &domain.AbstractSpeaker{ID: s.ID, Email: s.Email, FirstName: s.FirstName, LastName: s.LastName, UserID: s.UserID}
	}
	return &out
}

func (f *fakeAbstractRepo) Create(ctx context.Context, a *domain.Abstract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(a)
	return nil
}

func (f *fakeAbstractRepo) CreateWithSpeaker(ctx context.Context, speaker *domain.Speaker, a *domain.Abstract) error {
	f.speakers.upsertByEmail(speaker)
	a.SpeakerID = speaker.ID
	return f.Create(ctx, a)
}

func (f *fakeAbstractRepo) GetByID(ctx context.Context, id string) (*domain.Abstract, error) {
	f.mu.Lock()
	a, ok := f.byID[id]
	f.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return f.withSpeaker(a), nil
}

func (f *fakeAbstractRepo) GetByManagementToken(ctx context.Context, token string) (*domain.Abstract, error) {
	f.mu.Lock()
	var found *domain.Abstract
	for _, a := range f.byID {
		if a.ManagementToken != nil && *a.ManagementToken == token {
			found = a
		}
	}
	f.mu.Unlock()
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return f.withSpeaker(found), nil
}

func (f *fakeAbstractRepo) List(ctx context.Context, eventID string, filter domain.AbstractFilter, params domain.PaginationParams) ([]*domain.Abstract, int, error) {
	f.mu.Lock()
	var matched []*domain.Abstract
	for _, id := range f.order {
		a := f.byID[id]
		if a.EventID != eventID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.TrackID != nil && (a.TrackID == nil || *a.TrackID != *filter.TrackID) {
			continue
		}
		if filter.SpeakerID != nil && a.SpeakerID != *filter.SpeakerID {
			continue
		}
		matched = append(matched, a)
	}
	f.mu.Unlock()

	var out []*domain.Abstract
	for _, a := range matched {
		full := f.withSpeaker(a)
		if filter.SpeakerUserID != nil && !full.OwnedBy(*filter.SpeakerUserID) {
			continue
		}
		out = append(out, full)
	}
	total := len(out)
	start := min(params.Offset(), total)
	end := total
	if params.PageSize > 0 {
		end = min(start+params.PageSize, total)
	}
	return out[start:end], total, nil
}

func (f *fakeAbstractRepo) Update(ctx context.Context, a *domain.Abstract) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.byID[a.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(stored)
		f.beforeUpdate = nil
	}
	if stored.Version != a.Version {
		return domain.ErrStaleWrite
	}
	a.Version++
	next := *a
	next.Speaker = nil
	f.byID[a.ID] = &next
	return nil
}

func (f *fakeAbstractRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok || a.EventSessionID != nil {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	f.order = slices.DeleteFunc(f.order, func(v string) bool { return v == id })
	return nil
}

func (f *fakeAbstractRepo) stored(id string) *domain.Abstract {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byID[id]
	if !ok {
		return nil
	}
	out := *a
	return &out
}

func (f *fakeAbstractRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeTrackRepo is an in-memory TrackRepository for tests.
type fakeTrackRepo struct {
	tracks []*domain.Track
}

func (f *fakeTrackRepo) GetInEvent(ctx context.Context, eventID, trackID string) (*domain.Track, error) {
	for _, t := range f.tracks {
		if t.ID == trackID && t.EventID == eventID {
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeTrackRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Track, error) {
	var out []*domain.Track
	for _, t := range f.tracks {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	mu       sync.Mutex
	byID     map[string]*domain.User
	tokens   map[string]*domain.VerificationToken
	nextID   int
	speakers *fakeSpeakerRepo
}

func newFakeUserRepo(speakers *fakeSpeakerRepo) *fakeUserRepo {
	return &fakeUserRepo{
		byID:     make(map[string]*domain.User),
		tokens:   make(map[string]*domain.VerificationToken),
		nextID:   1,
		speakers: speakers,
	}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertLocked(u)
	return u
}

func (f *fakeUserRepo) insertLocked(u *domain.User) {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", f.nextID)
		f.nextID++
	}
	stored := *u
	f.byID[u.ID] = &stored
}

func (f *fakeUserRepo) emailTakenLocked(email string) bool {
	for _, u := range f.byID {
		if u.Email == email {
			return true
		}
	}
	return false
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[id]; ok {
		out := *u
		return &out, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) CreateWithVerificationToken(ctx context.Context, user *domain.User, token *domain.VerificationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emailTakenLocked(user.Email) {
		return domain.ErrDuplicateEmail
	}
	f.insertLocked(user)
	t := *token
	f.tokens[token.Identifier] = &t
	return nil
}

func (f *fakeUserRepo) CreateWithSpeaker(ctx context.Context, user *domain.User, speaker *domain.Speaker) error {
	f.mu.Lock()
	if f.emailTakenLocked(user.Email) {
		f.mu.Unlock()
		return domain.ErrDuplicateEmail
	}
	f.insertLocked(user)
	f.mu.Unlock()
	speaker.UserID = &user.ID
	return f.speakers.UpsertLinked(ctx, speaker)
}

func (f *fakeUserRepo) Activate(ctx context.Context, email, tokenHash, passwordHash, salt string, now time.Time) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[email]
	if !ok || t.TokenHash != tokenHash || now.After(t.ExpiresAt) {
		return nil, domain.ErrNotFound
	}
	delete(f.tokens, email)
	for _, u := range f.byID {
		if u.Email == email {
			u.PasswordHash = passwordHash
			u.Salt = salt
			verified := now
			u.EmailVerifiedAt = &verified
			out := *u
			return &out, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) ReplaceVerificationToken(ctx context.Context, token *domain.VerificationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := *token
	f.tokens[token.Identifier] = &t
	return nil
}

func (f *fakeUserRepo) token(email string) *domain.VerificationToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[email]
}

func (f *fakeUserRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// fakeAuditRepo records audit rows in memory.
type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditRepo) actions() []domain.AuditAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeEmailService records sent emails; err makes every send fail.
type fakeEmailService struct {
	mu          sync.Mutex
	submitted   []*domain.AbstractSubmittedEmailData
	statuses    []*domain.AbstractStatusEmailData
	invitations []*domain.ReviewerInvitationEmailData
	err         error
}

func (f *fakeEmailService) SendAbstractSubmitted(ctx context.Context, data *domain.AbstractSubmittedEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, data)
	return f.err
}

func (f *fakeEmailService) SendAbstractStatus(ctx context.Context, data *domain.AbstractStatusEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, data)
	return f.err
}

func (f *fakeEmailService) SendReviewerInvitation(ctx context.Context, data *domain.ReviewerInvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations = append(f.invitations, data)
	return f.err
}

// fakeHasher is a reversible PasswordHasher.
type fakeHasher struct{}

func (fakeHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakeHasher) Hash(salt, password string) (string, error) { return "hash:" + salt + ":" + password, nil }

func (fakeHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

// fakeIssuer issues predictable tokens.
type fakeIssuer struct{}

func (fakeIssuer) Issue(user *domain.User, expiry time.Duration) (string, error) {
	return "jwt-" + user.ID, nil
}

const (
	testOrgID     = "org-a"
	testEventID   = "ev-1"
	testEventSlug = "acme-conf"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

// testEnv wires the fakes shared by the service tests.
type testEnv struct {
	events    *fakeEventRepo
	speakers  *fakeSpeakerRepo
	abstracts *fakeAbstractRepo
	tracks    *fakeTrackRepo
	users     *fakeUserRepo
	audits    *fakeAuditRepo
	emails    *fakeEmailService
	effects   *Effects
	audit     *AuditTrail
	links     Links
}

func newTestEnv() *testEnv {
	speakers := newFakeSpeakerRepo()
	effects := NewEffects(slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
	effects.retryDelay = 0
	audits := &fakeAuditRepo{}
	env := &testEnv{
		events:    newFakeEventRepo(),
		speakers:  speakers,
		abstracts: newFakeAbstractRepo(speakers),
		tracks: &fakeTrackRepo{tracks: []*domain.Track{
			{ID: "tr-1", EventID: testEventID, Name: "Backend"},
			{ID: "tr-other", EventID: "ev-2", Name: "Elsewhere"},
		}},
		users:   newFakeUserRepo(speakers),
		audits:  audits,
		emails:  &fakeEmailService{},
		effects: effects,
		audit:   NewAuditTrail(audits, effects),
		links:   Links{BaseURL: "https://desk.example.com"},
	}
	env.events.add(&domain.Event{
		ID:             testEventID,
		OrganizationID: testOrgID,
		Name:           "Acme Conf",
		Slug:           testEventSlug,
		Status:         domain.EventStatusPublished,
		Settings:       domain.EventSettings{AllowAbstractSubmissions: true},
	})
	env.events.add(&domain.Event{ID: "ev-2", OrganizationID: "org-b", Name: "Other", Slug: "other", Status: domain.EventStatusDraft})
	return env
}

func (e *testEnv) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.effects.Wait(ctx))
}

func (e *testEnv) setSettings(fn func(s *domain.EventSettings)) {
	e.events.mu.Lock()
	defer e.events.mu.Unlock()
	fn(&e.events.byID[testEventID].Settings)
}

func ptr[T any](v T) *T { return &v }

var (
	superAdmin = &domain.Principal{UserID: "u-super", Role: domain.RoleSuperAdmin}
	orgAdmin   = &domain.Principal{UserID: "u-admin", Role: domain.RoleAdmin, OrganizationID: ptr(testOrgID)}
	organizer  = &domain.Principal{UserID: "u-org", Role: domain.RoleOrganizer, OrganizationID: ptr(testOrgID)}
	outsider   = &domain.Principal{UserID: "u-out", Role: domain.RoleAdmin, OrganizationID: ptr("org-b")}
	reviewer   = &domain.Principal{UserID: "u-rev", Role: domain.RoleReviewer}
	submitter  = &domain.Principal{UserID: "u-sub", Role: domain.RoleSubmitter}
)
