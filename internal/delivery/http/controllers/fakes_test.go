package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/delivery/http/middleware"
	"eventdesk/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID    = "6f1c2a3e-8b4d-4c5e-9f60-7a8b9c0d1e2f"
	testAbstractID = "0a9b8c7d-6e5f-4a3b-8c2d-1e0f9a8b7c6d"
	testSpeakerID  = "11111111-2222-4333-8444-555555555555"
	testTrackID    = "aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"
	testUserID     = "99999999-8888-4777-8666-555555555555"
)

var testPrincipal = &domain.Principal{UserID: "user-123", Role: domain.RoleAdmin}

// newRequest builds a request with path values and, when p is set, an authenticated principal.
func newRequest(method, target, body string, pathValues map[string]string, p *domain.Principal) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "http://test"+target, r)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if p != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), p))
	}
	return req
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIError {
	t.Helper()
	var body helpers.APIError
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body), "response must be a valid error envelope")
	return body
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope), "response must be a valid envelope")
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

// fakeAbstractService implements domain.AbstractService for handler tests.
type fakeAbstractService struct {
	err        error
	abstract   *domain.Abstract
	page       *domain.AbstractPage
	lastEvent  string
	lastID     string
	lastFilter domain.AbstractFilter
	lastParams domain.PaginationParams
	lastCreate domain.CreateAbstractInput
	lastUpdate domain.UpdateAbstractInput
	deleted    bool
}

func (f *fakeAbstractService) List(_ context.Context, _ *domain.Principal, eventID string, filter domain.AbstractFilter, params domain.PaginationParams) (*domain.AbstractPage, error) {
	f.lastEvent, f.lastFilter, f.lastParams = eventID, filter, params
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeAbstractService) Get(_ context.Context, _ *domain.Principal, eventID, abstractID string) (*domain.Abstract, error) {
	f.lastEvent, f.lastID = eventID, abstractID
	return f.abstract, f.err
}

func (f *fakeAbstractService) Create(_ context.Context, _ *domain.Principal, eventID string, in domain.CreateAbstractInput) (*domain.Abstract, error) {
	f.lastEvent, f.lastCreate = eventID, in
	return f.abstract, f.err
}

func (f *fakeAbstractService) Update(_ context.Context, _ *domain.Principal, eventID, abstractID string, in domain.UpdateAbstractInput) (*domain.Abstract, error) {
	f.lastEvent, f.lastID, f.lastUpdate = eventID, abstractID, in
	return f.abstract, f.err
}

func (f *fakeAbstractService) Delete(_ context.Context, _ *domain.Principal, eventID, abstractID string) error {
	f.lastEvent, f.lastID = eventID, abstractID
	f.deleted = f.err == nil
	return f.err
}

// fakePublicService implements domain.PublicAbstractService and domain.SubmitterService.
type fakePublicService struct {
	err          error
	submitResult *domain.PublicSubmissionResult
	managed      *domain.ManagedAbstract
	registration *domain.SubmitterRegistration
	lastSlug     string
	lastToken    string
	lastSubmit   domain.PublicSubmissionInput
	lastEdit     domain.SelfServiceEditInput
	lastRegister domain.SubmitterRegistrationInput
}

func (f *fakePublicService) Submit(_ context.Context, slug string, in domain.PublicSubmissionInput) (*domain.PublicSubmissionResult, error) {
	f.lastSlug, f.lastSubmit = slug, in
	return f.submitResult, f.err
}

func (f *fakePublicService) GetByToken(_ context.Context, token string) (*domain.ManagedAbstract, error) {
	f.lastToken = token
	return f.managed, f.err
}

func (f *fakePublicService) UpdateByToken(_ context.Context, token string, in domain.SelfServiceEditInput) (*domain.ManagedAbstract, error) {
	f.lastToken, f.lastEdit = token, in
	return f.managed, f.err
}

func (f *fakePublicService) Register(_ context.Context, slug string, in domain.SubmitterRegistrationInput) (*domain.SubmitterRegistration, error) {
	f.lastSlug, f.lastRegister = slug, in
	return f.registration, f.err
}

// fakeReviewerService implements domain.ReviewerService.
type fakeReviewerService struct {
	err       error
	roster    *domain.ReviewerRoster
	reviewer  *domain.Reviewer
	lastEvent string
	lastUser  string
	lastAdd   domain.AddReviewerInput
	calls     []string
}

func (f *fakeReviewerService) List(_ context.Context, _ *domain.Principal, eventID string) (*domain.ReviewerRoster, error) {
	f.lastEvent = eventID
	f.calls = append(f.calls, "list")
	return f.roster, f.err
}

func (f *fakeReviewerService) Add(_ context.Context, _ *domain.Principal, eventID string, in domain.AddReviewerInput) (*domain.Reviewer, error) {
	f.lastEvent, f.lastAdd = eventID, in
	f.calls = append(f.calls, "add")
	return f.reviewer, f.err
}

func (f *fakeReviewerService) Remove(_ context.Context, _ *domain.Principal, eventID, userID string) error {
	f.lastEvent, f.lastUser = eventID, userID
	f.calls = append(f.calls, "remove")
	return f.err
}

func (f *fakeReviewerService) ResendInvitation(_ context.Context, _ *domain.Principal, eventID, userID string) error {
	f.lastEvent, f.lastUser = eventID, userID
	f.calls = append(f.calls, "resend")
	return f.err
}

// fakeAccountService implements domain.AccountService.
type fakeAccountService struct {
	err          error
	result       *domain.AuthResult
	lastEmail    string
	lastToken    string
	lastPassword string
}

func (f *fakeAccountService) Login(_ context.Context, email, password string) (*domain.AuthResult, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.result, f.err
}

func (f *fakeAccountService) AcceptInvitation(_ context.Context, email, token, password string) (*domain.AuthResult, error) {
	f.lastEmail, f.lastToken, f.lastPassword = email, token, password
	return f.result, f.err
}

// fakeSettingsService implements domain.EventSettingsService.
type fakeSettingsService struct {
	err       error
	settings  *domain.EventSettings
	lastEvent string
	lastPatch domain.EventSettingsPatch
	updated   bool
}

func (f *fakeSettingsService) Get(_ context.Context, _ *domain.Principal, eventID string) (*domain.EventSettings, error) {
	f.lastEvent = eventID
	return f.settings, f.err
}

func (f *fakeSettingsService) Update(_ context.Context, _ *domain.Principal, eventID string, patch domain.EventSettingsPatch) (*domain.EventSettings, error) {
	f.lastEvent, f.lastPatch = eventID, patch
	f.updated = true
	return f.settings, f.err
}

func ptr[T any](v T) *T { return &v }

func jsonDecode(rr *httptest.ResponseRecorder, dest any) error {
	return json.NewDecoder(rr.Body).Decode(dest)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
