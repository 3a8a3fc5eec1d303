package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"
	"eventdesk/internal/policy"

	"golang.org/x/sync/errgroup"
)

var errStaleAbstract = domain.NewError(domain.ErrStaleWrite, "abstract was modified by someone else; reload and try again")

type abstractService struct {
	eventRepo      domain.EventRepository
	abstractRepo   domain.AbstractRepository
	speakerRepo    domain.SpeakerRepository
	trackRepo      domain.TrackRepository
	emailService   domain.EmailService
	audit          *AuditTrail
	effects        *Effects
	links          Links
	contextTimeout time.Duration
	now            func() time.Time
}

// NewAbstractService returns the session-authenticated AbstractService.
func NewAbstractService(eventRepo domain.EventRepository,
	abstractRepo domain.AbstractRepository,
	speakerRepo domain.SpeakerRepository,
	trackRepo domain.TrackRepository,
	emailService domain.EmailService,
	audit *AuditTrail,
	effects *Effects,
	links Links,
	timeout time.Duration,
) domain.AbstractService {
	return &abstractService{
		eventRepo:      eventRepo,
		abstractRepo:   abstractRepo,
		speakerRepo:    speakerRepo,
		trackRepo:      trackRepo,
		emailService:   emailService,
		audit:          audit,
		effects:        effects,
		links:          links,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *abstractService) List(ctx context.Context, p *domain.Principal, eventID string, filter domain.AbstractFilter, params domain.PaginationParams) (*domain.AbstractPage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionRead, Resource: policy.ResourceAbstract}); err != nil {
		return nil, err
	}
	if p.Role == domain.RoleSubmitter {
		self := p.UserID
		filter.SpeakerUserID = &self
	}

	var (
		event *domain.Event
		items []*domain.Abstract
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.eventRepo.GetByID(gctx, eventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		event = e
		return nil
	})
	g.Go(func() error {
		list, n, err := s.abstractRepo.List(gctx, eventID, filter, params)
		if err != nil {
			return fmt.Errorf("list abstracts: %w", err)
		}
		items, total = list, n
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := policy.EventAccess(p, event).Err(); err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Abstract{}
	}
	if !policy.CanViewReviewFields(p.Role) {
		for _, a := range items {
			a.RedactReviewFields()
		}
	}
	return &domain.AbstractPage{Event: event, Items: items, Total: total}, nil
}

func (s *abstractService) Get(ctx context.Context, p *domain.Principal, eventID, abstractID string) (*domain.Abstract, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadEventFor(ctx, s.eventRepo, p, eventID); err != nil {
		return nil, err
	}
	a, err := s.loadAbstract(ctx, eventID, abstractID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(policy.Request{
		Role:      p.Role,
		Action:    policy.ActionRead,
		Resource:  policy.ResourceAbstract,
		Ownership: policy.OwnershipOf(a.OwnedBy(p.UserID)),
	}); err != nil {
		return nil, err
	}
	if !policy.CanViewReviewFields(p.Role) {
		a.RedactReviewFields()
	}
	return a, nil
}

func (s *abstractService) Create(ctx context.Context, p *domain.Principal, eventID string, in domain.CreateAbstractInput) (*domain.Abstract, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := policy.Check(policy.Request{Role: p.Role, Action: policy.ActionCreate, Resource: policy.ResourceAbstract}); err != nil {
		return nil, err
	}
	if _, err := loadEventFor(ctx, s.eventRepo, p, eventID); err != nil {
		return nil, err
	}

	speaker, err := s.speakerRepo.GetByID(ctx, in.SpeakerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	if speaker == nil || speaker.EventID != eventID {
		return nil, domain.NewError(domain.ErrNotFound, "Speaker not found")
	}
	if err := policy.Check(policy.Request{
		Role:      p.Role,
		Action:    policy.ActionCreate,
		Resource:  policy.ResourceAbstract,
		Ownership: policy.OwnershipOf(speaker.OwnedBy(p.UserID)),
	}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "Speaker not found")
		}
		return nil, err
	}

	initial, err := domain.PlanInitial(in.Status)
	if err != nil {
		return nil, err
	}
	if in.TrackID != nil {
		if err := s.checkTrack(ctx, eventID, *in.TrackID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	a := &domain.Abstract{
		EventID:   eventID,
		SpeakerID: speaker.ID,
		Title:     sanitizeTitle(in.Title),
		Content:   sanitizeContent(in.Content),
		TrackID:   in.TrackID,
		Specialty: in.Specialty,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	initial.Apply(a, now)
	if err := s.abstractRepo.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("create abstract: %w", err)
	}
	a.Speaker = &domain.AbstractSpeaker{
		ID:        speaker.ID,
		Email:     speaker.Email,
		FirstName: speaker.FirstName,
		LastName:  speaker.LastName,
		UserID:    speaker.UserID,
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    eventID,
		Action:     domain.AuditAbstractCreate,
		EntityType: domain.AuditEntityAbstract,
		EntityID:   a.ID,
		Changes:    a,
	})
	if !policy.CanViewReviewFields(p.Role) {
		a.RedactReviewFields()
	}
	return a, nil
}

func (s *abstractService) Update(ctx context.Context, p *domain.Principal, eventID, abstractID string, in domain.UpdateAbstractInput) (*domain.Abstract, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := loadEventFor(ctx, s.eventRepo, p, eventID)
	if err != nil {
		return nil, err
	}
	a, err := s.loadAbstract(ctx, eventID, abstractID)
	if err != nil {
		return nil, err
	}
	if err := policy.Check(policy.Request{
		Role:         p.Role,
		Action:       policy.ActionUpdate,
		Resource:     policy.ResourceAbstract,
		Ownership:    policy.OwnershipOf(a.OwnedBy(p.UserID)),
		Status:       a.Status,
		ReviewFields: in.TouchesReviewFields(),
	}); err != nil {
		return nil, err
	}

	before := *a
	if in.Title != nil {
		a.Title = sanitizeTitle(*in.Title)
	}
	if in.Content != nil {
		a.Content = sanitizeContent(*in.Content)
	}
	if in.ClearTrack {
		a.TrackID = nil
	} else if in.TrackID != nil {
		if err := s.checkTrack(ctx, eventID, *in.TrackID); err != nil {
			return nil, err
		}
		a.TrackID = in.TrackID
	}
	if in.Specialty != nil {
		a.Specialty = in.Specialty
	}
	if in.ReviewNotes != nil {
		a.ReviewNotes = in.ReviewNotes
	}
	if in.ReviewScore != nil {
		a.ReviewScore = in.ReviewScore
	}

	now := s.now()
	var change domain.StatusChange
	if in.Status != nil {
		change, err = domain.PlanTransition(a.Status, *in.Status)
		if err != nil {
			return nil, err
		}
		change.Apply(a, now)
	}
	a.UpdatedAt = now

	if err := s.abstractRepo.Update(ctx, a); err != nil {
		if errors.Is(err, domain.ErrStaleWrite) {
			return nil, errStaleAbstract
		}
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update abstract: %w", err)
	}

	action := domain.AuditAbstractUpdate
	if in.TouchesReviewFields() {
		action = domain.AuditAbstractReview
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    eventID,
		Action:     action,
		EntityType: domain.AuditEntityAbstract,
		EntityID:   a.ID,
		Changes:    auditDiff{Before: before, After: *a},
	})
	if change.IsReviewAction() {
		s.notifyStatus(ctx, event, a)
	}

	if !policy.CanViewReviewFields(p.Role) {
		a.RedactReviewFields()
	}
	return a, nil
}

func (s *abstractService) Delete(ctx context.Context, p *domain.Principal, eventID, abstractID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := loadEventFor(ctx, s.eventRepo, p, eventID); err != nil {
		return err
	}
	a, err := s.loadAbstract(ctx, eventID, abstractID)
	if err != nil {
		return err
	}
	if err := policy.Check(policy.Request{
		Role:      p.Role,
		Action:    policy.ActionDelete,
		Resource:  policy.ResourceAbstract,
		Ownership: policy.OwnershipOf(a.OwnedBy(p.UserID)),
		Status:    a.Status,
	}); err != nil {
		return err
	}
	if a.EventSessionID != nil {
		return domain.NewError(domain.ErrInvalidInput, "Cannot delete an abstract that is linked to a session")
	}
	if err := s.abstractRepo.Delete(ctx, a.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete abstract: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      p,
		EventID:    eventID,
		Action:     domain.AuditAbstractDelete,
		EntityType: domain.AuditEntityAbstract,
		EntityID:   a.ID,
		Changes:    auditDiff{Before: a},
	})
	return nil
}

// loadAbstract returns the abstract only if it belongs to eventID.
func (s *abstractService) loadAbstract(ctx context.Context, eventID, abstractID string) (*domain.Abstract, error) {
	a, err := s.abstractRepo.GetByID(ctx, abstractID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get abstract: %w", err)
	}
	if a.EventID != eventID {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *abstractService) checkTrack(ctx context.Context, eventID, trackID string) error {
	return checkTrackInEvent(ctx, s.trackRepo, eventID, trackID)
}

func (s *abstractService) notifyStatus(ctx context.Context, event *domain.Event, a *domain.Abstract) {
	if a.Speaker == nil || a.Speaker.Email == "" {
		return
	}
	data := &domain.AbstractStatusEmailData{
		Email:         a.Speaker.Email,
		FirstName:     a.Speaker.FirstName,
		EventName:     event.Name,
		AbstractTitle: a.Title,
		Status:        a.Status,
		ReviewScore:   a.ReviewScore,
	}
	if a.ReviewNotes != nil {
		data.ReviewNotes = *a.ReviewNotes
	}
	if a.ManagementToken != nil {
		data.ManagementURL = s.links.AbstractManagement(*a.ManagementToken)
	}
	s.effects.Run(ctx, BestEffort, "email abstract_status", func(ctx context.Context) error {
		return s.emailService.SendAbstractStatus(ctx, data)
	})
}

// loadEventFor loads the event and applies the caller's event scope.
func loadEventFor(ctx context.Context, repo domain.EventRepository, p *domain.Principal, eventID string) (*domain.Event, error) {
	event, err := repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if err := policy.EventAccess(p, event).Err(); err != nil {
		return nil, err
	}
	return event, nil
}

// checkTrackInEvent rejects a track id that does not resolve to a track of the event.
func checkTrackInEvent(ctx context.Context, repo domain.TrackRepository, eventID, trackID string) error {
	if _, err := repo.GetInEvent(ctx, eventID, trackID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrInvalidInput, "Track not found")
		}
		return fmt.Errorf("get track: %w", err)
	}
	return nil
}
