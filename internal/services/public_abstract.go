package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"eventdesk/internal/domain"

	"golang.org/x/sync/errgroup"
)

type publicAbstractService struct {
	eventRepo      domain.EventRepository
	abstractRepo   domain.AbstractRepository
	trackRepo      domain.TrackRepository
	emailService   domain.EmailService
	audit          *AuditTrail
	effects        *Effects
	links          Links
	contextTimeout time.Duration
	now            func() time.Time
}

// NewPublicAbstractService returns the PublicAbstractService used by anonymous
// submitters and management links.
func NewPublicAbstractService(eventRepo domain.EventRepository,
	abstractRepo domain.AbstractRepository,
	trackRepo domain.TrackRepository,
	emailService domain.EmailService,
	audit *AuditTrail,
	effects *Effects,
	links Links,
	timeout time.Duration,
) domain.PublicAbstractService {
	return &publicAbstractService{
		eventRepo:      eventRepo,
		abstractRepo:   abstractRepo,
		trackRepo:      trackRepo,
		emailService:   emailService,
		audit:          audit,
		effects:        effects,
		links:          links,
		contextTimeout: timeout,
		now:            time.Now,
	}
}

func (s *publicAbstractService) Submit(ctx context.Context, eventSlug string, in domain.PublicSubmissionInput) (*domain.PublicSubmissionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	now := s.now()
	event, err := loadOpenEvent(ctx, s.eventRepo, eventSlug, now)
	if err != nil {
		return nil, err
	}
	if in.TrackID != nil {
		if err := checkTrackInEvent(ctx, s.trackRepo, event.ID, *in.TrackID); err != nil {
			return nil, err
		}
	}

	token, err := newManagementToken()
	if err != nil {
		return nil, fmt.Errorf("generate management token: %w", err)
	}
	speaker := domain.NewSpeaker(event.ID, normalizeEmail(in.Email), in.FirstName, in.LastName, domain.SpeakerStatusInvited, now, now)
	a := &domain.Abstract{
		EventID:         event.ID,
		Title:           sanitizeTitle(in.Title),
		Content:         sanitizeContent(in.Content),
		TrackID:         in.TrackID,
		Specialty:       in.Specialty,
		ManagementToken: &token,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	initial, err := domain.PlanInitial(domain.AbstractStatusSubmitted)
	if err != nil {
		return nil, err
	}
	initial.Apply(a, now)

	if err := s.abstractRepo.CreateWithSpeaker(ctx, speaker, a); err != nil {
		return nil, fmt.Errorf("create public abstract: %w", err)
	}

	s.audit.Record(ctx, AuditEntry{
		EventID:    event.ID,
		Action:     domain.AuditAbstractPublicSubmit,
		EntityType: domain.AuditEntityAbstract,
		EntityID:   a.ID,
		Changes:    a,
	})
	data := &domain.AbstractSubmittedEmailData{
		Email:         speaker.Email,
		FirstName:     speaker.FirstName,
		EventName:     event.Name,
		AbstractTitle: a.Title,
		ManagementURL: s.links.AbstractManagement(token),
	}
	s.effects.Run(ctx, BestEffort, "email abstract_submitted", func(ctx context.Context) error {
		return s.emailService.SendAbstractSubmitted(ctx, data)
	})

	return &domain.PublicSubmissionResult{ID: a.ID, Status: a.Status, SubmittedAt: a.SubmittedAt}, nil
}

func (s *publicAbstractService) GetByToken(ctx context.Context, token string) (*domain.ManagedAbstract, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	a, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.managedView(ctx, a)
}

func (s *publicAbstractService) UpdateByToken(ctx context.Context, token string, in domain.SelfServiceEditInput) (*domain.ManagedAbstract, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	a, err := s.loadByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, a.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	now := s.now()
	if err := domain.CheckSelfServiceEditable(a.Status, event.Settings.AbstractDeadline, now); err != nil {
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
		if err := checkTrackInEvent(ctx, s.trackRepo, a.EventID, *in.TrackID); err != nil {
			return nil, err
		}
		a.TrackID = in.TrackID
	}
	if a.Status == domain.AbstractStatusRevisionRequested {
		change, err := domain.PlanTransition(a.Status, domain.AbstractStatusSubmitted)
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
		return nil, fmt.Errorf("update abstract: %w", err)
	}

	before.RedactReviewFields()
	after := *a
	after.RedactReviewFields()
	s.audit.Record(ctx, AuditEntry{
		EventID:    a.EventID,
		Action:     domain.AuditAbstractTokenEdit,
		EntityType: domain.AuditEntityAbstract,
		EntityID:   a.ID,
		Changes:    auditDiff{Before: before, After: after},
	})
	return s.managedView(ctx, a)
}

func (s *publicAbstractService) loadByToken(ctx context.Context, token string) (*domain.Abstract, error) {
	if !isManagementToken(token) {
		return nil, domain.ErrNotFound
	}
	a, err := s.abstractRepo.GetByManagementToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get abstract by token: %w", err)
	}
	return a, nil
}

func (s *publicAbstractService) managedView(ctx context.Context, a *domain.Abstract) (*domain.ManagedAbstract, error) {
	var (
		event  *domain.Event
		tracks []*domain.Track
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.eventRepo.GetByID(gctx, a.EventID)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		event = e
		return nil
	})
	g.Go(func() error {
		list, err := s.trackRepo.ListByEventID(gctx, a.EventID)
		if err != nil {
			return fmt.Errorf("list tracks: %w", err)
		}
		tracks = list
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if tracks == nil {
		tracks = []*domain.Track{}
	}

	view := &domain.ManagedAbstract{
		ID:               a.ID,
		Title:            a.Title,
		Content:          a.Content,
		TrackID:          a.TrackID,
		Specialty:        a.Specialty,
		Status:           a.Status,
		SubmittedAt:      a.SubmittedAt,
		EventName:        event.Name,
		Tracks:           tracks,
		AbstractDeadline: event.Settings.AbstractDeadline,
		IsEditable:       domain.CheckSelfServiceEditable(a.Status, event.Settings.AbstractDeadline, s.now()) == nil,
	}
	if a.Speaker != nil {
		view.SpeakerFirstName = a.Speaker.FirstName
		view.SpeakerLastName = a.Speaker.LastName
	}
	return view, nil
}

// loadOpenEvent resolves a public event by slug and checks that it accepts submissions at now.
func loadOpenEvent(ctx context.Context, repo domain.EventRepository, slug string, now time.Time) (*domain.Event, error) {
	event, err := repo.GetPublicBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, "Event not found")
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	if !event.Settings.AllowAbstractSubmissions {
		return nil, domain.NewError(domain.ErrForbidden, "Abstract submissions are closed for this event")
	}
	if event.Settings.DeadlinePassed(now) {
		return nil, domain.NewError(domain.ErrForbidden, "The abstract submission deadline has passed")
	}
	return event, nil
}
