package services

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"eventdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hex64 = regexp.MustCompile(`^[0-9a-f]{64}$`)

func newTestPublicService(env *testEnv) *publicAbstractService {
	svc := NewPublicAbstractService(env.events, env.abstracts, env.tracks, env.emails, env.audit, env.effects, env.links, 5*time.Second).(*publicAbstractService)
	svc.now = func() time.Time { return testNow }
	return svc
}

func annSubmission() domain.PublicSubmissionInput {
	return domain.PublicSubmissionInput{Email: "Ann@X.com", FirstName: "Ann", LastName: "Lee", Title: "Talk", Content: "abstract body text"}
}

func TestPublicAbstractService_SubmissionToReview(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	public := newTestPublicService(env)
	dashboard := newTestAbstractService(env)

	res, err := public.Submit(ctx, testEventSlug, annSubmission())
	require.NoError(t, err)
	assert.Equal(t, domain.AbstractStatusSubmitted, res.Status)
	require.NotNil(t, res.SubmittedAt)

	body, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "token")

	stored := env.abstracts.stored(res.ID)
	require.NotNil(t, stored)
	require.NotNil(t, stored.ManagementToken)
	assert.Regexp(t, hex64, *stored.ManagementToken)
	speaker, err := env.speakers.GetByID(ctx, stored.SpeakerID)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", speaker.Email)
	assert.Equal(t, testEventID, speaker.EventID)

	env.wait(t)
	require.Len(t, env.emails.submitted, 1)
	assert.Contains(t, env.emails.submitted[0].ManagementURL, *stored.ManagementToken)
	assert.Equal(t, []domain.AuditAction{domain.AuditAbstractPublicSubmit}, env.audits.actions())

	view, err := public.GetByToken(ctx, *stored.ManagementToken)
	require.NoError(t, err)
	assert.True(t, view.IsEditable)
	assert.Equal(t, "Acme Conf", view.EventName)
	assert.Equal(t, "Ann", view.SpeakerFirstName)
	assert.Len(t, view.Tracks, 1)

	reviewed, err := dashboard.Update(ctx, orgAdmin, testEventID, res.ID, domain.UpdateAbstractInput{
		Status:      ptr(domain.AbstractStatusAccepted),
		ReviewScore: ptr(85),
	})
	require.NoError(t, err)
	require.NotNil(t, reviewed.ReviewedAt)
	env.wait(t)
	require.Len(t, env.emails.statuses, 1)
	assert.Contains(t, env.emails.statuses[0].ManagementURL, *stored.ManagementToken)
	require.NotNil(t, env.emails.statuses[0].ReviewScore)
	assert.Equal(t, 85, *env.emails.statuses[0].ReviewScore)

	view, err = public.GetByToken(ctx, *stored.ManagementToken)
	require.NoError(t, err)
	assert.False(t, view.IsEditable)
}

func TestPublicAbstractService_Submit(t *testing.T) {
	ctx := context.Background()
	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)

	tests := []struct {
		name     string
		slug     string
		settings func(s *domain.EventSettings)
		input    domain.PublicSubmissionInput
		wantErr  error
		wantMsg  string
	}{
		{name: "deadline passed", slug: testEventSlug, settings: func(s *domain.EventSettings) { s.AbstractDeadline = &past }, input: annSubmission(), wantErr: domain.ErrForbidden, wantMsg: "deadline"},
		{name: "submissions closed", slug: testEventSlug, settings: func(s *domain.EventSettings) { s.AbstractDeadline = &future; s.AllowAbstractSubmissions = false }, input: annSubmission(), wantErr: domain.ErrForbidden, wantMsg: "closed"},
		{name: "unknown slug", slug: "nope", input: annSubmission(), wantErr: domain.ErrNotFound},
		{name: "unpublished event", slug: "other", input: annSubmission(), wantErr: domain.ErrNotFound},
		{
			name:    "track of another event",
			slug:    testEventSlug,
			input:   domain.PublicSubmissionInput{Email: "a@x.com", FirstName: "A", LastName: "B", Title: "T", Content: "C", TrackID: ptr("tr-other")},
			wantErr: domain.ErrInvalidInput,
			wantMsg: "Track not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			if tt.settings != nil {
				env.setSettings(tt.settings)
			}
			svc := newTestPublicService(env)

			_, err := svc.Submit(ctx, tt.slug, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, 0, env.abstracts.count())
			assert.Equal(t, 0, env.speakers.count())
		})
	}
}

func TestPublicAbstractService_SubmitReusesSpeaker(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	svc := newTestPublicService(env)

	first, err := svc.Submit(ctx, testEventSlug, annSubmission())
	require.NoError(t, err)
	second, err := svc.Submit(ctx, testEventSlug, annSubmission())
	require.NoError(t, err)

	assert.Equal(t, 1, env.speakers.count())
	assert.Equal(t, env.abstracts.stored(first.ID).SpeakerID, env.abstracts.stored(second.ID).SpeakerID)
	assert.NotEqual(t, *env.abstracts.stored(first.ID).ManagementToken, *env.abstracts.stored(second.ID).ManagementToken)
}

func seedTokenAbstract(env *testEnv, status domain.AbstractStatus) (*domain.Abstract, string) {
	token := "ab12" + strings.Repeat("0", 58) + "cd"
	speaker := env.speakers.add(&domain.Speaker{EventID: testEventID, Email: "ann@x.com", FirstName: "Ann"})
	submitted := testNow.Add(-24 * time.Hour)
	a := env.abstracts.add(&domain.Abstract{
		EventID:         testEventID,
		SpeakerID:       speaker.ID,
		Title:           "Original",
		Content:         "Original body",
		Status:          status,
		SubmittedAt:     &submitted,
		ReviewNotes:     ptr("needs work"),
		ManagementToken: &token,
	})
	return a, token
}

func TestPublicAbstractService_GetByToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	_, token := seedTokenAbstract(env, domain.AbstractStatusSubmitted)
	svc := newTestPublicService(env)

	_, err := svc.GetByToken(ctx, "not-a-token")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByToken(ctx, strings.Repeat("f", 64))
	require.ErrorIs(t, err, domain.ErrNotFound)

	view, err := svc.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, view.IsEditable)

	body, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "needs work")

	past := testNow.Add(-time.Minute)
	env.setSettings(func(s *domain.EventSettings) { s.AbstractDeadline = &past })
	view, err = svc.GetByToken(ctx, token)
	require.NoError(t, err)
	assert.False(t, view.IsEditable)
}

func TestPublicAbstractService_UpdateByToken(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted abstract is locked", func(t *testing.T) {
		env := newTestEnv()
		a, token := seedTokenAbstract(env, domain.AbstractStatusAccepted)
		svc := newTestPublicService(env)

		_, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{Title: ptr("Changed"), Content: ptr("Changed")})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Contains(t, err.Error(), "ACCEPTED")
		stored := env.abstracts.stored(a.ID)
		assert.Equal(t, "Original", stored.Title)
		assert.Equal(t, "Original body", stored.Content)
	})

	t.Run("status is checked before deadline", func(t *testing.T) {
		env := newTestEnv()
		past := testNow.Add(-time.Minute)
		env.setSettings(func(s *domain.EventSettings) { s.AbstractDeadline = &past })
		_, token := seedTokenAbstract(env, domain.AbstractStatusUnderReview)
		svc := newTestPublicService(env)

		_, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{Title: ptr("Changed")})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Contains(t, err.Error(), "UNDER_REVIEW")
	})

	t.Run("deadline passed", func(t *testing.T) {
		env := newTestEnv()
		past := testNow.Add(-time.Minute)
		env.setSettings(func(s *domain.EventSettings) { s.AbstractDeadline = &past })
		_, token := seedTokenAbstract(env, domain.AbstractStatusSubmitted)
		svc := newTestPublicService(env)

		_, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{Title: ptr("Changed")})
		require.ErrorIs(t, err, domain.ErrForbidden)
		assert.Contains(t, err.Error(), "deadline")
	})

	t.Run("revision requested is resubmitted", func(t *testing.T) {
		env := newTestEnv()
		a, token := seedTokenAbstract(env, domain.AbstractStatusRevisionRequested)
		svc := newTestPublicService(env)

		view, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{Content: ptr("Improved body"), TrackID: ptr("tr-1")})
		require.NoError(t, err)
		assert.Equal(t, domain.AbstractStatusSubmitted, view.Status)
		assert.True(t, view.IsEditable)

		stored := env.abstracts.stored(a.ID)
		assert.Equal(t, "Improved body", stored.Content)
		require.NotNil(t, stored.SubmittedAt)
		assert.True(t, stored.SubmittedAt.Equal(testNow))
		require.NotNil(t, stored.TrackID)
		assert.Equal(t, "tr-1", *stored.TrackID)
		env.wait(t)
		assert.Equal(t, []domain.AuditAction{domain.AuditAbstractTokenEdit}, env.audits.actions())
	})

	t.Run("submitted edit keeps submittedAt", func(t *testing.T) {
		env := newTestEnv()
		a, token := seedTokenAbstract(env, domain.AbstractStatusSubmitted)
		original := *a.SubmittedAt
		svc := newTestPublicService(env)

		_, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{Title: ptr("New title")})
		require.NoError(t, err)
		stored := env.abstracts.stored(a.ID)
		assert.Equal(t, "New title", stored.Title)
		assert.True(t, stored.SubmittedAt.Equal(original))
	})

	t.Run("unknown track", func(t *testing.T) {
		env := newTestEnv()
		_, token := seedTokenAbstract(env, domain.AbstractStatusDraft)
		svc := newTestPublicService(env)

		_, err := svc.UpdateByToken(ctx, token, domain.SelfServiceEditInput{TrackID: ptr("tr-other")})
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
