package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewerController_AddReviewer(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
		wantInput  *domain.AddReviewerInput
	}{
		{
			name:       "from speaker",
			body:       `{"type":"speaker","speakerId":"` + testSpeakerID + `"}`,
			wantStatus: http.StatusCreated,
			wantInput:  &domain.AddReviewerInput{Type: domain.ReviewerSourceSpeaker, SpeakerID: testSpeakerID},
		},
		{
			name:       "direct",
			body:       `{"type":"direct","email":"r@x.com","firstName":"Rae","lastName":"View"}`,
			wantStatus: http.StatusCreated,
			wantInput:  &domain.AddReviewerInput{Type: domain.ReviewerSourceDirect, Email: "r@x.com", FirstName: "Rae", LastName: "View"},
		},
		{name: "speaker mode without id", body: `{"type":"speaker"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "direct mode without email", body: `{"type":"direct","firstName":"Rae","lastName":"View"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "unknown type", body: `{"type":"import"}`, wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{
			name:       "already on roster",
			body:       `{"type":"direct","email":"r@x.com","firstName":"Rae","lastName":"View"}`,
			fakeErr:    domain.NewError(domain.ErrConflict, "already a reviewer for this event"),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "submitter cannot manage the roster",
			body:       `{"type":"speaker","speakerId":"` + testSpeakerID + `"}`,
			fakeErr:    domain.ErrForbidden,
			wantStatus: http.StatusForbidden,
			wantCode:   helpers.ErrCodeForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReviewerService{
				err:      tt.fakeErr,
				reviewer: &domain.Reviewer{UserID: testUserID, Email: "r@x.com", Source: domain.ReviewerSourceDirect},
			}
			ctrl := NewReviewerController(testLogger, fake)
			req := newRequest(http.MethodPost, "/api/events/"+testEventID+"/reviewers", tt.body, map[string]string{"eventId": testEventID}, testPrincipal)
			rr := httptest.NewRecorder()

			ctrl.AddReviewer(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantInput != nil {
				assert.Equal(t, *tt.wantInput, fake.lastAdd)
				var got domain.Reviewer
				decodeData(t, rr, &got)
				assert.Equal(t, testUserID, got.UserID)
				return
			}
			assert.Equal(t, tt.wantCode, decodeError(t, rr).Code)
		})
	}
}

func TestReviewerController_ListReviewers(t *testing.T) {
	fake := &fakeReviewerService{roster: &domain.ReviewerRoster{
		Reviewers:         []domain.Reviewer{{UserID: testUserID, Source: domain.ReviewerSourceSpeaker, SpeakerID: ptr(testSpeakerID), AccountActive: true}},
		AvailableSpeakers: []*domain.Speaker{},
	}}
	rr := httptest.NewRecorder()
	NewReviewerController(testLogger, fake).ListReviewers(rr, newRequest(http.MethodGet, "/", "", map[string]string{"eventId": testEventID}, testPrincipal))

	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.ReviewerRoster
	decodeData(t, rr, &got)
	require.Len(t, got.Reviewers, 1)
	assert.Equal(t, domain.ReviewerSourceSpeaker, got.Reviewers[0].Source)
	assert.NotNil(t, got.AvailableSpeakers)
}

func TestReviewerController_RemoveAndResend(t *testing.T) {
	pathValues := map[string]string{"eventId": testEventID, "userId": testUserID}

	tests := []struct {
		name       string
		call       func(c *ReviewerController, w http.ResponseWriter, r *http.Request)
		pathValues map[string]string
		fakeErr    error
		wantStatus int
		wantBody   string
		wantCall   string
	}{
		{name: "remove", call: (*ReviewerController).RemoveReviewer, pathValues: pathValues, wantStatus: http.StatusOK, wantBody: "removed", wantCall: "remove"},
		{name: "remove absent", call: (*ReviewerController).RemoveReviewer, pathValues: pathValues, fakeErr: domain.NewError(domain.ErrNotFound, "Reviewer not found"), wantStatus: http.StatusNotFound, wantCall: "remove"},
		{name: "remove malformed user id", call: (*ReviewerController).RemoveReviewer, pathValues: map[string]string{"eventId": testEventID, "userId": "u-1"}, wantStatus: http.StatusBadRequest},
		{name: "resend", call: (*ReviewerController).ResendInvitation, pathValues: pathValues, wantStatus: http.StatusOK, wantBody: "sent", wantCall: "resend"},
		{
			name:       "resend to active account",
			call:       (*ReviewerController).ResendInvitation,
			pathValues: pathValues,
			fakeErr:    domain.NewError(domain.ErrInvalidInput, "This reviewer has already activated their account"),
			wantStatus: http.StatusBadRequest,
			wantCall:   "resend",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeReviewerService{err: tt.fakeErr}
			rr := httptest.NewRecorder()
			tt.call(NewReviewerController(testLogger, fake), rr, newRequest(http.MethodPost, "/", "", tt.pathValues, testPrincipal))

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantCall == "" {
				assert.Empty(t, fake.calls)
			} else {
				assert.Equal(t, []string{tt.wantCall}, fake.calls)
				assert.Equal(t, testUserID, fake.lastUser)
			}
			if tt.wantBody != "" {
				var got StatusResponse
				decodeData(t, rr, &got)
				assert.Equal(t, tt.wantBody, got.Status)
			}
		})
	}
}
