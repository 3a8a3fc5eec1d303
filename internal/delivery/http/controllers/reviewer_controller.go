package controllers

import (
	"log/slog"
	"net/http"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"
)

// AddReviewerRequest is the request body for POST /api/events/{eventId}/reviewers.
// With type "speaker" only speakerId is read; with type "direct" email and names are.
type AddReviewerRequest struct {
	Type      domain.ReviewerSource `json:"type"`
	SpeakerID string                `json:"speakerId"`
	Email     string                `json:"email"`
	FirstName string                `json:"firstName"`
	LastName  string                `json:"lastName"`
}

// Validate implements Validator.
func (a AddReviewerRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	switch a.Type {
	case domain.ReviewerSourceSpeaker:
		errs.Required("speakerId", a.SpeakerID)
		if a.SpeakerID != "" && !validUUID(a.SpeakerID) {
			errs.Add("speakerId", "speakerId must be a valid UUID")
		}
	case domain.ReviewerSourceDirect:
		errs.Required("email", a.Email)
		errs.Email("email", a.Email)
		errs.Required("firstName", a.FirstName)
		errs.MaxLength("firstName", a.FirstName, maxNameLength)
		errs.Required("lastName", a.LastName)
		errs.MaxLength("lastName", a.LastName, maxNameLength)
	default:
		errs.Add("type", `type must be "speaker" or "direct"`)
	}
	return errs
}

// ReviewerRosterSuccessResponse is the success response envelope for GET /api/events/{eventId}/reviewers (200).
type ReviewerRosterSuccessResponse struct {
	Data *domain.ReviewerRoster `json:"data"`
}

// ReviewerSuccessResponse is the success response envelope for POST /api/events/{eventId}/reviewers (201).
type ReviewerSuccessResponse struct {
	Data *domain.Reviewer `json:"data"`
}

type ReviewerController struct {
	Logger  *slog.Logger
	Service domain.ReviewerService
}

func NewReviewerController(logger *slog.Logger, svc domain.ReviewerService) *ReviewerController {
	return &ReviewerController{
		Logger:  logger,
		Service: svc,
	}
}

// ListReviewers godoc
// @Summary List an event's reviewers
// @Description Returns every roster entry in one shape, plus the event speakers that are not reviewers yet.
// @Tags reviewers
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ReviewerRosterSuccessResponse
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/reviewers [get]
func (c *ReviewerController) ListReviewers(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	roster, err := c.Service.List(r.Context(), p, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, roster)
}

// AddReviewer godoc
// @Summary Add a reviewer to an event
// @Description Promotes an event speaker or invites a person by email. New accounts receive an invitation email.
// @Tags reviewers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param reviewer body AddReviewerRequest true "Reviewer"
// @Success 201 {object} controllers.ReviewerSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request or conflict"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/reviewers [post]
func (c *ReviewerController) AddReviewer(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req AddReviewerRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	reviewer, err := c.Service.Add(r.Context(), p, eventID, domain.AddReviewerInput{
		Type:      req.Type,
		SpeakerID: req.SpeakerID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, reviewer)
}

// RemoveReviewer godoc
// @Summary Remove a reviewer from an event
// @Description The account is kept; only the roster entry is removed.
// @Tags reviewers
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param userId path string true "Reviewer user ID (UUID)"
// @Success 200 {object} controllers.StatusResponse "status: removed"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/reviewers/{userId} [delete]
func (c *ReviewerController) RemoveReviewer(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	userID, ok := helpers.PathUUID(w, r, "userId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := c.Service.Remove(r.Context(), p, eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "removed"})
}

// ResendInvitation godoc
// @Summary Re-send a reviewer's invitation
// @Description Issues a new invitation link for a reviewer who has not activated their account. Earlier links stop working.
// @Tags reviewers
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param userId path string true "Reviewer user ID (UUID)"
// @Success 200 {object} controllers.StatusResponse "status: sent"
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/reviewers/{userId}/resend-invitation [post]
func (c *ReviewerController) ResendInvitation(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	userID, ok := helpers.PathUUID(w, r, "userId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := c.Service.ResendInvitation(r.Context(), p, eventID, userID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "sent"})
}
