package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"
)

// PublicSubmissionRequest is the request body for POST /api/public/events/{slug}/abstracts.
type PublicSubmissionRequest struct {
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	TrackID   *string `json:"trackId"`
	Specialty *string `json:"specialty"`
}

// Validate implements Validator.
func (p PublicSubmissionRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	errs.Required("email", p.Email)
	errs.Email("email", p.Email)
	errs.Required("firstName", p.FirstName)
	errs.MaxLength("firstName", p.FirstName, maxNameLength)
	errs.Required("lastName", p.LastName)
	errs.MaxLength("lastName", p.LastName, maxNameLength)
	errs.Required("title", p.Title)
	errs.MaxLength("title", p.Title, maxTitleLength)
	errs.Required("content", p.Content)
	errs.MaxLength("content", p.Content, maxContentLength)
	optionalUUID(errs, "trackId", p.TrackID)
	optionalText(errs, "specialty", p.Specialty, maxSpecialtyLength)
	return errs
}

// SubmitterRegistrationRequest is the request body for POST /api/public/events/{slug}/submitter.
type SubmitterRegistrationRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// Validate implements Validator.
func (s SubmitterRegistrationRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	errs.Required("email", s.Email)
	errs.Email("email", s.Email)
	errs.Required("firstName", s.FirstName)
	errs.MaxLength("firstName", s.FirstName, maxNameLength)
	errs.Required("lastName", s.LastName)
	errs.MaxLength("lastName", s.LastName, maxNameLength)
	checkPassword(errs, "password", s.Password)
	return errs
}

// ManagedAbstractEditRequest is the request body for PUT /api/public/abstracts/{token}.
// Only title, content and trackId may be changed through a management link.
type ManagedAbstractEditRequest struct {
	Title   *string          `json:"title"`
	Content *string          `json:"content"`
	TrackID nullable[string] `json:"trackId" swaggertype:"string"`
}

// Validate implements Validator.
func (m ManagedAbstractEditRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	optionalText(errs, "title", m.Title, maxTitleLength)
	optionalText(errs, "content", m.Content, maxContentLength)
	if m.TrackID.Set && !m.TrackID.Null && !validUUID(m.TrackID.Value) {
		errs.Add("trackId", "trackId must be a valid UUID")
	}
	return errs
}

// PublicSubmissionSuccessResponse is the success response envelope for a public submission (200).
// The management link is only sent by email.
type PublicSubmissionSuccessResponse struct {
	Data *domain.PublicSubmissionResult `json:"data"`
}

// ManagedAbstractSuccessResponse is the success response envelope for management link reads and edits.
type ManagedAbstractSuccessResponse struct {
	Data *domain.ManagedAbstract `json:"data"`
}

// SubmitterRegistrationSuccessResponse is the success response envelope for submitter registration (201).
type SubmitterRegistrationSuccessResponse struct {
	Data *domain.SubmitterRegistration `json:"data"`
}

// PublicController serves the unauthenticated submission endpoints.
type PublicController struct {
	Logger     *slog.Logger
	Abstracts  domain.PublicAbstractService
	Submitters domain.SubmitterService
}

func NewPublicController(logger *slog.Logger, abstracts domain.PublicAbstractService, submitters domain.SubmitterService) *PublicController {
	return &PublicController{
		Logger:     logger,
		Abstracts:  abstracts,
		Submitters: submitters,
	}
}

// SubmitAbstract godoc
// @Summary Submit an abstract to a public event
// @Description Anonymous submission. The speaker is created or reused by email; a management link is emailed to them.
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Event slug"
// @Param abstract body PublicSubmissionRequest true "Submission"
// @Success 200 {object} controllers.PublicSubmissionSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 403 {object} helpers.APIError "code: forbidden (submissions closed or deadline passed)"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Failure 429 {object} helpers.APIError "code: too_many_requests"
// @Router /public/events/{slug}/abstracts [post]
func (c *PublicController) SubmitAbstract(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	var req PublicSubmissionRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Abstracts.Submit(r.Context(), slug, domain.PublicSubmissionInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Title:     req.Title,
		Content:   req.Content,
		TrackID:   req.TrackID,
		Specialty: req.Specialty,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// RegisterSubmitter godoc
// @Summary Register a submitter account for a public event
// @Description Creates an active SUBMITTER account, or signs in an existing one, and links it to the event's speaker record.
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Event slug"
// @Param registration body SubmitterRegistrationRequest true "Registration"
// @Success 201 {object} controllers.SubmitterRegistrationSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Failure 429 {object} helpers.APIError "code: too_many_requests"
// @Router /public/events/{slug}/submitter [post]
func (c *PublicController) RegisterSubmitter(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.PathValue("slug"))
	if slug == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing slug")
		return
	}
	var req SubmitterRegistrationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Submitters.Register(r.Context(), slug, domain.SubmitterRegistrationInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// GetManagedAbstract godoc
// @Summary Read an abstract through its management link
// @Tags public
// @Produce json
// @Param token path string true "Management token"
// @Success 200 {object} controllers.ManagedAbstractSuccessResponse
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Failure 429 {object} helpers.APIError "code: too_many_requests"
// @Router /public/abstracts/{token} [get]
func (c *PublicController) GetManagedAbstract(w http.ResponseWriter, r *http.Request) {
	view, err := c.Abstracts.GetByToken(r.Context(), r.PathValue("token"))
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}

// UpdateManagedAbstract godoc
// @Summary Edit an abstract through its management link
// @Description Allowed while the abstract is DRAFT, SUBMITTED or REVISION_REQUESTED and the deadline has not passed. A REVISION_REQUESTED abstract is resubmitted.
// @Tags public
// @Accept json
// @Produce json
// @Param token path string true "Management token"
// @Param abstract body ManagedAbstractEditRequest true "Fields to change"
// @Success 200 {object} controllers.ManagedAbstractSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Failure 409 {object} helpers.APIError "code: conflict"
// @Failure 429 {object} helpers.APIError "code: too_many_requests"
// @Router /public/abstracts/{token} [put]
func (c *PublicController) UpdateManagedAbstract(w http.ResponseWriter, r *http.Request) {
	var req ManagedAbstractEditRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	in := domain.SelfServiceEditInput{Title: req.Title, Content: req.Content}
	if req.TrackID.Set {
		if req.TrackID.Null {
			in.ClearTrack = true
		} else {
			id := req.TrackID.Value
			in.TrackID = &id
		}
	}
	view, err := c.Abstracts.UpdateByToken(r.Context(), r.PathValue("token"), in)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, view)
}
