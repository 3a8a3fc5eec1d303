package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"
)

// CreateAbstractRequest is the request body for POST /api/events/{eventId}/abstracts.
type CreateAbstractRequest struct {
	SpeakerID string                `json:"speakerId"`
	Title     string                `json:"title"`
	Content   string                `json:"content"`
	TrackID   *string               `json:"trackId"`
	Specialty *string               `json:"specialty"`
	Status    domain.AbstractStatus `json:"status"`
}

// Validate implements Validator.
func (c CreateAbstractRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	errs.Required("speakerId", c.SpeakerID)
	if c.SpeakerID != "" && !validUUID(c.SpeakerID) {
		errs.Add("speakerId", "speakerId must be a valid UUID")
	}
	errs.Required("title", c.Title)
	errs.MaxLength("title", c.Title, maxTitleLength)
	errs.Required("content", c.Content)
	errs.MaxLength("content", c.Content, maxContentLength)
	optionalUUID(errs, "trackId", c.TrackID)
	optionalText(errs, "specialty", c.Specialty, maxSpecialtyLength)
	if c.Status != "" && !c.Status.Valid() {
		errs.Add("status", "status is not a known abstract status")
	}
	return errs
}

// UpdateAbstractRequest is the request body for PUT /api/events/{eventId}/abstracts/{abstractId}.
// Omitted fields are unchanged; trackId null removes the track.
type UpdateAbstractRequest struct {
	Title       *string                `json:"title"`
	Content     *string                `json:"content"`
	TrackID     nullable[string]       `json:"trackId" swaggertype:"string"`
	Specialty   *string                `json:"specialty"`
	Status      *domain.AbstractStatus `json:"status"`
	ReviewNotes *string                `json:"reviewNotes"`
	ReviewScore *int                   `json:"reviewScore"`
}

// Validate implements Validator.
func (u UpdateAbstractRequest) Validate() helpers.ValidationErrors {
	errs := helpers.ValidationErrors{}
	optionalText(errs, "title", u.Title, maxTitleLength)
	optionalText(errs, "content", u.Content, maxContentLength)
	if u.TrackID.Set && !u.TrackID.Null && !validUUID(u.TrackID.Value) {
		errs.Add("trackId", "trackId must be a valid UUID")
	}
	if u.Specialty != nil {
		errs.MaxLength("specialty", *u.Specialty, maxSpecialtyLength)
	}
	if u.Status != nil && !u.Status.Valid() {
		errs.Add("status", "status is not a known abstract status")
	}
	if u.ReviewNotes != nil {
		errs.MaxLength("reviewNotes", *u.ReviewNotes, maxNotesLength)
	}
	if u.ReviewScore != nil && (*u.ReviewScore < 0 || *u.ReviewScore > domain.MaxReviewScore) {
		errs.Add("reviewScore", "reviewScore must be between 0 and 100")
	}
	return errs
}

func (u UpdateAbstractRequest) input() domain.UpdateAbstractInput {
	in := domain.UpdateAbstractInput{
		Title:       u.Title,
		Content:     u.Content,
		Specialty:   u.Specialty,
		Status:      u.Status,
		ReviewNotes: u.ReviewNotes,
		ReviewScore: u.ReviewScore,
	}
	if u.TrackID.Set {
		if u.TrackID.Null {
			in.ClearTrack = true
		} else {
			id := u.TrackID.Value
			in.TrackID = &id
		}
	}
	return in
}

// AbstractListSuccessResponse is the success response envelope for GET /api/events/{eventId}/abstracts (200).
type AbstractListSuccessResponse struct {
	Data []*domain.Abstract     `json:"data"`
	Meta helpers.PaginationMeta `json:"meta"`
}

// AbstractSuccessResponse is the success response envelope for a single abstract.
type AbstractSuccessResponse struct {
	Data *domain.Abstract `json:"data"`
}

type AbstractController struct {
	Logger  *slog.Logger
	Service domain.AbstractService
}

func NewAbstractController(logger *slog.Logger, svc domain.AbstractService) *AbstractController {
	return &AbstractController{
		Logger:  logger,
		Service: svc,
	}
}

// ListAbstracts godoc
// @Summary List an event's abstracts
// @Description Paginated, newest first. Submitters only see abstracts of speakers linked to their account, without review fields.
// @Tags abstracts
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param status query string false "Filter by status"
// @Param trackId query string false "Filter by track (UUID)"
// @Param speakerId query string false "Filter by speaker (UUID)"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} controllers.AbstractListSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/abstracts [get]
func (c *AbstractController) ListAbstracts(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var filter domain.AbstractFilter
	if s := strings.TrimSpace(r.URL.Query().Get("status")); s != "" {
		status := domain.AbstractStatus(strings.ToUpper(s))
		if !status.Valid() {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "status is not a known abstract status")
			return
		}
		filter.Status = &status
	}
	if filter.TrackID, ok = helpers.QueryUUID(w, r, "trackId"); !ok {
		return
	}
	if filter.SpeakerID, ok = helpers.QueryUUID(w, r, "speakerId"); !ok {
		return
	}
	params := helpers.ParsePagination(r)
	page, err := c.Service.List(r.Context(), p, eventID, filter, params)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	items := page.Items
	if items == nil {
		items = []*domain.Abstract{}
	}
	helpers.WriteJSONSuccessWithMeta(w, http.StatusOK, items, helpers.NewPaginationMeta(params.Page, params.PageSize, page.Total))
}

// GetAbstract godoc
// @Summary Get an abstract
// @Tags abstracts
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param abstractId path string true "Abstract ID (UUID)"
// @Success 200 {object} controllers.AbstractSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/abstracts/{abstractId} [get]
func (c *AbstractController) GetAbstract(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	abstractID, ok := helpers.PathUUID(w, r, "abstractId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	abstract, err := c.Service.Get(r.Context(), p, eventID, abstractID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, abstract)
}

// CreateAbstract godoc
// @Summary Create an abstract
// @Description Creates an abstract for a speaker of the event. Status defaults to DRAFT; SUBMITTED stamps submittedAt.
// @Tags abstracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param abstract body CreateAbstractRequest true "Abstract"
// @Success 201 {object} controllers.AbstractSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/abstracts [post]
func (c *AbstractController) CreateAbstract(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req CreateAbstractRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	abstract, err := c.Service.Create(r.Context(), p, eventID, domain.CreateAbstractInput{
		SpeakerID: req.SpeakerID,
		Title:     req.Title,
		Content:   req.Content,
		TrackID:   req.TrackID,
		Specialty: req.Specialty,
		Status:    req.Status,
	})
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, abstract)
}

// UpdateAbstract godoc
// @Summary Update an abstract
// @Description Partial update. Status changes follow the review lifecycle; review fields require ADMIN or SUPER_ADMIN. Concurrent edits return 409.
// @Tags abstracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param abstractId path string true "Abstract ID (UUID)"
// @Param abstract body UpdateAbstractRequest true "Fields to change"
// @Success 200 {object} controllers.AbstractSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Failure 409 {object} helpers.APIError "code: conflict"
// @Router /events/{eventId}/abstracts/{abstractId} [put]
func (c *AbstractController) UpdateAbstract(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	abstractID, ok := helpers.PathUUID(w, r, "abstractId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req UpdateAbstractRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	abstract, err := c.Service.Update(r.Context(), p, eventID, abstractID, req.input())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, abstract)
}

// DeleteAbstract godoc
// @Summary Delete an abstract
// @Description SUPER_ADMIN only. Abstracts linked to a session cannot be deleted.
// @Tags abstracts
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param abstractId path string true "Abstract ID (UUID)"
// @Success 200 {object} controllers.StatusResponse "status: deleted"
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/abstracts/{abstractId} [delete]
func (c *AbstractController) DeleteAbstract(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	abstractID, ok := helpers.PathUUID(w, r, "abstractId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := c.Service.Delete(r.Context(), p, eventID, abstractID); err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, StatusResponse{Status: "deleted"})
}
