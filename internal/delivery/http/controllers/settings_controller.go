package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"
)

// UpdateSettingsRequest is the request body for PATCH /api/events/{eventId}/settings.
// abstractDeadline null clears the deadline. The reviewer roster is not writable here.
type UpdateSettingsRequest struct {
	AllowAbstractSubmissions *bool                      `json:"allowAbstractSubmissions"`
	AbstractDeadline         nullable[time.Time]        `json:"abstractDeadline" swaggertype:"string" format:"date-time"`
	Extra                    map[string]json.RawMessage `json:"extra" swaggertype:"object"`
}

func (u UpdateSettingsRequest) patch() domain.EventSettingsPatch {
	p := domain.EventSettingsPatch{
		AllowAbstractSubmissions: u.AllowAbstractSubmissions,
		Extra:                    u.Extra,
	}
	if u.AbstractDeadline.Set {
		if u.AbstractDeadline.Null {
			p.ClearAbstractDeadline = true
		} else {
			d := u.AbstractDeadline.Value
			p.AbstractDeadline = &d
		}
	}
	return p
}

// SettingsSuccessResponse is the success response envelope for the event settings endpoints (200).
type SettingsSuccessResponse struct {
	Data *domain.EventSettings `json:"data"`
}

type SettingsController struct {
	Logger  *slog.Logger
	Service domain.EventSettingsService
}

func NewSettingsController(logger *slog.Logger, svc domain.EventSettingsService) *SettingsController {
	return &SettingsController{
		Logger:  logger,
		Service: svc,
	}
}

// GetSettings godoc
// @Summary Get an event's settings
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Success 200 {object} controllers.SettingsSuccessResponse
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/settings [get]
func (c *SettingsController) GetSettings(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	settings, err := c.Service.Get(r.Context(), p, eventID)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update an event's settings
// @Description Shallow merge: only the named keys change. Keys under extra are stored alongside the typed settings.
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID (UUID)"
// @Param settings body UpdateSettingsRequest true "Settings to change"
// @Success 200 {object} controllers.SettingsSuccessResponse
// @Failure 400 {object} helpers.APIError "code: bad_request"
// @Failure 401 {object} helpers.APIError "code: unauthorized"
// @Failure 403 {object} helpers.APIError "code: forbidden"
// @Failure 404 {object} helpers.APIError "code: not_found"
// @Router /events/{eventId}/settings [patch]
func (c *SettingsController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "eventId")
	if !ok {
		return
	}
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req UpdateSettingsRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	settings, err := c.Service.Update(r.Context(), p, eventID, req.patch())
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, settings)
}
