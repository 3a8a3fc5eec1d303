package controllers

import (
	"log/slog"
	"net/http"

	h "eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/domain"
)

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (l LoginRequest) Validate() h.ValidationErrors {
	errs := h.ValidationErrors{}
	errs.Required("email", l.Email)
	if l.Password == "" {
		errs.Add("password", "password is required")
	}
	return errs
}

// AcceptInvitationRequest is the request body for POST /api/auth/invitations/accept
type AcceptInvitationRequest struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (a AcceptInvitationRequest) Validate() h.ValidationErrors {
	errs := h.ValidationErrors{}
	errs.Required("email", a.Email)
	errs.Email("email", a.Email)
	errs.Required("token", a.Token)
	checkPassword(errs, "password", a.Password)
	return errs
}

// AuthSuccessResponse is the success response envelope for login and invitation acceptance (200).
type AuthSuccessResponse struct {
	Data *domain.AuthResult `json:"data"`
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AccountService
}

func NewAuthController(logger *slog.Logger, svc domain.AccountService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for a bearer token. Accounts that have not accepted their invitation are refused.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credentials"
// @Success 200 {object} controllers.AuthSuccessResponse
// @Failure 400 {object} h.APIError "code: bad_request"
// @Failure 401 {object} h.APIError "code: unauthorized"
// @Failure 403 {object} h.APIError "code: forbidden"
// @Failure 429 {object} h.APIError "code: too_many_requests"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, res)
}

// AcceptInvitation godoc
// @Summary Accept a reviewer invitation
// @Description Sets the password of an invited account and activates it. Invitation links are single use.
// @Tags auth
// @Accept json
// @Produce json
// @Param invitation body AcceptInvitationRequest true "Invitation"
// @Success 200 {object} controllers.AuthSuccessResponse
// @Failure 400 {object} h.APIError "code: bad_request"
// @Failure 429 {object} h.APIError "code: too_many_requests"
// @Router /auth/invitations/accept [post]
func (c *AuthController) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	var req AcceptInvitationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	res, err := c.Service.AcceptInvitation(r.Context(), req.Email, req.Token, req.Password)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, res)
}
