package http

import (
	"log/slog"
	"net/http"

	"eventdesk/internal/delivery/http/controllers"
	"eventdesk/internal/delivery/http/helpers"
	"eventdesk/internal/delivery/http/middleware"
	"eventdesk/internal/domain"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Abstracts *controllers.AbstractController
	Public    *controllers.PublicController
	Reviewers *controllers.ReviewerController
	Auth      *controllers.AuthController
	Settings  *controllers.SettingsController
}

// RouterConfig carries the cross-cutting dependencies of the router.
// Limiter may be nil, which disables rate limiting.
type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       domain.TokenVerifier
	Limiter        middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	publicLimit := middleware.RateLimit(cfg.Limiter, "public", cfg.Logger)
	authLimit := middleware.RateLimit(cfg.Limiter, "auth", cfg.Logger)

	// Dashboard
	mux.HandleFunc("GET /api/events/{eventId}/abstracts", auth(c.Abstracts.ListAbstracts))
	mux.HandleFunc("POST /api/events/{eventId}/abstracts", auth(c.Abstracts.CreateAbstract))
	mux.HandleFunc("GET /api/events/{eventId}/abstracts/{abstractId}", auth(c.Abstracts.GetAbstract))
	mux.HandleFunc("PUT /api/events/{eventId}/abstracts/{abstractId}", auth(c.Abstracts.UpdateAbstract))
	mux.HandleFunc("DELETE /api/events/{eventId}/abstracts/{abstractId}", auth(c.Abstracts.DeleteAbstract))
	mux.HandleFunc("GET /api/events/{eventId}/reviewers", auth(c.Reviewers.ListReviewers))
	mux.HandleFunc("POST /api/events/{eventId}/reviewers", auth(c.Reviewers.AddReviewer))
	mux.HandleFunc("DELETE /api/events/{eventId}/reviewers/{userId}", auth(c.Reviewers.RemoveReviewer))
	mux.HandleFunc("POST /api/events/{eventId}/reviewers/{userId}/resend-invitation", auth(c.Reviewers.ResendInvitation))
	mux.HandleFunc("GET /api/events/{eventId}/settings", auth(c.Settings.GetSettings))
	mux.HandleFunc("PATCH /api/events/{eventId}/settings", auth(c.Settings.UpdateSettings))

	// Public
	mux.HandleFunc("POST /api/public/events/{slug}/abstracts", publicLimit(c.Public.SubmitAbstract))
	mux.HandleFunc("POST /api/public/events/{slug}/submitter", publicLimit(c.Public.RegisterSubmitter))
	mux.HandleFunc("GET /api/public/abstracts/{token}", publicLimit(c.Public.GetManagedAbstract))
	mux.HandleFunc("PUT /api/public/abstracts/{token}", publicLimit(c.Public.UpdateManagedAbstract))

	// Auth
	mux.HandleFunc("POST /api/auth/login", authLimit(c.Auth.Login))
	mux.HandleFunc("POST /api/auth/invitations/accept", authLimit(c.Auth.AcceptInvitation))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "route not found")
	})

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux))
}
