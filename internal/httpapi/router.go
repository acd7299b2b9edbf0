package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter assembles the full route table with logging and panic
// recovery middleware.
func NewRouter(authHandler *AuthHandler, jwksHandler *JWKSHandler, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(recoverer(log))

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/request-otp", authHandler.RequestOTP)
		r.Post("/validate-otp", authHandler.ValidateOTP)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Get("/.well-known/jwks.json", jwksHandler.Get)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondSuccess(w, "ok", nil)
	})

	return r
}
