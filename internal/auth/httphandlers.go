package auth

import (
	"encoding/json"
	"net/http"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type httpHandler struct {
	service Service
	logger  zerolog.Logger
}

// Setup registers the identity routes and returns the service, which is the Authorizer
// of every other context.
func Setup(router *chi.Mux, logger zerolog.Logger, config configs.Config, dbConn database.Connection) Service {
	handler := &httpHandler{logger: logger, service: NewService(config, dbConn)}

	router.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Authenticate)
		r.Put("/token", handler.RefreshToken)
		r.With(JwtValidator(handler.service)).Get("/me", handler.GetAuthenticatedUser)
	})

	return handler.service
}

// writeError answers 401 for authentication failures, without a body.
func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.RequestError(h.logger, r, err)
	if IsUnauthorized(err) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	apierrors.Write(w, err)
}

func (h httpHandler) respond(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Register creates a patient or doctor account.
func (h httpHandler) Register(w http.ResponseWriter, r *http.Request) {
	var registration Registration
	if err := validation.Decode(r.Body, &registration); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.service.Register(r.Context(), registration)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusCreated, user)
}

// Authenticate exchanges the credentials for tokens.
func (h httpHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var credentials Credentials
	if err := validation.Decode(r.Body, &credentials); err != nil {
		h.writeError(w, r, err)
		return
	}
	tokens, err := h.service.Authenticate(r.Context(), credentials)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, tokens)
}

// RefreshToken exchanges a refresh token for a new pair.
func (h httpHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var tokens Tokens
	if err := validation.Decode(r.Body, &tokens); err != nil {
		h.writeError(w, r, err)
		return
	}
	refreshed, err := h.service.RefreshTokens(r.Context(), tokens)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, refreshed)
}

func (h httpHandler) GetAuthenticatedUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetAuthenticatedUser(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, http.StatusOK, user)
}
