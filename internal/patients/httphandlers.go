package patients

import (
	"encoding/json"
	"net/http"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/auth"
	"clinic-portal/internal/database"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     zerolog.Logger
}

// Setup setups the routes handled by patients context and returns the service, which is the
// patients Reader of the appointments context.
func Setup(router *chi.Mux, logger zerolog.Logger, authorizer auth.Authorizer, dbConn database.Connection) Service {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(dbConn)}

	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRole(authorizer, auth.PatientRole))
		group.Post("/api/v1/patients/profile", handler.CreateProfile)
		group.Get("/api/v1/patients/profile", handler.GetProfile)
		group.Put("/api/v1/patients/profile", handler.UpdateProfile)
	})

	return handler.service
}

func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.RequestError(h.logger, r, err)
	apierrors.Write(w, err)
}

func (h httpHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	profile := new(ProfileRequest)
	if err = validation.Decode(r.Body, profile); err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.service.CreateProfile(ctx, user, *profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(patient)
}

func (h httpHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	patient, err := h.service.GetProfile(ctx, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(patient)
}

func (h httpHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	profile := new(ProfileRequest)
	if err = validation.Decode(r.Body, profile); err != nil {
		h.writeError(w, r, err)
		return
	}
	patient, err := h.service.UpdateProfile(ctx, user, *profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(patient)
}
