package doctors

import (
	"encoding/json"
	"net/http"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/auth"
	"clinic-portal/internal/database"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const defaultPageSize = 10

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     zerolog.Logger
}

// Setup setups the routes handled by doctors context and returns the service, which is the
// doctors Reader of the appointments context.
func Setup(router *chi.Mux, logger zerolog.Logger, authorizer auth.Authorizer, dbConn database.Connection) Service {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(dbConn)}

	// public routes
	router.Group(func(group chi.Router) {
		group.Get("/api/v1/doctors", handler.ListDoctors)
		group.Get("/api/v1/doctors/{doctorUUID}", handler.GetDoctor)
	})

	// protected routes, only for doctors
	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRole(authorizer, auth.DoctorRole))
		group.Post("/api/v1/doctors/profile", handler.CreateProfile)
		group.Get("/api/v1/doctors/profile", handler.GetProfile)
		group.Put("/api/v1/doctors/profile", handler.UpdateProfile)
		group.Get("/api/v1/doctors/availability", handler.GetAvailability)
		group.Put("/api/v1/doctors/availability", handler.UpdateAvailability)
	})

	return handler.service
}

func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.RequestError(h.logger, r, err)
	apierrors.Write(w, err)
}

func (h httpHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r, defaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.service.ListDoctors(r.Context(), r.URL.Query().Get("speciality"), params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(list)
}

func (h httpHandler) GetDoctor(w http.ResponseWriter, r *http.Request) {
	doctorUUID, err := uuid.Parse(chi.URLParam(r, "doctorUUID"))
	if err != nil {
		h.writeError(w, r, apierrors.NewValidationError("doctorUUID", ErrInvalidIdentifier))
		return
	}
	doctor, err := h.service.FindDoctorByUUID(r.Context(), doctorUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if doctor == nil {
		h.writeError(w, r, newNotFoundError(ErrDoctorNotFound))
		return
	}
	_ = json.NewEncoder(w).Encode(doctor)
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
	doctor, err := h.service.CreateProfile(ctx, user, *profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(doctor)
}

func (h httpHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	doctor, err := h.service.GetProfile(ctx, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(doctor)
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
	doctor, err := h.service.UpdateProfile(ctx, user, *profile)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(doctor)
}

func (h httpHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	availability, err := h.service.GetAvailability(ctx, user)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(availability)
}

func (h httpHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	request := new(AvailabilityRequest)
	if err = validation.Decode(r.Body, request); err != nil {
		h.writeError(w, r, err)
		return
	}
	availability, err := h.service.UpdateAvailability(ctx, user, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(availability)
}
