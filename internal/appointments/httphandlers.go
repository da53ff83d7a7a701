package appointments

import (
	"encoding/json"
	"net/http"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/auth"
	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"
	"clinic-portal/internal/doctors"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/patients"
	"clinic-portal/internal/schedule"
	"clinic-portal/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	patientPageSize = 10
	doctorPageSize  = 20
)

type httpHandler struct {
	authorizer auth.Authorizer
	service    Service
	logger     zerolog.Logger
}

// Setup setups the routes handled by appointments context.
func Setup(router *chi.Mux, logger zerolog.Logger, authorizer auth.Authorizer, config configs.Config, dbConn database.Connection,
	doctors doctors.Reader, patients patients.Reader, notifier Notifier) Service {
	service := NewService(config, dbConn, doctors, patients, notifier, logger)
	setupRoutes(router, logger, authorizer, service)
	return service
}

func setupRoutes(router *chi.Mux, logger zerolog.Logger, authorizer auth.Authorizer, service Service) {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: service}

	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))

		group.Group(func(patient chi.Router) {
			patient.Use(auth.AllowedRole(authorizer, auth.PatientRole))
			patient.Get("/api/v1/appointments/available-slots", handler.GetAvailableSlots)
			patient.Post("/api/v1/appointments", handler.BookAppointment)
			patient.Get("/api/v1/appointments", handler.ListPatientAppointments)
		})

		group.Group(func(owner chi.Router) {
			owner.Use(auth.AllowedRole(authorizer, auth.PatientRole, auth.DoctorRole))
			owner.Get("/api/v1/appointments/{appointmentUUID}", handler.GetAppointment)
			owner.Patch("/api/v1/appointments/{appointmentUUID}", handler.UpdateStatus)
		})

		group.Group(func(doctor chi.Router) {
			doctor.Use(auth.AllowedRole(authorizer, auth.DoctorRole))
			doctor.Post("/api/v1/appointments/reschedule", handler.Reschedule)
			doctor.Get("/api/v1/doctors/appointments", handler.ListDoctorAppointments)
			doctor.Get("/api/v1/doctors/calendar", handler.GetCalendar)
		})
	})
}

func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.RequestError(h.logger, r, err)
	apierrors.Write(w, err)
}

// authenticatedUser returns the user of the request, writing a 401 when there is none.
func (h httpHandler) authenticatedUser(w http.ResponseWriter, r *http.Request) (auth.User, bool) {
	user, err := h.authorizer.GetAuthenticatedUser(r.Context())
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return auth.User{}, false
	}
	return user, true
}

func parseUUID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, apierrors.NewValidationError(field, ErrInvalidIdentifier)
	}
	return id, nil
}

func parseStatus(value string) (Status, error) {
	if value == "" {
		return "", nil
	}
	for _, v := range Statuses {
		if string(v) == value {
			return v, nil
		}
	}
	return "", apierrors.NewValidationError("status", "invalid status")
}

func (h httpHandler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	doctorUUID, err := parseUUID("doctor_id", query.Get("doctor_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := schedule.ParseDate(query.Get("date"))
	if err != nil {
		h.writeError(w, r, apierrors.NewValidationError("date", "invalid date, expected YYYY-MM-DD"))
		return
	}
	slots, err := h.service.GetAvailableSlots(r.Context(), doctorUUID, date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(slots)
}

func (h httpHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	request := new(BookingRequest)
	if err := validation.Decode(r.Body, request); err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.BookAppointment(r.Context(), user, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) ListPatientAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	status, err := parseStatus(r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	params, err := pagination.FromRequest(r, patientPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.service.ListPatientAppointments(r.Context(), user, status, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(list)
}

func (h httpHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	appointmentUUID, err := parseUUID("appointmentUUID", chi.URLParam(r, "appointmentUUID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.GetAppointment(r.Context(), user, appointmentUUID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	appointmentUUID, err := parseUUID("appointmentUUID", chi.URLParam(r, "appointmentUUID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	update := new(StatusUpdate)
	if err = validation.Decode(r.Body, update); err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.UpdateStatus(r.Context(), user, appointmentUUID, *update)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	request := new(RescheduleRequest)
	if err := validation.Decode(r.Body, request); err != nil {
		h.writeError(w, r, err)
		return
	}
	appointment, err := h.service.Reschedule(r.Context(), user, *request)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(appointment)
}

func (h httpHandler) ListDoctorAppointments(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	status, err := parseStatus(query.Get("status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	filter := DoctorFilter{Status: status}
	if v := query.Get("date"); v != "" {
		date, err := schedule.ParseDate(v)
		if err != nil {
			h.writeError(w, r, apierrors.NewValidationError("date", "invalid date, expected YYYY-MM-DD"))
			return
		}
		filter.Date = &date
	}
	params, err := pagination.FromRequest(r, doctorPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.service.ListDoctorAppointments(r.Context(), user, filter, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(list)
}

func (h httpHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticatedUser(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	period, err := ParsePeriod(query.Get("month"), query.Get("year"), h.service.Today())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	calendar, err := h.service.GetCalendar(r.Context(), user, period)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_ = json.NewEncoder(w).Encode(calendar)
}
