// Package appointments contains handlers, services and structures used to resolve the
// bookable slots of a doctor, book them and move appointments through their lifecycle.
package appointments

import (
	"context"
	"fmt"
	"time"

	"clinic-portal/internal/auth"
	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"
	"clinic-portal/internal/doctors"
	"clinic-portal/internal/metrics"
	"clinic-portal/internal/notifications"
	"clinic-portal/internal/pagination"
	"clinic-portal/internal/patients"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ReasonPastDate explains why a date before today cannot be booked.
const ReasonPastDate = "cannot book a date in the past"

const calendarSymptomsLength = 100

// Notifier notifies the patient of an appointment event. Failures never undo the event.
type Notifier interface {
	Notify(ctx context.Context, kind notifications.Kind, appointmentUUID uuid.UUID) error
}

// Booker determines the methods available to patients to find and book slots.
type Booker interface {

	// GetAvailableSlots resolves the bookable slots of the doctor on the date.
	GetAvailableSlots(ctx context.Context, doctorUUID uuid.UUID, date time.Time) (*AvailableSlots, error)

	// BookAppointment books a slot for the authenticated patient. The appointment is created
	// as pending.
	BookAppointment(ctx context.Context, user auth.User, request BookingRequest) (*Appointment, error)
}

// Manager determines the methods available to the owners of an appointment.
type Manager interface {

	// GetAppointment returns an appointment of the authenticated doctor or patient.
	GetAppointment(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) (*Appointment, error)

	// UpdateStatus applies a lifecycle transition, or attaches consultation notes.
	UpdateStatus(ctx context.Context, user auth.User, appointmentUUID uuid.UUID, update StatusUpdate) (*Appointment, error)

	// Reschedule moves an appointment of the authenticated doctor to another date and slot.
	Reschedule(ctx context.Context, user auth.User, request RescheduleRequest) (*Appointment, error)
}

// Lister determines the methods used to list appointments.
type Lister interface {

	// ListPatientAppointments lists the appointments of the authenticated patient.
	ListPatientAppointments(ctx context.Context, user auth.User, status Status, params pagination.Params) (*AppointmentList, error)

	// ListDoctorAppointments lists the appointments of the authenticated doctor.
	ListDoctorAppointments(ctx context.Context, user auth.User, filter DoctorFilter, params pagination.Params) (*AppointmentList, error)

	// GetCalendar groups the appointments of the authenticated doctor by date within the period.
	GetCalendar(ctx context.Context, user auth.User, period Period) (*Calendar, error)

	// Today returns the current calendar date of the clinic.
	Today() time.Time
}

// Service determines the methods used to manage the appointments.
type Service interface {
	Booker
	Manager
	Lister
}

type defaultService struct {
	repository Repository
	doctors    doctors.Reader
	patients   patients.Reader
	notifier   Notifier
	logger     zerolog.Logger
	maxPerDay  int
	location   *time.Location
	now        func() time.Time
}

// NewService creates a new appointments service.
func NewService(config configs.Config, dbConn database.Connection, doctors doctors.Reader, patients patients.Reader, notifier Notifier, logger zerolog.Logger) Service {
	return &defaultService{
		repository: newRepository(dbConn),
		doctors:    doctors,
		patients:   patients,
		notifier:   notifier,
		logger:     logger,
		maxPerDay:  config.MaxAppointmentsPerDay(),
		location:   config.Location(),
		now:        time.Now,
	}
}

// occupancy reads the load of a doctor's date from the store, ignoring one appointment when
// it is being moved.
type occupancy struct {
	ctx        context.Context
	repository Repository
	doctorID   int64
	date       time.Time
	excludeID  int64
}

func (o occupancy) CountActive() (int, error) {
	return o.repository.CountActive(o.ctx, o.doctorID, o.date, o.excludeID)
}

func (o occupancy) TakenSlots() ([]schedule.TimeLabel, error) {
	return o.repository.ListTakenSlots(o.ctx, o.doctorID, o.date, o.excludeID)
}

func (d defaultService) Today() time.Time {
	return schedule.Today(d.now(), d.location)
}

func (d defaultService) notify(ctx context.Context, kind notifications.Kind, appointment *Appointment) {
	if d.notifier == nil {
		return
	}
	if err := d.notifier.Notify(ctx, kind, appointment.UUID); err != nil {
		d.logger.Warn().Err(err).
			Str("kind", string(kind)).
			Str("appointment", appointment.UUID.String()).
			Msg("could not notify the patient")
	}
}

func (d defaultService) findDoctor(ctx context.Context, doctorUUID uuid.UUID) (*doctors.Doctor, error) {
	doctor, err := d.doctors.FindDoctorByUUID(ctx, doctorUUID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, newNotFoundError(ErrDoctorNotFound)
	}
	return doctor, nil
}

func (d defaultService) ownDoctor(ctx context.Context, user auth.User) (*doctors.Doctor, error) {
	if user.Role != auth.DoctorRole {
		return nil, newForbiddenError()
	}
	doctor, err := d.doctors.FindDoctorByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if doctor == nil {
		return nil, newNotFoundError(doctors.ErrProfileNotFound)
	}
	return doctor, nil
}

func (d defaultService) ownPatient(ctx context.Context, user auth.User) (*patients.Patient, error) {
	if user.Role != auth.PatientRole {
		return nil, newForbiddenError()
	}
	patient, err := d.patients.FindPatientByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, newNotFoundError(ErrPatientNotFound)
	}
	return patient, nil
}

// checkSlot applies the booking rules to the slot, ignoring the appointment identified by
// excludeID. It returns the refusal reason, or an empty string when the slot can be taken.
func (d defaultService) checkSlot(ctx context.Context, doctor *doctors.Doctor, date time.Time, label schedule.TimeLabel, excludeID int64) (string, error) {
	if date.Before(d.Today()) {
		return ReasonPastDate, nil
	}
	occ := occupancy{ctx: ctx, repository: d.repository, doctorID: doctor.ID, date: date, excludeID: excludeID}
	resolution, err := schedule.Resolve(doctor.Availability, date, occ, d.maxPerDay)
	if err != nil {
		return "", err
	}
	if reason := schedule.RefusalReason(doctor.Availability, resolution, label); reason != "" {
		return reason, nil
	}
	// recheck the triple and the cap against the store
	taken, err := d.repository.HasActiveAppointment(ctx, doctor.ID, date, label, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return schedule.ReasonSlotTaken, nil
	}
	count, err := occ.CountActive()
	if err != nil {
		return "", err
	}
	if count >= d.maxPerDay {
		return schedule.ReasonDailyCap, nil
	}
	return "", nil
}

func (d defaultService) GetAvailableSlots(ctx context.Context, doctorUUID uuid.UUID, date time.Time) (*AvailableSlots, error) {
	doctor, err := d.findDoctor(ctx, doctorUUID)
	if err != nil {
		return nil, err
	}
	date = schedule.StartOfDay(date)
	occ := occupancy{ctx: ctx, repository: d.repository, doctorID: doctor.ID, date: date}
	resolution, err := schedule.Resolve(doctor.Availability, date, occ, d.maxPerDay)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &AvailableSlots{Resolution: resolution, DoctorID: doctor.UUID, Date: date.Format(schedule.DateLayout)}, nil
}

func (d defaultService) BookAppointment(ctx context.Context, user auth.User, request BookingRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	patient, err := d.ownPatient(ctx, user)
	if err != nil {
		return nil, err
	}
	doctor, err := d.findDoctor(ctx, request.DoctorID)
	if err != nil {
		return nil, err
	}
	date := request.date()
	reason, err := d.checkSlot(ctx, doctor, date, request.TimeSlot, 0)
	if err != nil {
		metrics.ObserveBooking(metrics.BookingFailed)
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if reason != "" {
		metrics.ObserveBooking(metrics.BookingRefused)
		return nil, newSlotUnavailableError(reason)
	}

	appointment := &Appointment{
		UUID:         uuid.New(),
		DoctorID:     doctor.ID,
		DoctorUUID:   doctor.UUID,
		DoctorName:   doctor.Name,
		PatientID:    patient.ID,
		PatientUUID:  patient.UUID,
		PatientName:  patient.Name,
		Date:         date,
		TimeSlot:     request.TimeSlot,
		Mode:         request.Mode,
		Urgency:      request.Urgency,
		Symptoms:     request.Symptoms,
		Status:       StatusPending,
		FamilyMember: request.FamilyMember,
	}
	if err = d.repository.InsertAppointment(ctx, appointment); err != nil {
		if database.IsUniqueViolation(err) {
			metrics.ObserveBooking(metrics.BookingLostRace)
			return nil, newSlotUnavailableError(schedule.ReasonSlotTaken)
		}
		metrics.ObserveBooking(metrics.BookingFailed)
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	metrics.ObserveBooking(metrics.BookingCreated)
	d.notify(ctx, notifications.KindBooked, appointment)
	return appointment, nil
}

// actorOf resolves the side the user acts on the appointment, failing when the user is
// neither its doctor nor its patient.
func (d defaultService) actorOf(ctx context.Context, user auth.User, appointment *Appointment) (Actor, error) {
	switch user.Role {
	case auth.DoctorRole:
		doctor, err := d.ownDoctor(ctx, user)
		if err != nil {
			return "", err
		}
		if doctor.ID == appointment.DoctorID {
			return ActorDoctor, nil
		}
	case auth.PatientRole:
		patient, err := d.ownPatient(ctx, user)
		if err != nil {
			return "", err
		}
		if patient.ID == appointment.PatientID {
			return ActorPatient, nil
		}
	}
	return "", newForbiddenError()
}

func (d defaultService) findAppointment(ctx context.Context, appointmentUUID uuid.UUID) (*Appointment, error) {
	appointment, err := d.repository.FindAppointmentByUUID(ctx, appointmentUUID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if appointment == nil {
		return nil, newNotFoundError(ErrAppointmentNotFound)
	}
	return appointment, nil
}

func (d defaultService) GetAppointment(ctx context.Context, user auth.User, appointmentUUID uuid.UUID) (*Appointment, error) {
	appointment, err := d.findAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}
	if _, err = d.actorOf(ctx, user, appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (d defaultService) UpdateStatus(ctx context.Context, user auth.User, appointmentUUID uuid.UUID, update StatusUpdate) (*Appointment, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	appointment, err := d.findAppointment(ctx, appointmentUUID)
	if err != nil {
		return nil, err
	}
	actor, err := d.actorOf(ctx, user, appointment)
	if err != nil {
		return nil, err
	}

	from, to := appointment.Status, update.Status
	notesOnly := to == ""
	if notesOnly {
		to = from
	}
	if update.ConsultationNotes != nil {
		if actor != ActorDoctor {
			return nil, newNotesNotAllowedError()
		}
		if to != StatusCompleted {
			return nil, newInvalidTransitionError("consultation notes are attached to completed appointments")
		}
		appointment.ConsultationNotes = *update.ConsultationNotes
	}
	if !notesOnly {
		if err = Transition(actor, from, to); err != nil {
			return nil, err
		}
		if actor == ActorPatient && appointment.Date.Before(d.Today()) {
			return nil, newInvalidTransitionError(ErrAppointmentPassed)
		}
	}

	appointment.Status = to
	updated, err := d.repository.UpdateStatus(ctx, appointment, from)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if !updated {
		return nil, newInvalidTransitionError(ErrStatusChanged)
	}
	if notesOnly {
		return appointment, nil
	}
	metrics.ObserveTransition(string(to))
	switch to {
	case StatusApproved:
		d.notify(ctx, notifications.KindApproved, appointment)
	case StatusRejected:
		d.notify(ctx, notifications.KindRejected, appointment)
	case StatusCancelled:
		d.notify(ctx, notifications.KindCancelled, appointment)
	}
	return appointment, nil
}

func (d defaultService) Reschedule(ctx context.Context, user auth.User, request RescheduleRequest) (*Appointment, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}
	doctor, err := d.ownDoctor(ctx, user)
	if err != nil {
		return nil, err
	}
	appointment, err := d.findAppointment(ctx, request.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.DoctorID != doctor.ID {
		return nil, newForbiddenError()
	}
	if IsTerminal(appointment.Status) {
		return nil, newInvalidTransitionError(fmt.Sprintf("cannot reschedule a %s appointment", appointment.Status))
	}

	date := request.date()
	if date.Equal(appointment.Date) && request.NewTimeSlot == appointment.TimeSlot {
		return appointment, nil
	}
	reason, err := d.checkSlot(ctx, doctor, date, request.NewTimeSlot, appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if reason != "" {
		return nil, newSlotUnavailableError(reason)
	}

	previousDate, previousSlot := appointment.Date, appointment.TimeSlot
	appointment.Date, appointment.TimeSlot = date, request.NewTimeSlot
	updated, err := d.repository.UpdateSchedule(ctx, appointment)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newSlotUnavailableError(schedule.ReasonSlotTaken)
		}
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if !updated {
		return nil, newInvalidTransitionError(ErrStatusChanged)
	}
	appointment.PreviousDate, appointment.PreviousTimeSlot = &previousDate, previousSlot
	d.notify(ctx, notifications.KindRescheduled, appointment)
	return appointment, nil
}

func (d defaultService) ListPatientAppointments(ctx context.Context, user auth.User, status Status, params pagination.Params) (*AppointmentList, error) {
	patient, err := d.ownPatient(ctx, user)
	if err != nil {
		return nil, err
	}
	appointments, total, err := d.repository.ListPatientAppointments(ctx, patient.ID, status, params)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &AppointmentList{Appointments: appointments, Pagination: pagination.NewPage(params, total)}, nil
}

func (d defaultService) ListDoctorAppointments(ctx context.Context, user auth.User, filter DoctorFilter, params pagination.Params) (*AppointmentList, error) {
	doctor, err := d.ownDoctor(ctx, user)
	if err != nil {
		return nil, err
	}
	appointments, total, err := d.repository.ListDoctorAppointments(ctx, doctor.ID, filter, params)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return &AppointmentList{Appointments: appointments, Pagination: pagination.NewPage(params, total)}, nil
}

func (d defaultService) GetCalendar(ctx context.Context, user auth.User, period Period) (*Calendar, error) {
	doctor, err := d.ownDoctor(ctx, user)
	if err != nil {
		return nil, err
	}
	appointments, err := d.repository.ListAppointmentsBetween(ctx, doctor.ID, period.From, period.To)
	if err != nil {
		return nil, fmt.Errorf("an unexpected error occurred: %w", err)
	}
	return buildCalendar(period, appointments), nil
}
