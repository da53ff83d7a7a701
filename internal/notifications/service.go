// Package notifications contains the services used to email patients about their appointments
// and to send the next-day reminders.
package notifications

import (
	"context"
	"fmt"
	"time"

	"clinic-portal/internal/auth"
	"clinic-portal/internal/configs"
	"clinic-portal/internal/database"
	"clinic-portal/internal/metrics"
	"clinic-portal/internal/schedule"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service determines the methods used to notify patients.
type Service interface {

	// Notify emails the patient of the appointment about the event.
	Notify(ctx context.Context, kind Kind, appointmentUUID uuid.UUID) error

	// Resend notifies the patient again on behalf of the doctor of the appointment.
	Resend(ctx context.Context, user auth.User, request ResendRequest) error

	// SendReminders reminds every patient with an approved appointment tomorrow. A failed
	// delivery never stops the batch.
	SendReminders(ctx context.Context) (*ReminderSummary, error)
}

type defaultService struct {
	repository  Repository
	sender      Sender
	marker      Marker
	logger      zerolog.Logger
	location    *time.Location
	reminderTTL time.Duration
	now         func() time.Time
}

// NewService creates a new notifications service. The marker may be nil, in which case
// reminders are not deduplicated across runs.
func NewService(config configs.Config, dbConn database.Connection, sender Sender, marker Marker, logger zerolog.Logger) Service {
	return &defaultService{
		repository:  newRepository(dbConn),
		sender:      sender,
		marker:      marker,
		logger:      logger,
		location:    config.Location(),
		reminderTTL: config.ReminderTTL(),
		now:         time.Now,
	}
}

func (d defaultService) deliver(ctx context.Context, kind Kind, details Details) error {
	message, err := render(kind, details)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, message)
}

func (d defaultService) Notify(ctx context.Context, kind Kind, appointmentUUID uuid.UUID) error {
	details, err := d.repository.FindDetails(ctx, appointmentUUID)
	if err != nil {
		return err
	}
	if details == nil {
		return fmt.Errorf("%s: %s", ErrAppointmentNotFound, appointmentUUID)
	}
	if err = d.deliver(ctx, kind, *details); err != nil {
		return fmt.Errorf("could not notify %s about %s: %w", kind, appointmentUUID, err)
	}
	return nil
}

func (d defaultService) Resend(ctx context.Context, user auth.User, request ResendRequest) error {
	if user.Role != auth.DoctorRole {
		return newForbiddenError()
	}
	details, err := d.repository.FindDetails(ctx, request.AppointmentID)
	if err != nil {
		return fmt.Errorf("an unexpected error occurred: %w", err)
	}
	if details == nil {
		return newNotFoundError()
	}
	if details.DoctorUserID != user.ID {
		return newForbiddenError()
	}
	if err = d.deliver(ctx, request.Type, *details); err != nil {
		return newDeliveryError(err.Error())
	}
	return nil
}

func (d defaultService) SendReminders(ctx context.Context) (*ReminderSummary, error) {
	tomorrow := schedule.Today(d.now(), d.location).AddDate(0, 0, 1)
	due, err := d.repository.ListDueReminders(ctx, tomorrow)
	if err != nil {
		return nil, err
	}
	summary := &ReminderSummary{Date: tomorrow.Format(schedule.DateLayout), Total: len(due)}
	for _, details := range due {
		switch d.remind(ctx, *details) {
		case metrics.ReminderSent:
			summary.Successful++
		case metrics.ReminderSkipped:
			summary.Skipped++
		default:
			summary.Failed++
		}
	}
	d.logger.Info().
		Str("date", summary.Date).
		Int("total", summary.Total).
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("reminders dispatched")
	return summary, nil
}

// remind sends one reminder and returns its result.
func (d defaultService) remind(ctx context.Context, details Details) string {
	key := reminderKey(details)
	if d.marker != nil {
		marked, err := d.marker.Mark(ctx, key, d.reminderTTL)
		if err != nil {
			d.logger.Warn().Err(err).Str("appointment", details.AppointmentUUID.String()).Msg("could not mark the reminder")
		} else if !marked {
			metrics.ObserveReminder(metrics.ReminderSkipped)
			return metrics.ReminderSkipped
		}
	}
	if err := d.deliver(ctx, KindReminder, details); err != nil {
		d.logger.Error().Err(err).
			Str("appointment", details.AppointmentUUID.String()).
			Str("to", details.PatientEmail).
			Msg("could not send the reminder")
		if d.marker != nil {
			if err = d.marker.Unmark(ctx, key); err != nil {
				d.logger.Warn().Err(err).Str("appointment", details.AppointmentUUID.String()).Msg("could not unmark the reminder")
			}
		}
		metrics.ObserveReminder(metrics.ReminderFailed)
		return metrics.ReminderFailed
	}
	metrics.ObserveReminder(metrics.ReminderSent)
	return metrics.ReminderSent
}
