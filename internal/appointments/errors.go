package appointments

import (
	"fmt"
	"net/http"

	"clinic-portal/internal/apierrors"
)

const (
	ErrAppointmentNotFound = "appointment not found"
	ErrDoctorNotFound      = "doctor not found"
	ErrPatientNotFound     = "patient profile not found"
	ErrSlotUnavailable     = "slot unavailable"
	ErrInvalidTransition   = "invalid status transition"
	ErrAccessDenied        = "access denied"
	ErrInvalidIdentifier   = "invalid identifier"
	ErrAppointmentPassed   = "the appointment date has passed"
	ErrNotesNotAllowed     = "only the doctor may attach consultation notes"
	ErrStatusChanged       = "the appointment was changed by another request"
)

func newNotFoundError(detail string) error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeNotFound),
		apierrors.WithDetail(detail),
		apierrors.WithHTTPStatusCode(http.StatusNotFound),
	)
}

func newSlotUnavailableError(reason string) error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeSlotUnavailable),
		apierrors.WithDetail(ErrSlotUnavailable),
		apierrors.WithReason(reason),
		apierrors.WithHTTPStatusCode(http.StatusConflict),
	)
}

func newForbiddenError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeForbidden),
		apierrors.WithDetail(ErrAccessDenied),
		apierrors.WithHTTPStatusCode(http.StatusForbidden),
	)
}

func newNotesNotAllowedError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeForbidden),
		apierrors.WithDetail(ErrAccessDenied),
		apierrors.WithReason(ErrNotesNotAllowed),
		apierrors.WithHTTPStatusCode(http.StatusForbidden),
	)
}

func newInvalidTransitionError(reason string) error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeInvalidTransition),
		apierrors.WithDetail(ErrInvalidTransition),
		apierrors.WithReason(reason),
		apierrors.WithHTTPStatusCode(http.StatusUnprocessableEntity),
	)
}

func transitionReason(from, to Status) string {
	return fmt.Sprintf("cannot move from %s to %s", from, to)
}
