package notifications

import (
	"net/http"

	"clinic-portal/internal/apierrors"
)

const (
	ErrAppointmentNotFound = "appointment not found"
	ErrAccessDenied        = "access denied"
	ErrUnknownKind         = "unknown notification type"
	ErrDeliveryFailed      = "the notification could not be delivered"
)

func newNotFoundError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeNotFound),
		apierrors.WithDetail(ErrAppointmentNotFound),
		apierrors.WithHTTPStatusCode(http.StatusNotFound),
	)
}

func newForbiddenError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeForbidden),
		apierrors.WithDetail(ErrAccessDenied),
		apierrors.WithHTTPStatusCode(http.StatusForbidden),
	)
}

func newDeliveryError(reason string) error {
	return apierrors.NewAPIError(
		apierrors.WithDetail(ErrDeliveryFailed),
		apierrors.WithReason(reason),
		apierrors.WithHTTPStatusCode(http.StatusBadGateway),
	)
}
