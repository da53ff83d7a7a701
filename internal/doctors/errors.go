package doctors

import (
	"net/http"

	"clinic-portal/internal/apierrors"
)

const (
	ErrDoctorNotFound       = "doctor not found"
	ErrProfileNotFound      = "doctor profile not found"
	ErrProfileAlreadyExists = "profile already exists"
	ErrOnlyDoctorCanManage  = "only doctors can manage a doctor profile"
	ErrInvalidIdentifier    = "invalid identifier"
)

func newNotFoundError(detail string) error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeNotFound),
		apierrors.WithDetail(detail),
		apierrors.WithHTTPStatusCode(http.StatusNotFound),
	)
}

func newProfileAlreadyExistsError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeConflict),
		apierrors.WithDetail(ErrProfileAlreadyExists),
		apierrors.WithHTTPStatusCode(http.StatusConflict),
	)
}

func newForbiddenError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeForbidden),
		apierrors.WithDetail(ErrOnlyDoctorCanManage),
		apierrors.WithHTTPStatusCode(http.StatusForbidden),
	)
}
