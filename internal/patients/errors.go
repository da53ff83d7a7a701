package patients

import (
	"net/http"

	"clinic-portal/internal/apierrors"
)

const (
	ErrProfileNotFound      = "patient profile not found"
	ErrProfileAlreadyExists = "profile already exists"
	ErrOnlyPatientCanManage = "only patients can manage a patient profile"
)

func newProfileNotFoundError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeNotFound),
		apierrors.WithDetail(ErrProfileNotFound),
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
		apierrors.WithDetail(ErrOnlyPatientCanManage),
		apierrors.WithHTTPStatusCode(http.StatusForbidden),
	)
}
