package auth

import (
	"errors"
	"net/http"

	"clinic-portal/internal/apierrors"
)

const ErrEmailAlreadyRegistered = "email already registered"

// UnauthorizedError means the caller could not be authenticated. It is answered with a
// bare 401.
type UnauthorizedError struct{}

func NewUnauthorizedError() *UnauthorizedError {
	return &UnauthorizedError{}
}

func (UnauthorizedError) Error() string {
	return "not authorized"
}

// IsUnauthorized checks if err is, or wraps, an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var unauthorized *UnauthorizedError
	return errors.As(err, &unauthorized)
}

func newEmailAlreadyRegisteredError() error {
	return apierrors.NewAPIError(
		apierrors.WithCode(apierrors.CodeConflict),
		apierrors.WithDetail(ErrEmailAlreadyRegistered),
		apierrors.WithHTTPStatusCode(http.StatusConflict),
	)
}
