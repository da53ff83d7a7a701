package notifications

import (
	"net/http"

	"clinic-portal/internal/apierrors"
	"clinic-portal/internal/auth"
	"clinic-portal/internal/configs"
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

// Setup setups the routes handled by notifications context and returns the service, which is
// the notifier of the appointments context.
func Setup(router *chi.Mux, logger zerolog.Logger, authorizer auth.Authorizer, config configs.Config, dbConn database.Connection,
	sender Sender, marker Marker) Service {
	handler := &httpHandler{logger: logger, authorizer: authorizer, service: NewService(config, dbConn, sender, marker, logger)}

	router.Group(func(group chi.Router) {
		group.Use(auth.JwtValidator(authorizer))
		group.Use(auth.AllowedRole(authorizer, auth.DoctorRole))
		group.Post("/api/v1/notifications", handler.Resend)
	})

	return handler.service
}

func (h httpHandler) Resend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := h.authorizer.GetAuthenticatedUser(ctx)
	if err != nil {
		logging.RequestError(h.logger, r, err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	request := new(ResendRequest)
	if err = validation.Decode(r.Body, request); err != nil {
		h.writeError(w, r, err)
		return
	}
	if !request.Type.IsValid() {
		h.writeError(w, r, apierrors.NewValidationError("type", ErrUnknownKind))
		return
	}
	if err = h.service.Resend(ctx, user, *request); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h httpHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logging.RequestError(h.logger, r, err)
	apierrors.Write(w, err)
}
