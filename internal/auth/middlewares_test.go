package auth

import (
	"context"
	"net/http"
	"testing"

	"clinic-portal/internal/configs"
	"clinic-portal/internal/mock"

	"github.com/go-chi/chi/v5"
)

func withRole(role Role) mockAuthorizer {
	return mockAuthorizer{
		mockGetAuthenticatedUser: func(ctx context.Context) (User, error) {
			return User{Email: "someone@clinic.com", Role: role}, nil
		},
	}
}

func TestAllowedRole(t *testing.T) {
	anonymous := mockAuthorizer{
		mockGetAuthenticatedUser: func(ctx context.Context) (User, error) {
			return User{}, NewUnauthorizedError()
		},
	}
	tests := []struct {
		name    string
		service Authorizer
		roles   []Role
		want    int
	}{
		{name: "should allow a patient on patient routes", service: withRole(PatientRole), roles: []Role{PatientRole}, want: http.StatusOK},
		{name: "should allow when any of the roles matches", service: withRole(DoctorRole), roles: []Role{PatientRole, DoctorRole}, want: http.StatusOK},
		{name: "should refuse a doctor on patient routes", service: withRole(DoctorRole), roles: []Role{PatientRole}, want: http.StatusForbidden},
		{name: "should refuse when no role is allowed", service: withRole(DoctorRole), want: http.StatusForbidden},
		{name: "should refuse an anonymous request", service: anonymous, roles: []Role{PatientRole}, want: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := chi.NewRouter()
			router.Use(AllowedRole(tt.service, tt.roles...))
			router.Get("/", func(w http.ResponseWriter, r *http.Request) {})

			recorder := serve(router, "GET", "/", "", nil)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestJwtValidator(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	tokens := MustIssueTokens(config.PrivateKey(), patient)
	tests := []struct {
		name          string
		authorization string
		dbMockOptions []mock.DBResultOption
		want          int
	}{
		{
			name:          "should store the token owner in the context",
			authorization: "Bearer " + tokens.AccessToken,
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByUUIDQuery, patientRows())},
			want:          http.StatusOK,
		},
		{
			name:          "should refuse a token without the bearer scheme",
			authorization: tokens.AccessToken,
			want:          http.StatusUnauthorized,
		},
		{
			name: "should refuse a request without the header",
			want: http.StatusUnauthorized,
		},
		{
			name:          "should refuse a refresh token",
			authorization: "Bearer " + tokens.RefreshToken,
			want:          http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateConnectionMock()
			mock.MockDBResults(dbConn, tt.dbMockOptions...)
			service := NewService(config, dbConn)

			router := chi.NewRouter()
			router.Use(JwtValidator(service))
			router.Get("/", func(w http.ResponseWriter, r *http.Request) {
				user, err := service.GetAuthenticatedUser(r.Context())
				if err != nil || user.UUID != patient.UUID {
					w.WriteHeader(http.StatusTeapot)
				}
			})

			recorder := serve(router, "GET", "/", tt.authorization, nil)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}
