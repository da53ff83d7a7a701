package auth

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"clinic-portal/internal/configs"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// bcrypt hash of "test"
const hashedTestPassword = "$2a$10$1Q/8dWTn4AsoKm0SIVl8LeBf8x0jNPf7Wj92Ywmk07XI.9s95b/eK"

var (
	logger      = logging.Nop()
	userColumns = []string{"id", "uuid", "email", "role", "is_profile_complete"}
	patient     = User{ID: 1, UUID: uuid.MustParse("0b7e8c1e-3f4a-4d5b-8c6d-7e8f9a0b1c2d"), Email: "patient@clinic.com", Role: PatientRole}
)

type mockAuthorizer struct {
	mockValidateToken        func(ctx context.Context, token string) (*User, error)
	mockRefreshTokens        func(ctx context.Context, tokens Tokens) (*Tokens, error)
	mockGetAuthenticatedUser func(ctx context.Context) (User, error)
}

func (m mockAuthorizer) ValidateToken(ctx context.Context, token string) (*User, error) {
	return m.mockValidateToken(ctx, token)
}

func (m mockAuthorizer) RefreshTokens(ctx context.Context, tokens Tokens) (*Tokens, error) {
	return m.mockRefreshTokens(ctx, tokens)
}

func (m mockAuthorizer) GetAuthenticatedUser(ctx context.Context) (User, error) {
	return m.mockGetAuthenticatedUser(ctx)
}

func patientRows() *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(patient.ID, patient.UUID.String(), patient.Email, string(patient.Role), false)
}

func withUserQueryResult(query string, rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	}
}

func withUserQueryError(query string) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(query)).WithArgs(sqlmock.AnyArg()).WillReturnError(sql.ErrConnDone)
	}
}

func withInsertUserResult(err error) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		expectation := dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(insertUserQuery)).
			WithArgs(sqlmock.AnyArg(), "new@clinic.com", sqlmock.AnyArg(), sqlmock.AnyArg())
		if err != nil {
			expectation.WillReturnError(err)
			return
		}
		expectation.WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	}
}

func newRouter(config configs.Config, dbConn mock.Connection) *chi.Mux {
	router := chi.NewRouter()
	Setup(router, logger, config, dbConn)
	return router
}

func serve(router *chi.Mux, method, path, authorization string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, bytes.NewBuffer(body))
	if authorization != "" {
		req.Header.Add("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthenticate(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	passwordRows := func(hash interface{}) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "password"}).AddRow(1, hash)
	}
	tests := []struct {
		name          string
		body          string
		dbMockOptions []mock.DBResultOption
		want          int
	}{
		{
			name: "should authenticate the user",
			body: `{"email":"patient@clinic.com","password":"test"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, patientRows()),
				withUserQueryResult(checkUserPasswordQuery, passwordRows(hashedTestPassword)),
			},
			want: http.StatusOK,
		},
		{
			name:          "should not authenticate an unknown user",
			body:          `{"email":"nobody@clinic.com","password":"test"}`,
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByEmailQuery, sqlmock.NewRows(userColumns))},
			want:          http.StatusUnauthorized,
		},
		{
			name: "should not authenticate with a wrong password",
			body: `{"email":"patient@clinic.com","password":"wrong"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, patientRows()),
				withUserQueryResult(checkUserPasswordQuery, passwordRows(hashedTestPassword)),
			},
			want: http.StatusUnauthorized,
		},
		{
			name:          "should not authenticate due to a database error while searching for the user",
			body:          `{"email":"patient@clinic.com","password":"test"}`,
			dbMockOptions: []mock.DBResultOption{withUserQueryError(findUserByEmailQuery)},
			want:          http.StatusInternalServerError,
		},
		{
			name: "should not authenticate due to a database error while reading the password",
			body: `{"email":"patient@clinic.com","password":"test"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, patientRows()),
				withUserQueryError(checkUserPasswordQuery),
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "should not authenticate with a malformed user row",
			body: `{"email":"patient@clinic.com","password":"test"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, sqlmock.NewRows(userColumns).AddRow(-1, false, "patient@clinic.com", "patient", false)),
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "should not authenticate without an email",
			body: `{"password":"test"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "should not authenticate without a password",
			body: `{"email":"patient@clinic.com"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "should not authenticate with a malformed body",
			body: `{"email":`,
			want: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateConnectionMock()
			router := newRouter(config, dbConn)
			mock.MockDBResults(dbConn, tt.dbMockOptions...)

			recorder := serve(router, "POST", "/api/v1/auth/login", "", []byte(tt.body))

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if tt.want != http.StatusOK {
				return
			}
			tokens := new(Tokens)
			if err := json.NewDecoder(recorder.Body).Decode(tokens); err != nil {
				t.Fatalf("could not decode the tokens: %v", err)
			}
			if _, err := VerifyToken(tokens.AccessToken, config.PrivateKey().PublicKey, AccessToken); err != nil {
				t.Errorf("the access token is not valid: %v", err)
			}
		})
	}
}

func TestGetAuthenticatedUser(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	valid := "Bearer " + MustIssueTokens(config.PrivateKey(), patient).AccessToken
	tests := []struct {
		name          string
		authorization string
		dbMockOptions []mock.DBResultOption
		want          int
		wantResponse  string
	}{
		{
			name:          "should get the authenticated user",
			authorization: valid,
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByUUIDQuery, patientRows())},
			want:          http.StatusOK,
			wantResponse:  "{\"uuid\":\"0b7e8c1e-3f4a-4d5b-8c6d-7e8f9a0b1c2d\",\"email\":\"patient@clinic.com\",\"role\":\"patient\",\"is_profile_complete\":false}\n",
		},
		{
			name:          "should not get a user that no longer exists",
			authorization: valid,
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByUUIDQuery, sqlmock.NewRows(userColumns))},
			want:          http.StatusUnauthorized,
		},
		{
			name:          "should not get the user due to a database error",
			authorization: valid,
			dbMockOptions: []mock.DBResultOption{withUserQueryError(findUserByUUIDQuery)},
			want:          http.StatusUnauthorized,
		},
		{
			name: "should not get the user without the authorization header",
			want: http.StatusUnauthorized,
		},
		{
			name:          "should not get the user with an expired token",
			authorization: "Bearer " + MustIssueTokens(config.PrivateKey(), patient, ExpiringAt(time.Now().Add(-10*time.Hour))).AccessToken,
			want:          http.StatusUnauthorized,
		},
		{
			name:          "should not get the user with a refresh token",
			authorization: "Bearer " + MustIssueTokens(config.PrivateKey(), patient).RefreshToken,
			want:          http.StatusUnauthorized,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateConnectionMock()
			router := newRouter(config, dbConn)
			mock.MockDBResults(dbConn, tt.dbMockOptions...)

			recorder := serve(router, "GET", "/api/v1/auth/me", tt.authorization, nil)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if got := recorder.Body.String(); got != tt.wantResponse {
				t.Errorf("response body is incorrect, got %s, want %s", got, tt.wantResponse)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	tokens := MustIssueTokens(config.PrivateKey(), patient)
	expired := MustIssueTokens(config.PrivateKey(), patient, ExpiringAt(time.Now().Add(-10*time.Hour)))
	body := func(access, refresh, grantType string) []byte {
		content, _ := json.Marshal(Tokens{AccessToken: access, RefreshToken: refresh, GrantType: grantType})
		return content
	}
	tests := []struct {
		name          string
		body          []byte
		dbMockOptions []mock.DBResultOption
		want          int
	}{
		{
			name:          "should refresh the tokens",
			body:          body(tokens.AccessToken, tokens.RefreshToken, "refresh_token"),
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByUUIDQuery, patientRows())},
			want:          http.StatusOK,
		},
		{
			name: "should not refresh without the grant type",
			body: body(tokens.AccessToken, tokens.RefreshToken, ""),
			want: http.StatusBadRequest,
		},
		{
			name: "should not refresh with another grant type",
			body: body(tokens.AccessToken, tokens.RefreshToken, "password"),
			want: http.StatusBadRequest,
		},
		{
			name: "should not refresh without the refresh token",
			body: body(tokens.AccessToken, "", "refresh_token"),
			want: http.StatusBadRequest,
		},
		{
			name: "should not refresh without the access token",
			body: body("", tokens.RefreshToken, "refresh_token"),
			want: http.StatusBadRequest,
		},
		{
			name: "should not refresh with an invalid refresh token",
			body: body(tokens.AccessToken, "invalid", "refresh_token"),
			want: http.StatusUnauthorized,
		},
		{
			name: "should not refresh with an access token in place of the refresh token",
			body: body(tokens.AccessToken, tokens.AccessToken, "refresh_token"),
			want: http.StatusUnauthorized,
		},
		{
			name: "should not refresh with an expired refresh token",
			body: body(expired.AccessToken, expired.RefreshToken, "refresh_token"),
			want: http.StatusUnauthorized,
		},
		{
			name:          "should not refresh for a user that no longer exists",
			body:          body(tokens.AccessToken, tokens.RefreshToken, "refresh_token"),
			dbMockOptions: []mock.DBResultOption{withUserQueryResult(findUserByUUIDQuery, sqlmock.NewRows(userColumns))},
			want:          http.StatusUnauthorized,
		},
		{
			name:          "should not refresh due to a database error",
			body:          body(tokens.AccessToken, tokens.RefreshToken, "refresh_token"),
			dbMockOptions: []mock.DBResultOption{withUserQueryError(findUserByUUIDQuery)},
			want:          http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateConnectionMock()
			router := newRouter(config, dbConn)
			mock.MockDBResults(dbConn, tt.dbMockOptions...)

			recorder := serve(router, "PUT", "/api/v1/auth/token", "", tt.body)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	config := configs.MustLoad("./../../test/testdata/config_valid.json")
	tests := []struct {
		name          string
		body          string
		dbMockOptions []mock.DBResultOption
		want          int
	}{
		{
			name: "should register a new patient",
			body: `{"email":"New@Clinic.com","password":"secret1","role":"patient"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, sqlmock.NewRows(userColumns)),
				withInsertUserResult(nil),
			},
			want: http.StatusCreated,
		},
		{
			name: "should not register a taken email",
			body: `{"email":"new@clinic.com","password":"secret1","role":"doctor"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, sqlmock.NewRows(userColumns).AddRow(1, uuid.New().String(), "new@clinic.com", "doctor", true)),
			},
			want: http.StatusConflict,
		},
		{
			name: "should not register an email taken by a concurrent registration",
			body: `{"email":"new@clinic.com","password":"secret1","role":"doctor"}`,
			dbMockOptions: []mock.DBResultOption{
				withUserQueryResult(findUserByEmailQuery, sqlmock.NewRows(userColumns)),
				withInsertUserResult(&pq.Error{Code: "23505"}),
			},
			want: http.StatusConflict,
		},
		{
			name: "should not register a short password",
			body: `{"email":"new@clinic.com","password":"123","role":"patient"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "should not register a password longer than 72 bytes",
			body: `{"email":"new@clinic.com","password":"` + strings.Repeat("é", 50) + `","role":"patient"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "should not register an unknown role",
			body: `{"email":"new@clinic.com","password":"secret1","role":"admin"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "should not register with unknown fields",
			body: `{"email":"new@clinic.com","password":"secret1","role":"patient","is_admin":true}`,
			want: http.StatusBadRequest,
		},
		{
			name:          "should not register due to a database error",
			body:          `{"email":"new@clinic.com","password":"secret1","role":"patient"}`,
			dbMockOptions: []mock.DBResultOption{withUserQueryError(findUserByEmailQuery)},
			want:          http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateConnectionMock()
			router := newRouter(config, dbConn)
			mock.MockDBResults(dbConn, tt.dbMockOptions...)

			recorder := serve(router, "POST", "/api/v1/auth/register", "", []byte(tt.body))

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if err := dbConn.SQLMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %v", err)
			}
		})
	}
}
