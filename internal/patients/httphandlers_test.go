package patients

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"clinic-portal/internal/auth"
	"clinic-portal/internal/logging"
	"clinic-portal/internal/mock"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	logger       = logging.Nop()
	patientRow   = []string{"id", "uuid", "user_id", "name", "age", "gender", "height", "weight", "blood_group", "allergies", "medical_history", "emergency_contact_name", "emergency_contact_phone", "emergency_contact_relation"}
	validProfile = `{"name":"Maria Souza","age":34,"gender":"female","height":165.5,"weight":61,"blood_group":"O+","allergies":["penicillin"],"emergency_contact":{"name":"Joao Souza","phone":"+5511999990000","relation":"husband"}}`
)

type mockAuthorizer struct {
	mockValidateToken        func(ctx context.Context, token string) (*auth.User, error)
	mockRefreshTokens        func(ctx context.Context, tokens auth.Tokens) (*auth.Tokens, error)
	mockGetAuthenticatedUser func(ctx context.Context) (auth.User, error)
}

func (m mockAuthorizer) ValidateToken(ctx context.Context, token string) (*auth.User, error) {
	return m.mockValidateToken(ctx, token)
}

func (m mockAuthorizer) RefreshTokens(ctx context.Context, tokens auth.Tokens) (*auth.Tokens, error) {
	return m.mockRefreshTokens(ctx, tokens)
}

func (m mockAuthorizer) GetAuthenticatedUser(ctx context.Context) (auth.User, error) {
	return m.mockGetAuthenticatedUser(ctx)
}

func mockPatientUser() *auth.User {
	return &auth.User{
		ID:    7,
		UUID:  uuid.New(),
		Email: "patient@clinic.com",
		Role:  auth.PatientRole,
	}
}

func mockDoctorUser() *auth.User {
	return &auth.User{
		ID:    1,
		UUID:  uuid.New(),
		Email: "doctor@clinic.com",
		Role:  auth.DoctorRole,
	}
}

func authorizerFor(user *auth.User) mockAuthorizer {
	return mockAuthorizer{
		mockValidateToken: func(ctx context.Context, token string) (*auth.User, error) {
			return user, nil
		},
		mockGetAuthenticatedUser: func(ctx context.Context) (auth.User, error) {
			return *user, nil
		},
	}
}

func patientRows() *sqlmock.Rows {
	return sqlmock.NewRows(patientRow).AddRow(3, uuid.New().String(), 7, "Maria Souza", 34, "female", "165.5", "61.0", "O+", "{penicillin}", "{}", "Joao Souza", "+5511999990000", "husband")
}

func withFindPatientByUserIDResult(rows *sqlmock.Rows) mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findPatientByUserIDQuery)).WithArgs(7).WillReturnRows(rows)
	}
}

func withFindPatientByUserIDError() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(findPatientByUserIDQuery)).WithArgs(7).WillReturnError(sql.ErrConnDone)
	}
}

func withInsertPatientResult() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectBegin()
		dbConn.SQLMock.ExpectQuery(regexp.QuoteMeta(insertPatientQuery)).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(markProfileCompleteQuery)).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
		dbConn.SQLMock.ExpectCommit()
	}
}

func withUpdatePatientResult() mock.DBResultOption {
	return func(dbConn mock.Connection) {
		dbConn.SQLMock.ExpectExec(regexp.QuoteMeta(updatePatientQuery)).WillReturnResult(sqlmock.NewResult(0, 1))
	}
}

func TestProfile(t *testing.T) {
	type args struct {
		user          *auth.User
		method        string
		body          string
		dbMockOptions []mock.DBResultOption
	}
	tests := []struct {
		name string
		args args
		want int
	}{
		{
			name: "should create the health profile",
			args: args{
				user:   mockPatientUser(),
				method: "POST",
				body:   validProfile,
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDResult(sqlmock.NewRows(patientRow)),
					withInsertPatientResult(),
				},
			},
			want: http.StatusCreated,
		},
		{
			name: "should not create the health profile twice",
			args: args{
				user:   mockPatientUser(),
				method: "POST",
				body:   validProfile,
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDResult(patientRows()),
				},
			},
			want: http.StatusConflict,
		},
		{
			name: "should not create the health profile with an unknown blood group",
			args: args{
				user:   mockPatientUser(),
				method: "POST",
				body:   `{"name":"Maria Souza","age":34,"gender":"female","height":165.5,"weight":61,"blood_group":"C+","emergency_contact":{"name":"Joao Souza","phone":"+5511999990000","relation":"husband"}}`,
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not create the health profile with a short emergency phone",
			args: args{
				user:   mockPatientUser(),
				method: "POST",
				body:   `{"name":"Maria Souza","age":34,"gender":"female","height":165.5,"weight":61,"blood_group":"O+","emergency_contact":{"name":"Joao Souza","phone":"12345","relation":"husband"}}`,
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not create the health profile with a height out of range",
			args: args{
				user:   mockPatientUser(),
				method: "POST",
				body:   `{"name":"Maria Souza","age":34,"gender":"female","height":20,"weight":61,"blood_group":"O+","emergency_contact":{"name":"Joao Souza","phone":"+5511999990000","relation":"husband"}}`,
			},
			want: http.StatusBadRequest,
		},
		{
			name: "should not let a doctor manage a health profile",
			args: args{
				user:   mockDoctorUser(),
				method: "POST",
				body:   validProfile,
			},
			want: http.StatusForbidden,
		},
		{
			name: "should get the health profile",
			args: args{
				user:   mockPatientUser(),
				method: "GET",
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDResult(patientRows()),
				},
			},
			want: http.StatusOK,
		},
		{
			name: "should not get a missing health profile",
			args: args{
				user:   mockPatientUser(),
				method: "GET",
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDResult(sqlmock.NewRows(patientRow)),
				},
			},
			want: http.StatusNotFound,
		},
		{
			name: "should not get the health profile due to a database error",
			args: args{
				user:   mockPatientUser(),
				method: "GET",
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDError(),
				},
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "should update the health profile",
			args: args{
				user:   mockPatientUser(),
				method: "PUT",
				body:   validProfile,
				dbMockOptions: []mock.DBResultOption{
					withFindPatientByUserIDResult(patientRows()),
					withUpdatePatientResult(),
				},
			},
			want: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dbConn := mock.MustCreateOrderedConnectionMock()
			router := chi.NewRouter()
			Setup(router, logger, authorizerFor(tt.args.user), dbConn)

			mock.MockDBResults(dbConn, tt.args.dbMockOptions...)

			req, _ := http.NewRequest(tt.args.method, "/api/v1/patients/profile", bytes.NewBufferString(tt.args.body))
			req.Header.Add("Authorization", "Bearer testing")
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, req)

			if recorder.Code != tt.want {
				t.Errorf("response status is incorrect, got %d, want %d", recorder.Code, tt.want)
			}
			if err := dbConn.SQLMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestGetProfileBody(t *testing.T) {
	dbConn := mock.MustCreateConnectionMock()
	router := chi.NewRouter()
	Setup(router, logger, authorizerFor(mockPatientUser()), dbConn)
	mock.MockDBResults(dbConn, withFindPatientByUserIDResult(patientRows()))

	req, _ := http.NewRequest("GET", "/api/v1/patients/profile", nil)
	req.Header.Add("Authorization", "Bearer testing")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	patient := new(Patient)
	if err := json.NewDecoder(recorder.Body).Decode(patient); err != nil {
		t.Fatalf("could not decode the response: %v", err)
	}
	if patient.Height != 165.5 || patient.BloodGroup != "O+" {
		t.Errorf("unexpected patient %+v", patient)
	}
	if len(patient.Allergies) != 1 || patient.Allergies[0] != "penicillin" {
		t.Errorf("unexpected allergies %v", patient.Allergies)
	}
	if patient.EmergencyContact.Relation != "husband" {
		t.Errorf("unexpected emergency contact %+v", patient.EmergencyContact)
	}
}
