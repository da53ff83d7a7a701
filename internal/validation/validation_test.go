package validation

import (
	"errors"
	"strings"
	"testing"

	"clinic-portal/internal/apierrors"
)

type contact struct {
	Phone string `json:"phone" validate:"required,min=10"`
}

type request struct {
	Date    string  `json:"date" validate:"required,isodate"`
	Slot    string  `json:"time_slot" validate:"required,timelabel"`
	Day     string  `json:"day,omitempty" validate:"omitempty,weekday"`
	Code    string  `json:"code,omitempty" validate:"omitempty,maxbytes=4"`
	Contact contact `json:"contact"`
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name: "should decode a valid body",
			body: `{"date":"2030-01-07","time_slot":"09:00","day":"monday","contact":{"phone":"0123456789"}}`,
		},
		{
			name:      "should refuse unknown fields",
			body:      `{"date":"2030-01-07","time_slot":"09:00","contact":{"phone":"0123456789"},"admin":true}`,
			wantField: "body",
		},
		{
			name:      "should refuse a malformed date",
			body:      `{"date":"07/01/2030","time_slot":"09:00","contact":{"phone":"0123456789"}}`,
			wantField: "date",
		},
		{
			name:      "should refuse a label outside the enumeration",
			body:      `{"date":"2030-01-07","time_slot":"09:10","contact":{"phone":"0123456789"}}`,
			wantField: "time_slot",
		},
		{
			name:      "should refuse a weekend day",
			body:      `{"date":"2030-01-07","time_slot":"09:00","day":"sunday","contact":{"phone":"0123456789"}}`,
			wantField: "day",
		},
		{
			name:      "should count bytes rather than runes",
			body:      `{"date":"2030-01-07","time_slot":"09:00","code":"ééé","contact":{"phone":"0123456789"}}`,
			wantField: "code",
		},
		{
			name:      "should report nested fields by json path",
			body:      `{"date":"2030-01-07","time_slot":"09:00","contact":{"phone":"123"}}`,
			wantField: "contact.phone",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Decode(strings.NewReader(tt.body), &request{})
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				return
			}
			var validationErr *apierrors.ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Decode() error = %v, want a validation error", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("Decode() field = %q, want %q", validationErr.Field, tt.wantField)
			}
		})
	}
}
