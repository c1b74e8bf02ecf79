package validator

import (
	"errors"
	"testing"
)

type signup struct {
	FullName    string `validate:"required"`
	PhoneNumber string `validate:"required,phone"`
	Password    string `validate:"required,password"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name       string
		in         signup
		wantFields []string
	}{
		{
			name: "valid",
			in:   signup{FullName: "Ada", PhoneNumber: "+14155550100", Password: "correct-horse"},
		},
		{
			name:       "phone without plus",
			in:         signup{FullName: "Ada", PhoneNumber: "14155550100", Password: "correct-horse"},
			wantFields: []string{"phone_number"},
		},
		{
			name:       "phone with leading zero country code",
			in:         signup{FullName: "Ada", PhoneNumber: "+0415555", Password: "correct-horse"},
			wantFields: []string{"phone_number"},
		},
		{
			name:       "missing name and short password",
			in:         signup{PhoneNumber: "+628123456789", Password: "short"},
			wantFields: []string{"full_name", "password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want V10ValidationError", err)
			}
			if len(verr.Values()) != len(tt.wantFields) {
				t.Fatalf("fields = %v, want %v", verr.Values(), tt.wantFields)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Values()[f]; !ok {
					t.Fatalf("field %q missing in %v", f, verr.Values())
				}
			}
		})
	}
}

func TestIsPhone(t *testing.T) {
	for in, want := range map[string]bool{
		"+14155550100":      true,
		"+12":               true,
		"+1234567890123456": false,
		"+1 415 555 0100":   false,
		"":                  false,
	} {
		if got := IsPhone(in); got != want {
			t.Errorf("IsPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestV10Validator_CustomMessages(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	err = v.Validate(signup{FullName: "Ada", PhoneNumber: "0812", Password: "short"})

	var verr V10ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Validate() error = %v, want V10ValidationError", err)
	}
	if got := verr["phone_number"]; got != "phone_number must be an E.164 phone number such as +14155550100" {
		t.Fatalf("phone message = %q", got)
	}
	if got := verr["password"]; got != "password must be 8-72 characters" {
		t.Fatalf("password message = %q", got)
	}
}
