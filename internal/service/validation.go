package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/authcore/authcore/internal/model"
)

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	PhoneNo   string
	Location  string
	Country   string
}

// normalize trims surrounding whitespace from every field except Password.
func (in RegisterInput) normalize() RegisterInput {
	return RegisterInput{
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		PhoneNo:   strings.TrimSpace(in.PhoneNo),
		Location:  strings.TrimSpace(in.Location),
		Country:   strings.TrimSpace(in.Country),
	}
}

// validate expects normalized input.
func (in RegisterInput) validate() error {
	if in.Email == "" || isBlank(in.Password) || in.FirstName == "" || in.LastName == "" {
		return ErrMissingFields
	}

	limits := []struct {
		field string
		value string
		max   int
	}{
		{"email", in.Email, model.MaxEmailLength},
		{"first_name", in.FirstName, model.MaxNameLength},
		{"last_name", in.LastName, model.MaxNameLength},
		{"phone_no", in.PhoneNo, model.MaxPhoneNoLength},
		{"location", in.Location, model.MaxLocationLength},
		{"country", in.Country, model.MaxCountryLength},
	}
	for _, l := range limits {
		if utf8.RuneCountInString(l.value) > l.max {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrFieldTooLong, l.field, l.max)
		}
	}

	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
