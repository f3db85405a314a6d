// Package model defines domain entities for the application.
package model

import "time"

// Column limits for user fields.
const (
	MaxEmailLength    = 120
	MaxNameLength     = 50
	MaxPhoneNoLength  = 15
	MaxLocationLength = 100
	MaxCountryLength  = 50
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never serialize
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	PhoneNo      string    `json:"phone_no,omitempty"`
	Location     string    `json:"location,omitempty"`
	Country      string    `json:"country,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserProfile is the public view of a user returned by the profile endpoint.
type UserProfile struct {
	ID        int64   `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	PhoneNo   *string `json:"phone_no"`
	Location  *string `json:"location"`
	Country   *string `json:"country"`
}

// ToProfile converts a User to its public profile.
// Optional fields that were never set are reported as null.
func (u *User) ToProfile() UserProfile {
	return UserProfile{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		PhoneNo:   optional(u.PhoneNo),
		Location:  optional(u.Location),
		Country:   optional(u.Country),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
