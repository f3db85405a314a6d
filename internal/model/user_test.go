package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestUser_ToProfile_OptionalFields(t *testing.T) {
	t.Parallel()

	user := &User{
		ID:           7,
		Email:        "a@x.com",
		PasswordHash: "$argon2id$secret",
		FirstName:    "A",
		LastName:     "B",
		Country:      "NZ",
	}

	profile := user.ToProfile()

	if profile.ID != 7 {
		t.Errorf("ID = %d, want 7", profile.ID)
	}
	if profile.PhoneNo != nil {
		t.Errorf("PhoneNo should be nil, got %q", *profile.PhoneNo)
	}
	if profile.Location != nil {
		t.Errorf("Location should be nil, got %q", *profile.Location)
	}
	if profile.Country == nil || *profile.Country != "NZ" {
		t.Errorf("Country = %v, want NZ", profile.Country)
	}
}

func TestUser_JSONOmitsPasswordHash(t *testing.T) {
	t.Parallel()

	user := &User{ID: 1, Email: "a@x.com", PasswordHash: "$argon2id$secret"}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "argon2id") {
		t.Errorf("password hash leaked into JSON: %s", data)
	}
}

func TestTokenClass_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		class TokenClass
		want  bool
	}{
		{TokenAccess, true},
		{TokenRefresh, true},
		{TokenClass(""), false},
		{TokenClass("id"), false},
	}

	for _, tt := range tests {
		if got := tt.class.IsValid(); got != tt.want {
			t.Errorf("TokenClass(%q).IsValid() = %v, want %v", tt.class, got, tt.want)
		}
	}
}
