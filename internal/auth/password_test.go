package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// testParams keeps hashing cheap; the format is identical to production.
var testParams = Argon2Params{Time: 1, MemoryKiB: 64, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHash_Format(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(Argon2Params{})

	hash, err := hasher.Hash("p1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// Verify PHC format: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
	if !strings.HasPrefix(hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", hash)
	}

	parts := strings.Split(hash, "$")
	if len(parts) != 6 {
		t.Fatalf("Hash should have 6 parts, got: %d", len(parts))
	}
	if parts[2] != "v=19" {
		t.Errorf("Expected v=19, got: %s", parts[2])
	}
	if parts[3] != "m=65536,t=3,p=4" {
		t.Errorf("Expected default params m=65536,t=3,p=4, got: %s", parts[3])
	}
}

func TestHash_Uniqueness(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)
	password := "the_same_password_12345"

	hash1, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	hash2, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	// Same password should produce different hashes (different salts)
	if hash1 == hash2 {
		t.Error("Same password should produce different hashes due to random salt")
	}

	if !hasher.Verify(hash1, password) || !hasher.Verify(hash2, password) {
		t.Error("Both hashes should verify correctly")
	}
}

func TestHash_FixedLengthForAnyInput(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)

	tests := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"short", "p1"},
		{"unicode", "pässwörd-密码"},
		{"long", strings.Repeat("x", 10_000)},
	}

	var length int
	for _, tt := range tests {
		hash, err := hasher.Hash(tt.password)
		if err != nil {
			t.Fatalf("%s: Hash failed: %v", tt.name, err)
		}
		if length == 0 {
			length = len(hash)
		}
		if len(hash) != length {
			t.Errorf("%s: hash length = %d, want %d", tt.name, len(hash), length)
		}
		if !hasher.Verify(hash, tt.password) {
			t.Errorf("%s: round trip should verify", tt.name)
		}
	}
}

func TestVerify_Incorrect(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)

	hash, err := hasher.Hash("p1")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}

	for _, candidate := range []string{"p2", "P1", "p1 ", "", "p"} {
		if hasher.Verify(hash, candidate) {
			t.Errorf("Verify(%q) should not match", candidate)
		}
	}
}

func TestCompare_InvalidHashFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		hash    string
		wantErr error
	}{
		{"empty", "", ErrInvalidHash},
		{"wrong format", "not-a-hash", ErrInvalidHash},
		{"wrong algorithm", "$scrypt$v=19$m=65536,t=3,p=4$salt$hash", ErrInvalidHash},
		{"missing parts", "$argon2id$v=19$m=65536", ErrInvalidHash},
		{"bad params", "$argon2id$v=19$m=x,t=y,p=z$c2FsdA$aGFzaA", ErrInvalidHash},
		{"wrong version", "$argon2id$v=18$m=65536,t=3,p=4$c29tZXNhbHRoZXJl$c29tZWhhc2hoZXJl", ErrIncompatibleVersion},
		{"broken bcrypt", "$2b$10$tooshort", ErrInvalidHash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			match, err := Compare(tt.hash, "password")
			if err != tt.wantErr {
				t.Errorf("Compare(%q) error = %v, want %v", tt.hash, err, tt.wantErr)
			}
			if match {
				t.Error("malformed hash should never match")
			}
		})
	}
}

func TestVerify_MalformedHashReturnsFalse(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(testParams)
	if hasher.Verify("garbage", "password") {
		t.Error("Verify should return false for a malformed hash")
	}
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	t.Parallel()

	legacy, err := bcrypt.GenerateFromPassword([]byte("p1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}

	hasher := NewPasswordHasher(testParams)
	if !hasher.Verify(string(legacy), "p1") {
		t.Error("legacy bcrypt hash should verify")
	}
	if hasher.Verify(string(legacy), "p2") {
		t.Error("legacy bcrypt hash should reject a wrong password")
	}
}
