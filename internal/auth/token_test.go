package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authcore/authcore/internal/model"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T, now func() time.Time) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(TokenConfig{
		Secret:     testSecret,
		Issuer:     "authcore-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	return issuer
}

func TestNewTokenIssuer_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  TokenConfig
	}{
		{"missing secret", TokenConfig{AccessTTL: time.Minute, RefreshTTL: time.Hour}},
		{"zero access ttl", TokenConfig{Secret: testSecret, RefreshTTL: time.Hour}},
		{"negative refresh ttl", TokenConfig{Secret: testSecret, AccessTTL: time.Minute, RefreshTTL: -time.Hour}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewTokenIssuer(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIssueAndVerify_Access(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	token, issued, err := issuer.IssueAccessToken(42)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	claims, err := issuer.Verify(token, model.TokenAccess)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.JTI != issued.JTI {
		t.Errorf("JTI = %s, want %s", claims.JTI, issued.JTI)
	}
	if claims.Class != model.TokenAccess {
		t.Errorf("Class = %s, want access", claims.Class)
	}
	if !claims.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", claims.ExpiresAt, issued.ExpiresAt)
	}
}

func TestIssue_RefreshOutlivesAccess(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	_, access, err := issuer.IssueAccessToken(1)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	_, refresh, err := issuer.IssueRefreshToken(1)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	if !refresh.ExpiresAt.After(access.ExpiresAt) {
		t.Errorf("refresh expiry %v should be after access expiry %v", refresh.ExpiresAt, access.ExpiresAt)
	}
}

func TestVerify_WrongClass(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	refresh, _, err := issuer.IssueRefreshToken(1)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	if _, err := issuer.Verify(refresh, model.TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh token used as access: error = %v, want ErrInvalidToken", err)
	}

	access, _, err := issuer.IssueAccessToken(1)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if _, err := issuer.Verify(access, model.TokenRefresh); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access token used as refresh: error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	current := time.Now().Add(-2 * time.Hour)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return current
	}

	issuer := newTestIssuer(t, clock)
	token, _, err := issuer.IssueAccessToken(5)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	mu.Lock()
	current = time.Now()
	mu.Unlock()

	_, err = issuer.Verify(token, model.TokenAccess)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("error = %v, want ErrTokenExpired", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	token, _, err := issuer.IssueAccessToken(1)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	other, err := NewTokenIssuer(TokenConfig{
		Secret:     []byte("another-secret-another-secret-00"),
		Issuer:     "authcore-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}

	tests := []struct {
		name  string
		token string
		with  *TokenIssuer
	}{
		{"wrong secret", token, other},
		{"truncated signature", token[:len(token)-4], issuer},
		{"malformed", "not.a.jwt", issuer},
		{"empty", "", issuer},
	}

	for _, tt := range tests {
		if _, err := tt.with.Verify(tt.token, model.TokenAccess); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: error = %v, want ErrInvalidToken", tt.name, err)
		}
	}
}

func TestVerify_RejectsUnexpectedAlgorithm(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	now := time.Now()
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "authcore-test",
			Subject:   "1",
			ID:        "jti-none",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Class: model.TokenAccess,
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err := issuer.Verify(token, model.TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestVerify_WrongIssuer(t *testing.T) {
	t.Parallel()

	foreign, err := NewTokenIssuer(TokenConfig{
		Secret:     testSecret,
		Issuer:     "someone-else",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
	if err != nil {
		t.Fatalf("NewTokenIssuer: %v", err)
	}
	token, _, err := foreign.IssueAccessToken(1)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	if _, err := newTestIssuer(t, nil).Verify(token, model.TokenAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("error = %v, want ErrInvalidToken", err)
	}
}

func TestIssue_UniqueJTI(t *testing.T) {
	t.Parallel()

	issuer := newTestIssuer(t, nil)

	const workers = 8
	const perWorker = 50

	var mu sync.Mutex
	seen := make(map[string]bool, workers*perWorker)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, claims, err := issuer.IssueAccessToken(1)
				if err != nil {
					t.Errorf("IssueAccessToken: %v", err)
					return
				}
				mu.Lock()
				if seen[claims.JTI] {
					t.Errorf("duplicate jti %s", claims.JTI)
				}
				seen[claims.JTI] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("expected %d unique jtis, got %d", workers*perWorker, len(seen))
	}
}

func TestIssue_TokenDoesNotContainSecret(t *testing.T) {
	t.Parallel()

	token, _, err := newTestIssuer(t, nil).IssueAccessToken(1)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if strings.Contains(token, string(testSecret)) {
		t.Error("token must not embed the signing secret")
	}
}
