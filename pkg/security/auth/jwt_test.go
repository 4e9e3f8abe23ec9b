package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"seleniumrobot/infoserver/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Enabled:  true,
		Secret:   "0123456789abcdef0123",
		Issuer:   "infoserver",
		Audience: "robots",
		Leeway:   time.Second,
	}
}

func TestJWTValidator_Authenticate(t *testing.T) {
	cfg := testJWTConfig()
	validator := NewJWTValidator(cfg)

	token, err := IssueToken(cfg, "alice", false, []string{"variable.see_protected"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	p, err := validator.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if p.Name != "alice" {
		t.Errorf("Name = %q, want alice", p.Name)
	}
	if !p.Has(SeeProtected) {
		t.Error("Capability from token not granted")
	}
	if p.Has(ViewVariable) {
		t.Error("Unexpected capability granted")
	}
}

func TestJWTValidator_Rejects(t *testing.T) {
	cfg := testJWTConfig()
	validator := NewJWTValidator(cfg)

	otherSecret := cfg
	otherSecret.Secret = "another-secret-value-123"

	otherIssuer := cfg
	otherIssuer.Issuer = "someone-else"

	otherAudience := cfg
	otherAudience.Audience = "browsers"

	sign := func(c config.JWTConfig, subject string, ttl time.Duration) string {
		tok, err := IssueToken(c, subject, false, nil, ttl)
		if err != nil {
			t.Fatalf("IssueToken() error: %v", err)
		}
		return tok
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("signing none token: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-token"},
		{"wrong secret", sign(otherSecret, "alice", time.Hour)},
		{"expired", sign(cfg, "alice", -time.Hour)},
		{"wrong issuer", sign(otherIssuer, "alice", time.Hour)},
		{"wrong audience", sign(otherAudience, "alice", time.Hour)},
		{"no subject", sign(cfg, "", time.Hour)},
		{"none algorithm", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validator.Authenticate(tt.token)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Errorf("Authenticate() error = %v, want ErrInvalidCredential", err)
			}
		})
	}
}
