package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer(testSecret, 0)

	tok, expiresAt, err := iss.Issue(Subject{
		UserID:           42,
		Role:             "admin",
		AuthType:         "tracker",
		ExternalUsername: "alice",
	})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if d := time.Until(expiresAt); d < DefaultTTL-time.Minute || d > DefaultTTL {
		t.Errorf("expiry in %v, want about %v", d, DefaultTTL)
	}

	claims, err := iss.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want %q", claims.Role, "admin")
	}
	if claims.AuthType != "tracker" {
		t.Errorf("AuthType = %q, want %q", claims.AuthType, "tracker")
	}
	if claims.ExternalUsername != "alice" {
		t.Errorf("ExternalUsername = %q, want %q", claims.ExternalUsername, "alice")
	}
	if claims.Subject != "42" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "42")
	}
	if claims.ID == "" {
		t.Error("expected token id")
	}
}

func TestVerifyEmpty(t *testing.T) {
	iss := NewIssuer(testSecret, 0)
	if _, err := iss.Verify(""); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyMalformed(t *testing.T) {
	iss := NewIssuer(testSecret, 0)
	if _, err := iss.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, _, err := NewIssuer(testSecret, 0).Issue(Subject{UserID: 1, Role: "member"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewIssuer([]byte("ffffffffffffffffffffffffffffffff"), 0)
	if _, err := other.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTampered(t *testing.T) {
	iss := NewIssuer(testSecret, 0)
	tok, _, _ := iss.Issue(Subject{UserID: 1, Role: "member"})

	parts := strings.Split(tok, ".")
	parts[2] = strings.Repeat("A", len(parts[2]))
	if _, err := iss.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	iss := NewIssuer(testSecret, time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	iss.now = func() time.Time { return issuedAt }

	tok, _, err := iss.Issue(Subject{UserID: 1, Role: "member"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	iss.now = time.Now
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	iss := NewIssuer(testSecret, 0)
	claims := Claims{
		UserID: 1,
		Role:   "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := iss.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
