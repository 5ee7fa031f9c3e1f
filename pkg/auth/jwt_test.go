package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/gatehouse/visitgate/pkg/auth"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.NewAccessToken(42, "frontdesk", "security", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	claims, err := auth.Parse(token, testSecret)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if claims.Sub != 42 {
		t.Errorf("expected sub 42, got %d", claims.Sub)
	}
	if claims.Username != "frontdesk" {
		t.Errorf("expected username frontdesk, got %q", claims.Username)
	}
	if claims.Role != "security" {
		t.Errorf("expected role security, got %q", claims.Role)
	}
}

func TestParseExpiredToken(t *testing.T) {
	token, err := auth.NewAccessToken(1, "admin", "admin", testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	if _, err := auth.Parse(token, testSecret); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseWrongSecret(t *testing.T) {
	token, err := auth.NewAccessToken(1, "admin", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	if _, err := auth.Parse(token, "other-secret"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseTamperedToken(t *testing.T) {
	token, err := auth.NewAccessToken(1, "admin", "admin", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := auth.Parse(tampered, testSecret); err == nil {
		t.Error("expected error for tampered token")
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := auth.Parse("not-a-token", testSecret); err == nil {
		t.Error("expected error for malformed token")
	}
}
