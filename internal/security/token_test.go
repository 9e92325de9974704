package security

import (
	"testing"
	"time"
)

func TestMakeAndParseSessionToken(t *testing.T) {
	raw, err := MakeSessionToken("secret", "sess-1", "admin-1", time.Hour)
	if err != nil {
		t.Fatalf("MakeSessionToken: %v", err)
	}

	claims, errParse := ParseSessionToken("secret", raw)
	if errParse != nil {
		t.Fatalf("ParseSessionToken: %v", errParse)
	}
	if claims.SessionKey != "sess-1" {
		t.Fatalf("expected session key sess-1, got %q", claims.SessionKey)
	}
	if claims.AdminID != "admin-1" {
		t.Fatalf("expected admin id admin-1, got %q", claims.AdminID)
	}
}

func TestParseSessionToken_WrongSecret(t *testing.T) {
	raw, err := MakeSessionToken("secret", "sess-1", "admin-1", time.Hour)
	if err != nil {
		t.Fatalf("MakeSessionToken: %v", err)
	}
	if _, errParse := ParseSessionToken("other", raw); errParse != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestMakeSessionToken_RejectsNonPositiveExpiry(t *testing.T) {
	if _, err := MakeSessionToken("secret", "sess-1", "admin-1", -time.Minute); err == nil {
		t.Fatalf("expected error for negative expiry")
	}
}

func TestMakeSessionToken_EmptySecret(t *testing.T) {
	if _, err := MakeSessionToken("", "sess-1", "admin-1", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
