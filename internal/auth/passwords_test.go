package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatalf("hash must not equal plaintext")
	}

	if !VerifyPassword(hash, "correct horse battery staple") {
		t.Fatalf("expected correct password to verify")
	}
	if VerifyPassword(hash, "wrong password") {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashPasswordRejectsOverlongInput(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73)); err == nil {
		t.Fatalf("expected error for password longer than 72 bytes")
	}
}

func TestVerifyPasswordGarbageHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "anything") {
		t.Fatalf("expected garbage hash to fail verification")
	}
}
