package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	if _, err := HashPassword("abc"); !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected ErrPasswordTooShort, got %v", err)
	}
	hashed, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hashed, "password123") || CheckPassword(hashed, "password124") {
		t.Fatalf("bcrypt round trip failed")
	}
}

func TestHashTokenIsStable(t *testing.T) {
	a, b := HashToken("refresh"), HashToken("refresh")
	if a != b || len(a) != 64 {
		t.Fatalf("unexpected hashes %q %q", a, b)
	}
	if a == HashToken("refresh2") {
		t.Fatalf("different tokens share a hash")
	}
}

func TestRandomDigits(t *testing.T) {
	s, err := RandomDigits(5)
	if err != nil {
		t.Fatalf("digits: %v", err)
	}
	if len(s) != 5 || strings.Trim(s, "0123456789") != "" {
		t.Fatalf("unexpected digits %q", s)
	}
	if s, _ := RandomDigits(0); s != "" {
		t.Fatalf("expected empty string, got %q", s)
	}
}
