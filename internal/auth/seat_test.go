package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/justinabrahms/chesspvp/internal/chess"
)

func TestSeatRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)

	for _, color := range []chess.Color{chess.White, chess.Black} {
		token, err := issuer.IssueSeat("game-1", color)
		if err != nil {
			t.Fatalf("Failed to issue seat: %v", err)
		}

		// Verify token format (should have 3 parts)
		if parts := strings.Split(token, "."); len(parts) != 3 {
			t.Errorf("Invalid JWT format: expected 3 parts, got %d", len(parts))
		}

		got, err := issuer.VerifySeat(token, "game-1")
		if err != nil {
			t.Fatalf("Failed to verify seat: %v", err)
		}
		if got != color {
			t.Errorf("Expected %s seat, got %s", color, got)
		}
	}
}

func TestSeatRejections(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, err := issuer.IssueSeat("game-1", chess.Black)
	if err != nil {
		t.Fatalf("Failed to issue seat: %v", err)
	}

	// Test with wrong game
	if _, err := issuer.VerifySeat(token, "game-2"); !errors.Is(err, ErrWrongGame) {
		t.Errorf("Expected ErrWrongGame, got %v", err)
	}

	// Test with wrong secret
	other := NewIssuer("other-secret", time.Hour)
	if _, err := other.VerifySeat(token, "game-1"); !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Errorf("Expected signature error, got %v", err)
	}

	// Test with garbage
	if _, err := issuer.VerifySeat("not-a-token", "game-1"); err == nil {
		t.Error("Expected garbage token to be rejected")
	}
}

func TestSeatExpiry(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	issued := time.Now()
	issuer.now = func() time.Time { return issued }

	token, err := issuer.IssueSeat("game-1", chess.White)
	if err != nil {
		t.Fatalf("Failed to issue seat: %v", err)
	}

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := issuer.VerifySeat(token, "game-1"); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("Expected expired token error, got %v", err)
	}
}

func TestDisabledIssuer(t *testing.T) {
	issuer := NewIssuer("", time.Hour)

	if issuer.Enabled() {
		t.Error("Expected issuer without secret to be disabled")
	}
	if _, err := issuer.IssueSeat("game-1", chess.White); !errors.Is(err, ErrSeatsDisabled) {
		t.Errorf("Expected ErrSeatsDisabled, got %v", err)
	}

	var nilIssuer *Issuer
	if nilIssuer.Enabled() {
		t.Error("Expected nil issuer to be disabled")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer ", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
