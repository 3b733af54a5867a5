package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/justinabrahms/chesspvp/internal/chess"
)

var (
	// ErrSeatsDisabled is returned by an Issuer without a secret.
	ErrSeatsDisabled = errors.New("seat tokens are disabled")

	// ErrWrongGame is returned when a token was issued for another game.
	ErrWrongGame = errors.New("token was issued for a different game")
)

const issuerName = "chesspvp-relay"

// SeatClaims binds a bearer to one color in one game.
type SeatClaims struct {
	GameID string      `json:"gid"`
	Color  chess.Color `json:"color"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies seat tokens with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer for secret. A zero ttl means tokens never
// expire. An empty secret yields an issuer that is disabled.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Enabled reports whether seat checks should be enforced.
func (i *Issuer) Enabled() bool {
	return i != nil && len(i.secret) > 0
}

// IssueSeat signs a token that lets its bearer move color's pieces in gameID.
func (i *Issuer) IssueSeat(gameID string, color chess.Color) (string, error) {
	if !i.Enabled() {
		return "", ErrSeatsDisabled
	}

	now := i.now()
	claims := SeatClaims{
		GameID: gameID,
		Color:  color,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuerName,
			Subject:  gameID + "/" + color.String(),
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign seat token: %w", err)
	}
	return signed, nil
}

// VerifySeat checks the token signature, expiry and game binding and returns
// the color it grants.
func (i *Issuer) VerifySeat(token, gameID string) (chess.Color, error) {
	if !i.Enabled() {
		return chess.White, ErrSeatsDisabled
	}

	var claims SeatClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return chess.White, fmt.Errorf("invalid seat token: %w", err)
	}

	if claims.GameID != gameID {
		return chess.White, ErrWrongGame
	}
	return claims.Color, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
