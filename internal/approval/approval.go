// Package approval issues and verifies signed approval tickets.
//
// A ticket records which candidates were shown to a requester when the agent
// paused for approval. The pending state lives with the caller; presenting
// the ticket on the next turn restores the set of confirmed recipients.
package approval

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is how long a ticket stays valid when Config.TTL is zero.
const DefaultTTL = 24 * time.Hour

// Config holds the signing secret and ticket lifetime.
type Config struct {
	Secret string
	TTL    time.Duration
}

// Claims is the JWT payload of an approval ticket.
type Claims struct {
	MatchIDs []uuid.UUID `json:"match_ids"`
	jwt.RegisteredClaims
}

// Grant is a verified ticket. It can only be obtained from Issuer.Verify.
type Grant struct {
	requesterID uuid.UUID
	matchIDs    []uuid.UUID
	expiresAt   time.Time
}

// RequesterID returns the user the ticket was issued to.
func (g *Grant) RequesterID() uuid.UUID { return g.requesterID }

// MatchIDs returns a copy of the approved candidate ids.
func (g *Grant) MatchIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(g.matchIDs))
	copy(out, g.matchIDs)
	return out
}

// ExpiresAt returns the ticket expiry.
func (g *Grant) ExpiresAt() time.Time { return g.expiresAt }

// Issuer signs and verifies approval tickets with HS256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer. The secret is required.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("approval secret is required but not set")
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	if ttl < 0 {
		return nil, fmt.Errorf("approval ttl must be positive, got: %s", ttl)
	}
	return &Issuer{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a ticket approving matchIDs for requesterID.
func (i *Issuer) Issue(requesterID uuid.UUID, matchIDs []uuid.UUID) (string, error) {
	if requesterID == uuid.Nil {
		return "", fmt.Errorf("requester id is required")
	}
	if len(matchIDs) == 0 {
		return "", fmt.Errorf("at least one match id is required")
	}

	now := i.now()
	claims := &Claims{
		MatchIDs: matchIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   requesterID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks the ticket signature, lifetime and owner.
func (i *Issuer) Verify(ticket string, requesterID uuid.UUID) (*Grant, error) {
	if ticket == "" {
		return nil, fmt.Errorf("ticket is empty")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(ticket, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("invalid ticket signature: %w", err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("ticket expired: %w", err)
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("malformed ticket: %w", err)
		}
		return nil, fmt.Errorf("failed to parse ticket: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("ticket is not valid")
	}

	if claims.Subject != requesterID.String() {
		return nil, fmt.Errorf("ticket was issued to a different requester")
	}

	g := &Grant{requesterID: requesterID, matchIDs: claims.MatchIDs}
	if claims.ExpiresAt != nil {
		g.expiresAt = claims.ExpiresAt.Time
	}
	return g, nil
}
