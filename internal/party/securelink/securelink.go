// Package securelink issues and resolves the tokens parties use to reach
// their data-collection session without an account.
//
// A link is an HS256 JWT carrying the party id and a one-time secret as the
// token id. Only the bcrypt hash of the secret is stored, so a copy of the
// database cannot be turned into working links; the token itself exists only
// in the dispatched message.
package securelink

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "deedflow/pkg/domain"
	dErrors "deedflow/pkg/domain-errors"
	"deedflow/pkg/platform/sentinel"
)

// Link is one issued secure link.
type Link struct {
	Token      string
	SecretHash string
	ExpiresAt  time.Time
}

type Issuer struct {
	key []byte
	ttl time.Duration
}

func NewIssuer(key []byte, ttl time.Duration) *Issuer {
	return &Issuer{key: key, ttl: ttl}
}

// Issue mints a link for the party, valid from now for the configured TTL.
func (i *Issuer) Issue(partyID id.PartyID, now time.Time) (Link, error) {
	secret := uuid.NewString()
	expiresAt := now.Add(i.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   partyID.String(),
		ID:        secret,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return Link{}, dErrors.Wrap(err, dErrors.CodeInternal, "sign link token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return Link{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash link secret")
	}
	return Link{Token: token, SecretHash: string(hash), ExpiresAt: expiresAt}, nil
}

// Resolve validates a presented token and returns the party it addresses and
// the embedded secret. Expired tokens surface sentinel.ErrExpired so callers
// can distinguish "send a fresh link" from tampering.
func (i *Issuer) Resolve(token string, now time.Time) (id.PartyID, string, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	claims := &jwt.RegisteredClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return id.PartyID{}, "", sentinel.ErrExpired
	}
	if err != nil {
		return id.PartyID{}, "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid link token")
	}
	partyID, err := id.ParsePartyID(claims.Subject)
	if err != nil {
		return id.PartyID{}, "", dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid link subject")
	}
	if claims.ID == "" {
		return id.PartyID{}, "", dErrors.New(dErrors.CodeUnauthorized, "link token missing secret")
	}
	return partyID, claims.ID, nil
}

// VerifySecret checks a presented secret against the stored hash.
func VerifySecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
