// Package token builds and signs access tokens and publishes the JWKS
// document relying parties use to verify them offline.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vaishali515/switchboard-auth/internal/account"
	"github.com/vaishali515/switchboard-auth/internal/keys"
)

// ErrTokenInvalid is returned for tokens that fail signature or claim checks.
var ErrTokenInvalid = errors.New("invalid access token")

// AccessClaims is the claim set carried by issued access tokens. Subject is
// the account email; uid is the account id.
type AccessClaims struct {
	UID   string   `json:"uid"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Issuer signs access tokens with the key manager's RSA private key.
// Issuance is stateless: identical inputs at the same instant produce the
// same token.
type Issuer struct {
	keys   *keys.Manager
	ttl    time.Duration
	issuer string
}

// NewIssuer creates an [Issuer] with the given access-token TTL.
func NewIssuer(km *keys.Manager, ttl time.Duration, issuerName string) *Issuer {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Issuer{
		keys:   km,
		ttl:    ttl,
		issuer: issuerName,
	}
}

// TTL returns the configured access-token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs an access token for the account and returns it with its
// lifetime in seconds.
func (i *Issuer) Issue(acct account.Account) (string, int64, error) {
	now := time.Now()

	claims := AccessClaims{
		UID:   acct.ID.String(),
		Name:  acct.Name,
		Roles: acct.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	if i.issuer != "" {
		claims.Issuer = i.issuer
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = i.keys.KeyID()

	signed, err := tok.SignedString(i.keys.Private())
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}

	return signed, int64(i.ttl.Seconds()), nil
}

// Parse verifies a token the way a relying party would: RS256 only, kid
// pinned to the active key.
func (i *Issuer) Parse(tokenStr string) (*AccessClaims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuedAt(),
	}
	if i.issuer != "" {
		options = append(options, jwt.WithIssuer(i.issuer))
	}

	parser := jwt.NewParser(options...)
	tok, err := parser.ParseWithClaims(tokenStr, &AccessClaims{}, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		if kid != i.keys.KeyID() {
			return nil, errors.New("unknown kid")
		}
		return i.keys.Public(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := tok.Claims.(*AccessClaims)
	if !ok || !tok.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
