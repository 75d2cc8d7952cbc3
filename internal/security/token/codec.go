// Package token signs and verifies the self-contained access tokens issued by
// the token endpoint.
//
// Tokens are HS256 JWTs. Verification checks the HMAC over the raw
// header.payload segments before anything inside the token is decoded, so no
// claim is ever read from an unauthenticated payload.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"dscatalog/internal/model"
)

var signingMethod = jwt.SigningMethodHS256

type accessTokenClaims struct {
	jwt.RegisteredClaims
	UserName    string   `json:"user_name,omitempty"`
	ClientID    string   `json:"client_id,omitempty"`
	Authorities []string `json:"authorities"`
	Scope       []string `json:"scope"`
}

// Codec holds the signing key. It is immutable after construction and safe
// for concurrent use.
type Codec struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewCodec(secret string) (*Codec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token signing secret is required")
	}

	return &Codec{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{signingMethod.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
		now: time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	clone := *c
	clone.now = now
	return &clone
}

// Sign encodes claims into a signed token. Timestamps travel as whole seconds,
// so IssuedAt and ExpiresAt must carry no sub-second part; that keeps Verify
// returning exactly the claims that were signed.
func (c *Codec) Sign(claims model.AccessClaims) (string, error) {
	if claims.ExpiresAt.IsZero() || claims.IssuedAt.IsZero() {
		return "", errors.New("sign token: issued-at and expiry are required")
	}
	if claims.IssuedAt.Nanosecond() != 0 || claims.ExpiresAt.Nanosecond() != 0 {
		return "", errors.New("sign token: issued-at and expiry must be whole seconds")
	}

	registered := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(claims.SubjectID, 10),
		IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		ID:        claims.ID,
	}

	signed, err := jwt.NewWithClaims(signingMethod, accessTokenClaims{
		RegisteredClaims: registered,
		UserName:         claims.Username,
		ClientID:         claims.ClientID,
		Authorities:      nonNil(claims.Authorities),
		Scope:            nonNil(claims.Scope),
	}).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify authenticates raw and returns its claims. It fails with
// model.ErrMalformedToken, model.ErrInvalidSignature or model.ErrTokenExpired.
func (c *Codec) Verify(raw string) (model.AccessClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return model.AccessClaims{}, model.ErrMalformedToken
	}

	sig, err := c.parser.DecodeSegment(parts[2])
	if err != nil {
		return model.AccessClaims{}, model.ErrInvalidSignature
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return model.AccessClaims{}, model.ErrInvalidSignature
	}

	var decoded accessTokenClaims
	if _, err := c.parser.ParseWithClaims(raw, &decoded, c.key); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return model.AccessClaims{}, model.ErrMalformedToken
		}
		return model.AccessClaims{}, model.ErrInvalidSignature
	}

	claims, err := toModel(decoded)
	if err != nil {
		return model.AccessClaims{}, err
	}

	if c.now().After(claims.ExpiresAt) {
		return model.AccessClaims{}, model.ErrTokenExpired
	}

	return claims, nil
}

func (c *Codec) key(_ *jwt.Token) (any, error) {
	return c.secret, nil
}

func toModel(decoded accessTokenClaims) (model.AccessClaims, error) {
	if decoded.ExpiresAt == nil || decoded.IssuedAt == nil {
		return model.AccessClaims{}, model.ErrMalformedToken
	}

	subjectID, err := strconv.ParseInt(decoded.Subject, 10, 64)
	if err != nil {
		return model.AccessClaims{}, model.ErrMalformedToken
	}

	return model.AccessClaims{
		ID:          decoded.ID,
		SubjectID:   subjectID,
		Username:    decoded.UserName,
		ClientID:    decoded.ClientID,
		Authorities: nonNil(decoded.Authorities),
		Scope:       nonNil(decoded.Scope),
		IssuedAt:    decoded.IssuedAt.Time.UTC(),
		ExpiresAt:   decoded.ExpiresAt.Time.UTC(),
	}, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
