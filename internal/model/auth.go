package model

import (
	"slices"
	"time"
)

const (
	GrantTypePassword = "password"
	TokenTypeBearer   = "bearer"
)

// ClientRegistration is the OAuth client allowed to exchange user credentials.
// It is built once at startup and only read afterwards.
type ClientRegistration struct {
	ClientID        string
	SecretHash      string
	AllowedScopes   []string
	GrantType       string
	TokenTTLSeconds int
}

func (c ClientRegistration) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// PasswordGrant is a resource-owner password credentials request.
type PasswordGrant struct {
	GrantType    string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// Scope is nil when the request carried no scope parameter.
	Scope []string
}

// AccessClaims are the fields carried inside a signed access token.
type AccessClaims struct {
	ID          string
	SubjectID   int64
	Username    string
	ClientID    string
	Authorities []string
	Scope       []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// SecurityContext describes the caller of the current request.
type SecurityContext struct {
	SubjectID     int64
	Username      string
	Authorities   []string
	Scope         []string
	Authenticated bool
}

func Anonymous() SecurityContext {
	return SecurityContext{}
}

func ContextFromClaims(claims AccessClaims) SecurityContext {
	return SecurityContext{
		SubjectID:     claims.SubjectID,
		Username:      claims.Username,
		Authorities:   slices.Clone(claims.Authorities),
		Scope:         slices.Clone(claims.Scope),
		Authenticated: true,
	}
}

// HasAnyAuthority reports whether the caller holds at least one of roles.
func (s SecurityContext) HasAnyAuthority(roles ...string) bool {
	for _, held := range s.Authorities {
		held = NormalizeRole(held)
		for _, want := range roles {
			if held == NormalizeRole(want) {
				return true
			}
		}
	}
	return false
}
