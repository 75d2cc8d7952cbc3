package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"dscatalog/internal/model"
)

// unknownUserDigest is a well-formed bcrypt digest that matches no password.
// Verifying against it keeps the unknown-user path as slow as a wrong password.
const unknownUserDigest = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3nq3Bv9FZrvpvRCMvvY5sQS"

type credentialStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

type secretVerifier interface {
	Verify(plain string, hash string) bool
}

type tokenSigner interface {
	Sign(claims model.AccessClaims) (string, error)
}

// TokenService exchanges client and resource owner credentials for an access
// token. It only reads from its collaborators.
type TokenService struct {
	client   model.ClientRegistration
	users    credentialStore
	verifier secretVerifier
	signer   tokenSigner
	now      func() time.Time
}

func NewTokenService(client model.ClientRegistration, users credentialStore, verifier secretVerifier, signer tokenSigner) *TokenService {
	return &TokenService{
		client:   client,
		users:    users,
		verifier: verifier,
		signer:   signer,
		now:      time.Now,
	}
}

func (s *TokenService) Exchange(ctx context.Context, grant model.PasswordGrant) (model.TokenResponse, error) {
	if grant.ClientID != s.client.ClientID || !s.verifier.Verify(grant.ClientSecret, s.client.SecretHash) {
		slog.Warn("token request rejected: client authentication failed", "client_id", grant.ClientID)
		return model.TokenResponse{}, model.ErrInvalidClient
	}

	if grant.GrantType != s.client.GrantType {
		return model.TokenResponse{}, fmt.Errorf("%w: %q", model.ErrUnsupportedGrantType, grant.GrantType)
	}

	user, err := s.authenticateUser(ctx, grant.Username, grant.Password)
	if err != nil {
		return model.TokenResponse{}, err
	}

	scope, err := s.resolveScope(grant.Scope)
	if err != nil {
		return model.TokenResponse{}, err
	}

	issuedAt := s.now().UTC().Truncate(time.Second)
	claims := model.AccessClaims{
		ID:          uuid.NewString(),
		SubjectID:   user.ID,
		Username:    user.Email,
		ClientID:    s.client.ClientID,
		Authorities: slices.Clone(user.Roles),
		Scope:       scope,
		IssuedAt:    issuedAt,
		ExpiresAt:   issuedAt.Add(s.client.TokenTTL()),
	}

	signed, err := s.signer.Sign(claims)
	if err != nil {
		return model.TokenResponse{}, fmt.Errorf("issue token: %w", err)
	}

	slog.Info("access token issued", "user_id", user.ID, "client_id", s.client.ClientID, "scope", strings.Join(scope, " "))

	return model.TokenResponse{
		AccessToken: signed,
		TokenType:   model.TokenTypeBearer,
		ExpiresIn:   int64(s.client.TokenTTLSeconds),
		Scope:       strings.Join(scope, " "),
	}, nil
}

// authenticateUser reports unknown users and wrong passwords identically.
// Store failures are returned as they are.
func (s *TokenService) authenticateUser(ctx context.Context, username string, password string) (model.User, error) {
	user, err := s.users.FindByEmail(ctx, username)
	if errors.Is(err, model.ErrUserNotFound) {
		s.verifier.Verify(password, unknownUserDigest)
		slog.Warn("token request rejected: bad user credentials", "username", username)
		return model.User{}, model.ErrInvalidGrant
	}
	if err != nil {
		return model.User{}, fmt.Errorf("authenticate user: %w", err)
	}

	if !s.verifier.Verify(password, user.PasswordHash) {
		slog.Warn("token request rejected: bad user credentials", "username", username)
		return model.User{}, model.ErrInvalidGrant
	}
	return user, nil
}

// resolveScope grants every allowed scope when none was requested, otherwise
// the requested scopes the client may hold.
func (s *TokenService) resolveScope(requested []string) ([]string, error) {
	if requested == nil {
		return slices.Clone(s.client.AllowedScopes), nil
	}

	granted := make([]string, 0, len(requested))
	for _, scope := range requested {
		if slices.Contains(s.client.AllowedScopes, scope) && !slices.Contains(granted, scope) {
			granted = append(granted, scope)
		}
	}
	if len(granted) == 0 {
		return nil, fmt.Errorf("%w: %s", model.ErrInvalidScope, strings.Join(requested, " "))
	}
	return granted, nil
}
