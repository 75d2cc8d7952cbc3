package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscatalog/internal/model"
	"dscatalog/internal/security/access"
)

type stubVerifier struct {
	tokens map[string]model.AccessClaims
	calls  int
}

func (s *stubVerifier) Verify(raw string) (model.AccessClaims, error) {
	s.calls++
	claims, ok := s.tokens[raw]
	if !ok {
		return model.AccessClaims{}, model.ErrInvalidSignature
	}
	return claims, nil
}

func newTestAuth() (*AuthMiddleware, *stubVerifier) {
	verifier := &stubVerifier{tokens: map[string]model.AccessClaims{
		"operator-token": {SubjectID: 1, Username: "maria@gmail.com", Authorities: []string{model.RoleOperator}},
		"admin-token":    {SubjectID: 2, Username: "alex@gmail.com", Authorities: []string{model.RoleOperator, model.RoleAdmin}},
	}}
	return NewAuthMiddleware(verifier, access.NewPolicy(access.Catalog()...), nil), verifier
}

func serveAuth(t *testing.T, mw *AuthMiddleware, method, target, authorization string) (*httptest.ResponseRecorder, *model.SecurityContext) {
	t.Helper()

	var seen *model.SecurityContext
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := SecurityContextFrom(r.Context())
		require.True(t, ok)
		seen = &sc
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	mw.Authenticate(next).ServeHTTP(rec, req)
	return rec, seen
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()
	var body model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body
}

func TestAuthenticatePublicRouteSkipsVerification(t *testing.T) {
	mw, verifier := newTestAuth()

	rec, sc := serveAuth(t, mw, http.MethodGet, "/products/3", "Bearer garbage")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sc)
	assert.False(t, sc.Authenticated)
	assert.Zero(t, verifier.calls)
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw, _ := newTestAuth()

	rec, sc := serveAuth(t, mw, http.MethodPost, "/products", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sc)
	assert.Equal(t, `Bearer realm="dscatalog"`, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "UNAUTHORIZED", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthenticateInvalidToken(t *testing.T) {
	mw, _ := newTestAuth()

	rec, sc := serveAuth(t, mw, http.MethodPost, "/products", "Bearer forged")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, sc)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
}

func TestAuthenticateRejectsOtherSchemes(t *testing.T) {
	mw, verifier := newTestAuth()

	rec, _ := serveAuth(t, mw, http.MethodPost, "/products", "Basic ZHNjYXRhbG9nOmRzY2F0YWxvZzEyMw==")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_request"`)
	assert.Zero(t, verifier.calls)
}

func TestAuthenticateForbiddenRole(t *testing.T) {
	mw, _ := newTestAuth()

	rec, sc := serveAuth(t, mw, http.MethodPost, "/users", "Bearer operator-token")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Nil(t, sc)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "FORBIDDEN", decodeEnvelope(t, rec).Error.Code)
}

func TestAuthenticatePopulatesSecurityContext(t *testing.T) {
	mw, _ := newTestAuth()

	rec, sc := serveAuth(t, mw, http.MethodPut, "/users/7", "bearer admin-token")

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sc)
	assert.True(t, sc.Authenticated)
	assert.Equal(t, int64(2), sc.SubjectID)
	assert.Equal(t, "alex@gmail.com", sc.Username)
	assert.ElementsMatch(t, []string{model.RoleOperator, model.RoleAdmin}, sc.Authorities)
}

func TestAuthenticateUnmatchedPathNeedsAuthentication(t *testing.T) {
	mw, _ := newTestAuth()

	rec, _ := serveAuth(t, mw, http.MethodGet, "/unknown", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = serveAuth(t, mw, http.MethodGet, "/unknown", "Bearer operator-token")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSecurityContextFromOutsideMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := SecurityContextFrom(req.Context())
	assert.False(t, ok)
}
