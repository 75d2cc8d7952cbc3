package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"dscatalog/internal/metrics"
	"dscatalog/internal/model"
)

const maxTokenFormBytes = 64 << 10

type tokenExchanger interface {
	Exchange(ctx context.Context, grant model.PasswordGrant) (model.TokenResponse, error)
}

// TokenHandler serves the OAuth2 token endpoint. Its bodies follow RFC 6749
// rather than the API envelope so standard OAuth clients can read them.
type TokenHandler struct {
	service tokenExchanger
	metrics *metrics.Metrics
}

func NewTokenHandler(service tokenExchanger, m *metrics.Metrics) *TokenHandler {
	return &TokenHandler{service: service, metrics: m}
}

func (h *TokenHandler) Token(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")

	r.Body = http.MaxBytesReader(w, r.Body, maxTokenFormBytes)
	if err := r.ParseForm(); err != nil {
		h.fail(w, http.StatusBadRequest, metrics.TokenInvalidRequest, "invalid_request", "malformed form body")
		return
	}

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		w.Header().Set("WWW-Authenticate", `Basic realm="dscatalog"`)
		h.fail(w, http.StatusUnauthorized, metrics.TokenInvalidClient, "invalid_client", "client authentication required")
		return
	}

	grant := model.PasswordGrant{
		GrantType:    strings.TrimSpace(r.PostForm.Get("grant_type")),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Username:     r.PostForm.Get("username"),
		Password:     r.PostForm.Get("password"),
	}
	// A blank scope parameter counts as absent.
	if requested := strings.Fields(r.PostForm.Get("scope")); len(requested) > 0 {
		grant.Scope = requested
	}

	resp, err := h.service.Exchange(r.Context(), grant)
	if err != nil {
		h.writeExchangeError(w, err)
		return
	}

	h.metrics.TokenRequest(metrics.TokenIssued)
	writeOAuthJSON(w, http.StatusOK, resp)
}

func (h *TokenHandler) writeExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidClient):
		w.Header().Set("WWW-Authenticate", `Basic realm="dscatalog"`)
		h.fail(w, http.StatusUnauthorized, metrics.TokenInvalidClient, "invalid_client", "client authentication failed")
	case errors.Is(err, model.ErrUnsupportedGrantType):
		h.fail(w, http.StatusBadRequest, metrics.TokenUnsupportedGrant, "unsupported_grant_type", "grant type not supported for this client")
	case errors.Is(err, model.ErrInvalidScope):
		h.fail(w, http.StatusBadRequest, metrics.TokenInvalidScope, "invalid_scope", "requested scope is not allowed")
	case errors.Is(err, model.ErrInvalidGrant):
		h.fail(w, http.StatusBadRequest, metrics.TokenInvalidGrant, "invalid_grant", "Bad credentials")
	case errors.Is(err, model.ErrStoreUnavailable):
		slog.Error("token exchange failed", "error", err)
		h.fail(w, http.StatusServiceUnavailable, metrics.TokenStoreUnavailable, "temporarily_unavailable", "try again later")
	default:
		slog.Error("token exchange failed", "error", err)
		h.fail(w, http.StatusInternalServerError, metrics.TokenServerError, "server_error", "")
	}
}

func (h *TokenHandler) fail(w http.ResponseWriter, status int, result string, code string, description string) {
	h.metrics.TokenRequest(result)
	writeOAuthJSON(w, status, model.OAuthError{Error: code, ErrorDescription: description})
}

func writeOAuthJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
