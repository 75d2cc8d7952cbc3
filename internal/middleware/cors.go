package middleware

import (
	"net/http"
	"slices"

	"github.com/rs/cors"
)

// CORS answers preflight requests itself and decorates every other response.
// Requests from origins outside the list are passed through undecorated; the
// browser enforces the restriction.
//
// A "*" entry accepts any origin. The request origin is echoed back in that
// case, since a literal "*" is not valid together with credentials.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodPost,
			http.MethodGet,
			http.MethodPut,
			http.MethodDelete,
			http.MethodPatch,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           3600,
	}

	if len(origins) == 0 || slices.Contains(origins, "*") {
		opts.AllowOriginFunc = func(string) bool { return true }
	} else {
		opts.AllowedOrigins = origins
	}

	return cors.New(opts).Handler
}
