// Package access decides whether a caller may reach a route.
//
// A Policy holds an ordered list of rules. The first rule whose method and
// path pattern match the request applies, so narrower rules must be declared
// before broader rules over the same prefix.
package access

import (
	"net/http"
	"strings"

	"dscatalog/internal/model"
)

// AnyMethod matches every HTTP method.
const AnyMethod = "*"

type requirement int

const (
	requireAuthenticated requirement = iota
	requireAnyRole
	permitAll
)

type Rule struct {
	Method  string
	Pattern string
	roles   []string
	kind    requirement
}

// PermitAll allows the request without looking at the caller.
func PermitAll(method string, pattern string) Rule {
	return Rule{Method: normalizeMethod(method), Pattern: pattern, kind: permitAll}
}

// Authenticated allows any authenticated caller.
func Authenticated(method string, pattern string) Rule {
	return Rule{Method: normalizeMethod(method), Pattern: pattern, kind: requireAuthenticated}
}

// HasAnyRole allows authenticated callers holding at least one of roles.
func HasAnyRole(method string, pattern string, roles ...string) Rule {
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		normalized = append(normalized, model.NormalizeRole(role))
	}
	return Rule{Method: normalizeMethod(method), Pattern: pattern, roles: normalized, kind: requireAnyRole}
}

func (r Rule) Public() bool {
	return r.kind == permitAll
}

// Roles returns the roles the rule accepts; empty for public and
// authenticated-only rules.
func (r Rule) Roles() []string {
	return append([]string(nil), r.roles...)
}

func (r Rule) Matches(method string, path string) bool {
	if r.Method != AnyMethod && r.Method != strings.ToUpper(method) {
		return false
	}
	return matchPath(r.Pattern, path)
}

func (r Rule) String() string {
	switch r.kind {
	case permitAll:
		return r.Method + " " + r.Pattern + " permitAll"
	case requireAnyRole:
		return r.Method + " " + r.Pattern + " hasAnyRole(" + strings.Join(r.roles, ",") + ")"
	default:
		return r.Method + " " + r.Pattern + " authenticated"
	}
}

func normalizeMethod(method string) string {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" || method == AnyMethod {
		return AnyMethod
	}
	return method
}

// Catalog returns the rule set of the catalog API.
func Catalog() []Rule {
	return []Rule{
		PermitAll(AnyMethod, "/oauth/token"),
		PermitAll(http.MethodGet, "/products/**"),
		PermitAll(http.MethodGet, "/categories/**"),
		HasAnyRole(AnyMethod, "/products/**", model.RoleOperator, model.RoleAdmin),
		HasAnyRole(AnyMethod, "/categories/**", model.RoleOperator, model.RoleAdmin),
		HasAnyRole(AnyMethod, "/users/**", model.RoleAdmin),
	}
}
