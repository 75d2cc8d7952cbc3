package access

import (
	"path"
	"strings"

	"dscatalog/internal/model"
)

// Policy is immutable once built and safe for concurrent use.
type Policy struct {
	rules    []Rule
	fallback Rule
}

// NewPolicy keeps rules in the given order. Requests no rule matches require
// authentication only.
func NewPolicy(rules ...Rule) *Policy {
	return &Policy{
		rules:    append([]Rule(nil), rules...),
		fallback: Authenticated(AnyMethod, "/**"),
	}
}

func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// Match returns the first rule matching the request, or the fallback rule.
func (p *Policy) Match(method string, requestPath string) Rule {
	for _, rule := range p.rules {
		if rule.Matches(method, requestPath) {
			return rule
		}
	}
	return p.fallback
}

// Authorize applies rule to the caller. It returns nil, model.ErrUnauthorized
// or model.ErrForbidden.
func (p *Policy) Authorize(rule Rule, sc model.SecurityContext) error {
	if rule.Public() {
		return nil
	}
	if !sc.Authenticated {
		return model.ErrUnauthorized
	}
	if rule.kind == requireAnyRole && !sc.HasAnyAuthority(rule.roles...) {
		return model.ErrForbidden
	}
	return nil
}

// Decide matches and authorizes in one step.
func (p *Policy) Decide(method string, requestPath string, sc model.SecurityContext) error {
	return p.Authorize(p.Match(method, requestPath), sc)
}

// matchPath implements Ant-style patterns: "*" matches within one segment and
// "**" matches any number of whole segments, including none.
func matchPath(pattern string, requestPath string) bool {
	return matchSegments(splitPath(pattern), splitPath(requestPath))
}

func matchSegments(pattern []string, segments []string) bool {
	for len(pattern) > 0 {
		head := pattern[0]
		if head == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(segments); i++ {
				if matchSegments(rest, segments[i:]) {
					return true
				}
			}
			return false
		}

		if len(segments) == 0 {
			return false
		}
		if ok, err := path.Match(head, segments[0]); err != nil || !ok {
			return false
		}

		pattern = pattern[1:]
		segments = segments[1:]
	}
	return len(segments) == 0
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
