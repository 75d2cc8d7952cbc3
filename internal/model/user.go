package model

import "strings"

const (
	RoleOperator = "OPERATOR"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID           int64    `json:"id"`
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	Email        string   `json:"email"`
	PasswordHash string   `json:"-"`
	Roles        []string `json:"roles"`
}

type AuthUser struct {
	ID        int64    `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
}

func (u User) Public() AuthUser {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return AuthUser{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Roles: roles}
}

// NormalizeEmail is the comparison key for emails, which are unique case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeRole upper-cases a role name and strips an optional ROLE_ prefix.
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	return strings.TrimPrefix(role, "ROLE_")
}
