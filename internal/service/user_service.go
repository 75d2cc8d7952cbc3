package service

import (
	"context"
	"fmt"

	"dscatalog/internal/model"
)

type userStore interface {
	FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.User], error)
	FindByID(ctx context.Context, id int64) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
}

type userValidator interface {
	UserInsert(ctx context.Context, in model.UserInsertInput) error
	UserUpdate(ctx context.Context, targetID int64, in model.UserUpdateInput) error
}

type passwordHasher interface {
	Hash(plain string) (string, error)
}

// UserService manages accounts. Password digests never leave it: every
// returned user goes through model.User.Public.
type UserService struct {
	users     userStore
	validator userValidator
	hasher    passwordHasher
}

func NewUserService(users userStore, validator userValidator, hasher passwordHasher) *UserService {
	return &UserService{users: users, validator: validator, hasher: hasher}
}

func (s *UserService) FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.AuthUser], error) {
	found, err := s.users.FindAllPaged(ctx, page.Normalize("firstName"))
	if err != nil {
		return model.Page[model.AuthUser]{}, err
	}

	public := make([]model.AuthUser, 0, len(found.Content))
	for _, u := range found.Content {
		public = append(public, u.Public())
	}
	return model.Page[model.AuthUser]{Content: public, Total: found.Total, Request: found.Request}, nil
}

func (s *UserService) FindByID(ctx context.Context, id int64) (model.AuthUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, err
	}
	return u.Public(), nil
}

func (s *UserService) Insert(ctx context.Context, in model.UserInsertInput) (model.AuthUser, error) {
	in = in.Trimmed()
	if err := s.validator.UserInsert(ctx, in); err != nil {
		return model.AuthUser{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("insert user: %w", err)
	}

	created, err := s.users.Create(ctx, model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Roles:        normalizeRoles(in.Roles),
	})
	if err != nil {
		return model.AuthUser{}, err
	}
	return created.Public(), nil
}

// Update runs the uniqueness check against id, so a user may keep their own
// email while taking one owned by someone else is rejected.
func (s *UserService) Update(ctx context.Context, id int64, in model.UserUpdateInput) (model.AuthUser, error) {
	in = in.Trimmed()
	if err := s.validator.UserUpdate(ctx, id, in); err != nil {
		return model.AuthUser{}, err
	}

	updated, err := s.users.Update(ctx, model.User{
		ID:        id,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Roles:     normalizeRoles(in.Roles),
	})
	if err != nil {
		return model.AuthUser{}, err
	}
	return updated.Public(), nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	return s.users.Delete(ctx, id)
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		out = append(out, model.NormalizeRole(role))
	}
	return out
}
