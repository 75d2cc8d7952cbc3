package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dscatalog/internal/model"
	"dscatalog/internal/security/password"
	"dscatalog/internal/validation"
	"dscatalog/pkg/apierror"
)

func newUserFixture(t *testing.T, users ...model.User) (*UserService, *memoryUsers, *password.Hasher) {
	t.Helper()

	store := newMemoryUsers(users...)
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	return NewUserService(store, validation.New(store), hasher), store, hasher
}

func TestUserUpdateRejectsEmailOwnedByAnotherUser(t *testing.T) {
	t.Parallel()

	svc, store, _ := newUserFixture(t,
		model.User{ID: 7, FirstName: "Ana", Email: "ana@y.com", Roles: []string{model.RoleOperator}},
		model.User{ID: 9, FirstName: "Xavier", Email: "x@y.com", Roles: []string{model.RoleOperator}},
	)

	_, err := svc.Update(context.Background(), 7, model.UserUpdateInput{
		FirstName: "Ana",
		Email:     "x@y.com",
		Roles:     []string{model.RoleOperator},
	})

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasField("email"))
	assert.Zero(t, store.updates, "a rejected update must not reach the store")

	updated, err := svc.Update(context.Background(), 7, model.UserUpdateInput{
		FirstName: "Ana",
		Email:     "ana.new@y.com",
		Roles:     []string{"role_admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ana.new@y.com", updated.Email)
	assert.Equal(t, []string{model.RoleAdmin}, updated.Roles)
}

func TestUserInsertHashesPassword(t *testing.T) {
	t.Parallel()

	svc, store, hasher := newUserFixture(t)

	created, err := svc.Insert(context.Background(), model.UserInsertInput{
		FirstName: "Bob",
		LastName:  "Brown",
		Email:     " bob@gmail.com ",
		Password:  "s3cret!",
		Roles:     []string{model.RoleOperator},
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@gmail.com", created.Email)
	assert.Equal(t, "Bob", created.FirstName)

	stored, err := store.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", stored.PasswordHash)
	assert.True(t, hasher.Verify("s3cret!", stored.PasswordHash))
}

func TestUserUpdateTrimsBeforeValidating(t *testing.T) {
	t.Parallel()

	svc, store, _ := newUserFixture(t,
		model.User{ID: 7, FirstName: "Ana", Email: "ana@y.com", Roles: []string{model.RoleOperator}},
		model.User{ID: 9, FirstName: "Xavier", Email: "x@y.com", Roles: []string{model.RoleOperator}},
	)

	_, err := svc.Update(context.Background(), 7, model.UserUpdateInput{
		FirstName: "Ana",
		Email:     "  X@y.com ",
		Roles:     []string{model.RoleOperator},
	})
	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.HasField("email"))
	assert.Zero(t, store.updates)

	updated, err := svc.Update(context.Background(), 7, model.UserUpdateInput{
		FirstName: " Ana ",
		LastName:  " Lima",
		Email:     " ana.lima@y.com ",
		Roles:     []string{model.RoleOperator},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Lima", updated.LastName)
	assert.Equal(t, "ana.lima@y.com", updated.Email)
}

func TestUserReadsNeverExposeDigests(t *testing.T) {
	t.Parallel()

	svc, _, _ := newUserFixture(t,
		model.User{ID: 1, FirstName: "Maria", Email: "maria@gmail.com", PasswordHash: "$2a$04$digest", Roles: []string{model.RoleOperator}},
	)

	page, err := svc.FindAllPaged(context.Background(), model.PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, model.DefaultPageSize, page.Request.Size)
	assert.Equal(t, "firstName", page.Request.OrderBy)

	one, err := svc.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "maria@gmail.com", one.Email)

	_, err = svc.FindByID(context.Background(), 99)
	require.ErrorIs(t, err, model.ErrUserNotFound)
}
