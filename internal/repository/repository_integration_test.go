//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dscatalog/internal/database"
	"dscatalog/internal/model"
	"dscatalog/internal/security/password"
)

func openSeeded(t *testing.T) *database.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, database.Options{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.Seed(ctx, hasher))
	return db
}

func TestUserRepositoryFindByEmailIgnoresCase(t *testing.T) {
	db := openSeeded(t)
	repo := NewUserRepository(db.Pool)
	ctx := context.Background()

	user, err := repo.FindByEmail(ctx, "MARIA@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, "maria@gmail.com", user.Email)
	assert.Contains(t, user.Roles, model.RoleOperator)
	assert.NotEmpty(t, user.PasswordHash)

	_, err = repo.FindByEmail(ctx, "nobody@gmail.com")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserRepositoryRejectsDuplicateEmail(t *testing.T) {
	db := openSeeded(t)
	repo := NewUserRepository(db.Pool)

	_, err := repo.Create(context.Background(), model.User{
		FirstName:    "Maria",
		Email:        "Maria@Gmail.com",
		PasswordHash: "$2a$04$placeholderplaceholderplaceholderplaceholderplaceho",
		Roles:        []string{model.RoleOperator},
	})
	assert.ErrorIs(t, err, model.ErrIntegrityViolation)
}

func TestProductRepositoryFilters(t *testing.T) {
	db := openSeeded(t)
	products := NewProductRepository(db.Pool)
	ctx := context.Background()

	page, err := products.FindAllPaged(ctx, model.ProductFilter{Name: "macbook"}, model.PageRequest{}.Normalize("name"))
	require.NoError(t, err)
	require.NotEmpty(t, page.Content)
	assert.Equal(t, "Macbook Pro", page.Content[0].Name)
	assert.NotEmpty(t, page.Content[0].Categories)

	_, err = products.FindByID(ctx, 1_000_000)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestProductRepositoryUnknownCategory(t *testing.T) {
	db := openSeeded(t)
	products := NewProductRepository(db.Pool)

	_, err := products.Create(context.Background(), model.Product{
		Name:        "Phantom product",
		Description: "references a category that does not exist",
		Price:       10,
		Date:        time.Now().UTC(),
		Categories:  []model.Category{{ID: 1_000_000}},
	})
	assert.ErrorIs(t, err, model.ErrCategoryNotFound)
}
