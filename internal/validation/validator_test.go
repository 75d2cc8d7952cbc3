package validation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dscatalog/internal/model"
	"dscatalog/pkg/apierror"
)

type stubFinder struct {
	users map[string]model.User
	err   error
	calls []string
}

func (s *stubFinder) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.calls = append(s.calls, email)
	if s.err != nil {
		return model.User{}, s.err
	}
	u, ok := s.users[model.NormalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func validUpdate(email string) model.UserUpdateInput {
	return model.UserUpdateInput{FirstName: "Ana", LastName: "Lima", Email: email, Roles: []string{model.RoleOperator}}
}

func requireFieldError(t *testing.T, err error, field string) *apierror.APIError {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	assert.True(t, apiErr.HasField(field), "fields: %+v", apiErr.Fields)
	return apiErr
}

func TestUserUpdateEmailUniqueness(t *testing.T) {
	t.Parallel()

	finder := &stubFinder{users: map[string]model.User{
		"x@y.com": {ID: 9, Email: "x@y.com"},
	}}
	v := New(finder)

	t.Run("email owned by another user", func(t *testing.T) {
		err := v.UserUpdate(context.Background(), 7, validUpdate("x@y.com"))
		apiErr := requireFieldError(t, err, FieldEmail)
		assert.Contains(t, apiErr.Fields, apierror.FieldError{Field: FieldEmail, Message: MsgEmailExists})
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		err := v.UserUpdate(context.Background(), 7, validUpdate("X@Y.com"))
		requireFieldError(t, err, FieldEmail)
	})

	t.Run("keeping one's own email", func(t *testing.T) {
		require.NoError(t, v.UserUpdate(context.Background(), 9, validUpdate("x@y.com")))
	})

	t.Run("email nobody owns", func(t *testing.T) {
		require.NoError(t, v.UserUpdate(context.Background(), 7, validUpdate("new@y.com")))
	})
}

func TestUserUpdateStoreFailurePropagates(t *testing.T) {
	t.Parallel()

	down := fmt.Errorf("find user by email: %w: connection refused", model.ErrStoreUnavailable)
	v := New(&stubFinder{err: down})

	err := v.UserUpdate(context.Background(), 7, validUpdate("x@y.com"))
	require.ErrorIs(t, err, model.ErrStoreUnavailable)

	var apiErr *apierror.APIError
	assert.False(t, errors.As(err, &apiErr), "store failures must not become field errors")
}

func TestUserUpdateCombinesTagAndUniquenessErrors(t *testing.T) {
	t.Parallel()

	v := New(&stubFinder{users: map[string]model.User{"x@y.com": {ID: 9}}})

	in := validUpdate("x@y.com")
	in.FirstName = ""
	in.Roles = nil

	err := v.UserUpdate(context.Background(), 7, in)
	apiErr := requireFieldError(t, err, FieldEmail)
	assert.True(t, apiErr.HasField("first_name"))
	assert.True(t, apiErr.HasField("roles"))
}

func TestUserUpdateSkipsLookupForBlankEmail(t *testing.T) {
	t.Parallel()

	finder := &stubFinder{}
	v := New(finder)

	err := v.UserUpdate(context.Background(), 7, validUpdate(""))
	requireFieldError(t, err, FieldEmail)
	assert.Empty(t, finder.calls)
}

func TestUserInsertRejectsAnyExistingOwner(t *testing.T) {
	t.Parallel()

	v := New(&stubFinder{users: map[string]model.User{"maria@gmail.com": {ID: 1}}})

	err := v.UserInsert(context.Background(), model.UserInsertInput{
		FirstName: "Maria",
		Email:     "maria@gmail.com",
		Password:  "123456",
		Roles:     []string{model.RoleOperator},
	})
	requireFieldError(t, err, FieldEmail)

	err = v.UserInsert(context.Background(), model.UserInsertInput{
		FirstName: "Bob",
		Email:     "bob@gmail.com",
		Password:  "123",
		Roles:     []string{model.RoleOperator},
	})
	apiErr := requireFieldError(t, err, "password")
	assert.False(t, apiErr.HasField(FieldEmail))
}

func TestProductRules(t *testing.T) {
	t.Parallel()

	v := New(&stubFinder{})
	v.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	valid := model.ProductInput{
		Name:        "Smart TV",
		Description: "A television",
		Price:       2190,
		ImgURL:      "https://example.com/tv.jpg",
		Date:        time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		CategoryIDs: []int64{1, 2},
	}
	require.NoError(t, v.Product(valid))

	cases := []struct {
		name   string
		mutate func(*model.ProductInput)
		field  string
	}{
		{"short name", func(p *model.ProductInput) { p.Name = "TV" }, "name"},
		{"missing description", func(p *model.ProductInput) { p.Description = "" }, "description"},
		{"zero price", func(p *model.ProductInput) { p.Price = 0 }, "price"},
		{"future date", func(p *model.ProductInput) { p.Date = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }, "date"},
		{"missing date", func(p *model.ProductInput) { p.Date = time.Time{} }, "date"},
		{"bad url", func(p *model.ProductInput) { p.ImgURL = "not a url" }, "img_url"},
		{"bad category id", func(p *model.ProductInput) { p.CategoryIDs = []int64{1, 0} }, "category_ids[1]"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			requireFieldError(t, v.Product(in), tc.field)
		})
	}
}

func TestCategoryRules(t *testing.T) {
	t.Parallel()

	v := New(&stubFinder{})
	require.NoError(t, v.Category(model.CategoryInput{Name: "Books"}))
	requireFieldError(t, v.Category(model.CategoryInput{}), "name")
}
