// Package validation checks request payloads before they reach the stores.
//
// Field rules come from the validate struct tags on the model inputs. Rules
// that need the database, such as email uniqueness, run afterwards and report
// their failures in the same field list.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"dscatalog/internal/model"
	"dscatalog/pkg/apierror"
)

const (
	FieldEmail       = "email"
	MsgEmailExists   = "email already exists"
	tagPastOrPresent = "pastorpresent"
)

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

type Validator struct {
	validate *validator.Validate
	users    userFinder
	now      func() time.Time
}

func New(users userFinder) *Validator {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		users:    users,
		now:      time.Now,
	}

	v.validate.RegisterTagNameFunc(jsonFieldName)
	_ = v.validate.RegisterValidation(tagPastOrPresent, v.pastOrPresent)

	return v
}

// Struct applies the tag rules of s. It returns nil or an *apierror.APIError
// listing every failing field.
func (v *Validator) Struct(s any) error {
	fields := v.fieldErrors(s)
	if len(fields) > 0 {
		return apierror.Validation(fields)
	}
	return nil
}

func (v *Validator) Product(in model.ProductInput) error {
	return v.Struct(in)
}

func (v *Validator) Category(in model.CategoryInput) error {
	return v.Struct(in)
}

// UserInsert rejects an email that any existing user already owns.
func (v *Validator) UserInsert(ctx context.Context, in model.UserInsertInput) error {
	fields := v.fieldErrors(in)

	_, found, err := v.emailOwner(ctx, in.Email)
	if err != nil {
		return err
	}
	if found {
		fields = append(fields, apierror.FieldError{Field: FieldEmail, Message: MsgEmailExists})
	}

	if len(fields) > 0 {
		return apierror.Validation(fields)
	}
	return nil
}

// UserUpdate rejects an email owned by a user other than targetID. Keeping
// one's own email is not a conflict.
func (v *Validator) UserUpdate(ctx context.Context, targetID int64, in model.UserUpdateInput) error {
	fields := v.fieldErrors(in)

	owner, found, err := v.emailOwner(ctx, in.Email)
	if err != nil {
		return err
	}
	if found && owner.ID != targetID {
		fields = append(fields, apierror.FieldError{Field: FieldEmail, Message: MsgEmailExists})
	}

	if len(fields) > 0 {
		return apierror.Validation(fields)
	}
	return nil
}

// emailOwner looks the email up. A lookup that found nobody is not an error;
// store failures are returned unchanged so they are not reported as a field
// problem.
func (v *Validator) emailOwner(ctx context.Context, email string) (model.User, bool, error) {
	if strings.TrimSpace(email) == "" {
		return model.User{}, false, nil
	}

	owner, err := v.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("check email uniqueness: %w", err)
	}
	return owner, true, nil
}

func (v *Validator) fieldErrors(s any) []apierror.FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return []apierror.FieldError{{Field: "body", Message: err.Error()}}
	}

	fields := make([]apierror.FieldError, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, apierror.FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return fields
}

func (v *Validator) pastOrPresent(fl validator.FieldLevel) bool {
	t, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	return !t.After(v.now())
}

// fieldPath drops the struct name from the namespace: "ProductInput.name"
// becomes "name" and nested entries keep their index, e.g. "category_ids[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field"
	case "email":
		return "invalid email"
	case "url":
		return "must be a valid URL"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must have at least %s items", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case tagPastOrPresent:
		return "date cannot be in the future"
	default:
		return "invalid value"
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
