package model

import (
	"strings"
	"time"
)

type ProductInput struct {
	Name        string    `json:"name" validate:"required,min=5,max=60"`
	Description string    `json:"description" validate:"required"`
	Price       float64   `json:"price" validate:"gt=0"`
	ImgURL      string    `json:"img_url" validate:"omitempty,url"`
	Date        time.Time `json:"date" validate:"required,pastorpresent"`
	CategoryIDs []int64   `json:"category_ids" validate:"dive,gt=0"`
}

type CategoryInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

type UserInsertInput struct {
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=6"`
	Roles     []string `json:"roles" validate:"required,min=1,dive,required"`
}

type UserUpdateInput struct {
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email" validate:"required,email"`
	Roles     []string `json:"roles" validate:"required,min=1,dive,required"`
}

// Trimmed strips surrounding whitespace from the name and email fields. It
// runs before validation, so a padded address is stored in its trimmed form.
func (in UserInsertInput) Trimmed() UserInsertInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func (in UserUpdateInput) Trimmed() UserUpdateInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	return in
}
