package handler

import (
	"context"
	"net/http"

	"dscatalog/internal/model"
)

type userService interface {
	FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.AuthUser], error)
	FindByID(ctx context.Context, id int64) (model.AuthUser, error)
	Insert(ctx context.Context, in model.UserInsertInput) (model.AuthUser, error)
	Update(ctx context.Context, id int64, in model.UserUpdateInput) (model.AuthUser, error)
	Delete(ctx context.Context, id int64) error
}

type UserHandler struct {
	service userService
}

func NewUserHandler(service userService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.FindAllPaged(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result.Content, result.Meta())
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.UserInsertInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Insert(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", location(r, user.ID))
	writeSuccess(w, http.StatusCreated, user, nil)
}

// Update replaces the profile and roles of the user named in the path. The
// path id, never a body field, decides which user is being edited, so an
// email already owned by that same user is accepted.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.UserUpdateInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	writeNoContent(w)
}
