package handler

import (
	"context"
	"net/http"

	"dscatalog/internal/model"
)

type categoryService interface {
	FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.Category], error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Insert(ctx context.Context, in model.CategoryInput) (model.Category, error)
	Update(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}

type CategoryHandler struct {
	service categoryService
}

func NewCategoryHandler(service categoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
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

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CategoryInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.Insert(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", location(r, category.ID))
	writeSuccess(w, http.StatusCreated, category, nil)
}

func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.CategoryInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, category, nil)
}

func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
