package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"dscatalog/internal/model"
	"dscatalog/pkg/apierror"
)

type productService interface {
	FindAllPaged(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Insert(ctx context.Context, in model.ProductInput) (model.Product, error)
	Update(ctx context.Context, id int64, in model.ProductInput) (model.Product, error)
	Delete(ctx context.Context, id int64) error
}

type ProductHandler struct {
	service productService
}

func NewProductHandler(service productService) *ProductHandler {
	return &ProductHandler{service: service}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := pageRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}

	filter := model.ProductFilter{Name: strings.TrimSpace(r.URL.Query().Get("name"))}
	if raw := strings.TrimSpace(r.URL.Query().Get("categoryId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			writeError(w, apierror.New("BAD_REQUEST", "categoryId must be a non-negative integer", "categoryId", http.StatusBadRequest))
			return
		}
		filter.CategoryID = id
	}

	result, err := h.service.FindAllPaged(r.Context(), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result.Content, result.Meta())
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.ProductInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Insert(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Location", location(r, product.ID))
	writeSuccess(w, http.StatusCreated, product, nil)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var payload model.ProductInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}

	product, err := h.service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, product, nil)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
