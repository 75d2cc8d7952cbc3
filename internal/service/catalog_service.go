package service

import (
	"context"
	"strings"

	"dscatalog/internal/model"
)

type productStore interface {
	FindAllPaged(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) (model.Product, error)
	Delete(ctx context.Context, id int64) error
}

type categoryStore interface {
	FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.Category], error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) (model.Category, error)
	Delete(ctx context.Context, id int64) error
}

type catalogValidator interface {
	Product(in model.ProductInput) error
	Category(in model.CategoryInput) error
}

type ProductService struct {
	products  productStore
	validator catalogValidator
}

func NewProductService(products productStore, validator catalogValidator) *ProductService {
	return &ProductService{products: products, validator: validator}
}

func (s *ProductService) FindAllPaged(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	filter.Name = strings.TrimSpace(filter.Name)
	return s.products.FindAllPaged(ctx, filter, page.Normalize("name"))
}

func (s *ProductService) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *ProductService) Insert(ctx context.Context, in model.ProductInput) (model.Product, error) {
	if err := s.validator.Product(in); err != nil {
		return model.Product{}, err
	}
	return s.products.Create(ctx, productFromInput(0, in))
}

func (s *ProductService) Update(ctx context.Context, id int64, in model.ProductInput) (model.Product, error) {
	if err := s.validator.Product(in); err != nil {
		return model.Product{}, err
	}
	return s.products.Update(ctx, productFromInput(id, in))
}

func (s *ProductService) Delete(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

func productFromInput(id int64, in model.ProductInput) model.Product {
	categories := make([]model.Category, 0, len(in.CategoryIDs))
	for _, categoryID := range in.CategoryIDs {
		categories = append(categories, model.Category{ID: categoryID})
	}

	return model.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ImgURL:      strings.TrimSpace(in.ImgURL),
		Date:        in.Date.UTC(),
		Categories:  categories,
	}
}

type CategoryService struct {
	categories categoryStore
	validator  catalogValidator
}

func NewCategoryService(categories categoryStore, validator catalogValidator) *CategoryService {
	return &CategoryService{categories: categories, validator: validator}
}

func (s *CategoryService) FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.Category], error) {
	return s.categories.FindAllPaged(ctx, page.Normalize("name"))
}

func (s *CategoryService) FindByID(ctx context.Context, id int64) (model.Category, error) {
	return s.categories.FindByID(ctx, id)
}

func (s *CategoryService) Insert(ctx context.Context, in model.CategoryInput) (model.Category, error) {
	if err := s.validator.Category(in); err != nil {
		return model.Category{}, err
	}
	return s.categories.Create(ctx, model.Category{Name: strings.TrimSpace(in.Name)})
}

func (s *CategoryService) Update(ctx context.Context, id int64, in model.CategoryInput) (model.Category, error) {
	if err := s.validator.Category(in); err != nil {
		return model.Category{}, err
	}
	return s.categories.Update(ctx, model.Category{ID: id, Name: strings.TrimSpace(in.Name)})
}

// Delete fails with model.ErrIntegrityViolation while products reference the
// category.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	return s.categories.Delete(ctx, id)
}
