package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dscatalog/internal/model"
)

var categoryOrderColumns = map[string]string{
	"id":   "id",
	"name": "name",
}

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.Category], error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tb_category`).Scan(&total); err != nil {
		return model.Page[model.Category]{}, fmt.Errorf("count categories: %w: %w", model.ErrStoreUnavailable, err)
	}

	query := fmt.Sprintf(`SELECT id, name FROM tb_category ORDER BY %s %s, id LIMIT $1 OFFSET $2`,
		orderColumn(categoryOrderColumns, page.OrderBy, "name"), page.Direction)

	rows, err := r.pool.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return model.Page[model.Category]{}, fmt.Errorf("list categories: %w: %w", model.ErrStoreUnavailable, err)
	}
	categories, err := pgx.CollectRows(rows, pgx.RowToStructByPos[model.Category])
	if err != nil {
		return model.Page[model.Category]{}, readError("scan categories", err)
	}

	return model.Page[model.Category]{Content: categories, Total: total, Request: page}, nil
}

func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name FROM tb_category WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Category{}, model.ErrCategoryNotFound
	}
	if err != nil {
		return model.Category{}, fmt.Errorf("find category: %w: %w", model.ErrStoreUnavailable, err)
	}
	return c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO tb_category (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
	if err != nil {
		return model.Category{}, classifyWriteError("create category", err)
	}
	return c, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c model.Category) (model.Category, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tb_category SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return model.Category{}, classifyWriteError("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return model.Category{}, model.ErrCategoryNotFound
	}
	return c, nil
}

// Delete fails with model.ErrIntegrityViolation while products still
// reference the category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tb_category WHERE id = $1`, id)
	if err != nil {
		return classifyWriteError("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}
