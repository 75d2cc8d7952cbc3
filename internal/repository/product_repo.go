package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dscatalog/internal/model"
)

var productOrderColumns = map[string]string{
	"id":    "p.id",
	"name":  "p.name",
	"price": "p.price",
	"date":  "p.date",
}

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) FindAllPaged(ctx context.Context, filter model.ProductFilter, page model.PageRequest) (model.Page[model.Product], error) {
	where, args := productWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tb_product p`+where, args...).Scan(&total); err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("count products: %w: %w", model.ErrStoreUnavailable, err)
	}

	args = append(args, page.Size, page.Offset())
	query := fmt.Sprintf(`SELECT p.id, p.name, p.description, p.price, p.img_url, p.date
		FROM tb_product p%s
		ORDER BY %s %s, p.id
		LIMIT $%d OFFSET $%d`,
		where, orderColumn(productOrderColumns, page.OrderBy, "p.name"), page.Direction, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("list products: %w: %w", model.ErrStoreUnavailable, err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return model.Page[model.Product]{}, readError("scan products", err)
	}

	if err := r.attachCategories(ctx, products); err != nil {
		return model.Page[model.Product]{}, err
	}

	return model.Page[model.Product]{Content: products, Total: total, Request: page}, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.description, p.price, p.img_url, p.date
		 FROM tb_product p WHERE p.id = $1`, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w: %w", model.ErrStoreUnavailable, err)
	}
	product, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Product{}, model.ErrProductNotFound
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("find product: %w", err)
	}

	products := []model.Product{product}
	if err := r.attachCategories(ctx, products); err != nil {
		return model.Product{}, err
	}
	return products[0], nil
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO tb_product (name, description, price, img_url, date)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			p.Name, p.Description, p.Price, p.ImgURL, p.Date.UTC()).Scan(&p.ID); err != nil {
			return classifyWriteError("create product", err)
		}
		return replaceProductCategories(ctx, tx, p.ID, p.Categories)
	})
	if err != nil {
		return model.Product{}, err
	}
	return r.FindByID(ctx, p.ID)
}

func (r *ProductRepository) Update(ctx context.Context, p model.Product) (model.Product, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tb_product SET name = $2, description = $3, price = $4, img_url = $5, date = $6
			 WHERE id = $1`,
			p.ID, p.Name, p.Description, p.Price, p.ImgURL, p.Date.UTC())
		if err != nil {
			return classifyWriteError("update product", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrProductNotFound
		}
		return replaceProductCategories(ctx, tx, p.ID, p.Categories)
	})
	if err != nil {
		return model.Product{}, err
	}
	return r.FindByID(ctx, p.ID)
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tb_product WHERE id = $1`, id)
	if err != nil {
		return classifyWriteError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) attachCategories(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	index := make(map[int64]int, len(products))
	for i := range products {
		ids[i] = products[i].ID
		index[products[i].ID] = i
		products[i].Categories = []model.Category{}
	}

	rows, err := r.pool.Query(ctx,
		`SELECT pc.product_id, c.id, c.name
		 FROM tb_product_category pc
		 JOIN tb_category c ON c.id = pc.category_id
		 WHERE pc.product_id = ANY($1)
		 ORDER BY c.name`, ids)
	if err != nil {
		return fmt.Errorf("load product categories: %w: %w", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID int64
		var c model.Category
		if err := rows.Scan(&productID, &c.ID, &c.Name); err != nil {
			return readError("scan product category", err)
		}
		i := index[productID]
		products[i].Categories = append(products[i].Categories, c)
	}
	return readError("load product categories", rows.Err())
}

func replaceProductCategories(ctx context.Context, tx pgx.Tx, productID int64, categories []model.Category) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tb_product_category WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear product categories: %w", err)
	}
	if len(categories) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(`INSERT INTO tb_product_category (product_id, category_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, productID, c.ID)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		err = classifyWriteError("assign product categories", err)
		if errors.Is(err, model.ErrIntegrityViolation) {
			return fmt.Errorf("assign product categories: %w", model.ErrCategoryNotFound)
		}
		return err
	}
	return nil
}

func productWhere(filter model.ProductFilter) (string, []any) {
	var clauses []string
	var args []any

	if filter.CategoryID > 0 {
		args = append(args, filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM tb_product_category pc WHERE pc.product_id = p.id AND pc.category_id = $%d)`, len(args)))
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		args = append(args, "%"+strings.ToLower(name)+"%")
		clauses = append(clauses, fmt.Sprintf(`lower(p.name) LIKE $%d`, len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanProduct(row pgx.CollectableRow) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImgURL, &p.Date)
	p.Date = p.Date.UTC()
	return p, err
}
