package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"dscatalog/internal/model"
)

type passwordHasher interface {
	Hash(plain string) (string, error)
}

type seedUser struct {
	firstName string
	lastName  string
	email     string
	roles     []string
}

type seedProduct struct {
	name        string
	description string
	price       float64
	imgURL      string
	categories  []string
}

const demoPassword = "123456"

var (
	seedUsers = []seedUser{
		{firstName: "Maria", lastName: "Green", email: "maria@gmail.com", roles: []string{model.RoleOperator}},
		{firstName: "Alex", lastName: "Brown", email: "alex@gmail.com", roles: []string{model.RoleOperator, model.RoleAdmin}},
	}

	seedCategories = []string{"Livros", "Eletrônicos", "Computadores"}

	seedProducts = []seedProduct{
		{
			name:        "The Lord of the Rings",
			description: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			price:       90.5,
			imgURL:      "https://raw.githubusercontent.com/devsuperior/dscatalog-resources/master/backend/img/1-big.jpg",
			categories:  []string{"Livros"},
		},
		{
			name:        "Smart TV",
			description: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			price:       2190.0,
			imgURL:      "https://raw.githubusercontent.com/devsuperior/dscatalog-resources/master/backend/img/2-big.jpg",
			categories:  []string{"Eletrônicos", "Computadores"},
		},
		{
			name:        "Macbook Pro",
			description: "Lorem ipsum dolor sit amet, consectetur adipiscing elit.",
			price:       1250.0,
			imgURL:      "https://raw.githubusercontent.com/devsuperior/dscatalog-resources/master/backend/img/3-big.jpg",
			categories:  []string{"Computadores"},
		},
	}
)

// Seed inserts the demo roles, users and catalog. Rows that already exist are
// left untouched, so it can run against a populated database.
func (db *DB) Seed(ctx context.Context, hasher passwordHasher) error {
	hash, err := hasher.Hash(demoPassword)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	return pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		for _, role := range []string{model.RoleOperator, model.RoleAdmin} {
			if _, err := tx.Exec(ctx,
				`INSERT INTO tb_role (authority) VALUES ($1) ON CONFLICT (authority) DO NOTHING`, role); err != nil {
				return fmt.Errorf("seed role %s: %w", role, err)
			}
		}

		for _, u := range seedUsers {
			if err := seedOneUser(ctx, tx, u, hash); err != nil {
				return err
			}
		}

		categoryIDs := make(map[string]int64, len(seedCategories))
		for _, name := range seedCategories {
			id, err := seedCategory(ctx, tx, name)
			if err != nil {
				return err
			}
			categoryIDs[name] = id
		}

		for _, p := range seedProducts {
			if err := seedOneProduct(ctx, tx, p, categoryIDs); err != nil {
				return err
			}
		}

		slog.Info("database seeded", "users", len(seedUsers), "categories", len(seedCategories), "products", len(seedProducts))
		return nil
	})
}

func seedOneUser(ctx context.Context, tx pgx.Tx, u seedUser, hash string) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM tb_user WHERE lower(email) = lower($1)`, u.email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("seed user %s: %w", u.email, err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO tb_user (first_name, last_name, email, password) VALUES ($1, $2, $3, $4) RETURNING id`,
		u.firstName, u.lastName, u.email, hash).Scan(&id); err != nil {
		return fmt.Errorf("seed user %s: %w", u.email, err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO tb_user_role (user_id, role_id) SELECT $1, id FROM tb_role WHERE authority = ANY($2)`,
		id, u.roles); err != nil {
		return fmt.Errorf("seed roles for %s: %w", u.email, err)
	}
	return nil
}

func seedCategory(ctx context.Context, tx pgx.Tx, name string) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM tb_category WHERE name = $1`, name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `INSERT INTO tb_category (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("seed category %s: %w", name, err)
	}
	return id, nil
}

func seedOneProduct(ctx context.Context, tx pgx.Tx, p seedProduct, categoryIDs map[string]int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM tb_product WHERE name = $1`, p.name).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("seed product %s: %w", p.name, err)
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO tb_product (name, description, price, img_url, date) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.name, p.description, p.price, p.imgURL, time.Date(2020, time.July, 13, 20, 50, 7, 0, time.UTC)).Scan(&id); err != nil {
		return fmt.Errorf("seed product %s: %w", p.name, err)
	}

	for _, name := range p.categories {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tb_product_category (product_id, category_id) VALUES ($1, $2)`, id, categoryIDs[name]); err != nil {
			return fmt.Errorf("seed product %s category %s: %w", p.name, name, err)
		}
	}
	return nil
}
