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

const userSelect = `
	SELECT u.id, u.first_name, u.last_name, u.email, u.password,
	       COALESCE(array_agg(r.authority ORDER BY r.authority) FILTER (WHERE r.authority IS NOT NULL), '{}')
	FROM tb_user u
	LEFT JOIN tb_user_role ur ON ur.user_id = u.id
	LEFT JOIN tb_role r ON r.id = ur.role_id`

var userOrderColumns = map[string]string{
	"id":        "u.id",
	"firstName": "u.first_name",
	"email":     "u.email",
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindByEmail matches case-insensitively. It returns model.ErrUserNotFound when
// no user owns the email and wraps model.ErrStoreUnavailable on query failures.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+`
	WHERE lower(u.email) = lower($1)
	GROUP BY u.id`, strings.TrimSpace(email))

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w: %w", model.ErrStoreUnavailable, err)
	}
	return u, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	row := r.pool.QueryRow(ctx, userSelect+`
	WHERE u.id = $1
	GROUP BY u.id`, id)

	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w: %w", model.ErrStoreUnavailable, err)
	}
	return u, nil
}

func (r *UserRepository) FindAllPaged(ctx context.Context, page model.PageRequest) (model.Page[model.User], error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tb_user`).Scan(&total); err != nil {
		return model.Page[model.User]{}, fmt.Errorf("count users: %w: %w", model.ErrStoreUnavailable, err)
	}

	query := fmt.Sprintf(`%s
	GROUP BY u.id
	ORDER BY %s %s, u.id
	LIMIT $1 OFFSET $2`, userSelect, orderColumn(userOrderColumns, page.OrderBy, "u.first_name"), page.Direction)

	rows, err := r.pool.Query(ctx, query, page.Size, page.Offset())
	if err != nil {
		return model.Page[model.User]{}, fmt.Errorf("list users: %w: %w", model.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	users := make([]model.User, 0, page.Size)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return model.Page[model.User]{}, readError("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.User]{}, readError("list users", err)
	}

	return model.Page[model.User]{Content: users, Total: total, Request: page}, nil
}

func (r *UserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO tb_user (first_name, last_name, email, password)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			u.FirstName, u.LastName, strings.TrimSpace(u.Email), u.PasswordHash).Scan(&u.ID); err != nil {
			return classifyWriteError("create user", err)
		}
		return replaceRoles(ctx, tx, u.ID, u.Roles)
	})
	if err != nil {
		return model.User{}, err
	}
	return r.FindByID(ctx, u.ID)
}

func (r *UserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE tb_user SET first_name = $2, last_name = $3, email = $4 WHERE id = $1`,
			u.ID, u.FirstName, u.LastName, strings.TrimSpace(u.Email))
		if err != nil {
			return classifyWriteError("update user", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrUserNotFound
		}
		return replaceRoles(ctx, tx, u.ID, u.Roles)
	})
	if err != nil {
		return model.User{}, err
	}
	return r.FindByID(ctx, u.ID)
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tb_user WHERE id = $1`, id)
	if err != nil {
		return classifyWriteError("delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func replaceRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM tb_user_role WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear user roles: %w", err)
	}

	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		normalized = append(normalized, model.NormalizeRole(role))
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO tb_user_role (user_id, role_id)
		 SELECT $1, id FROM tb_role WHERE authority = ANY($2)`,
		userID, normalized)
	if err != nil {
		return fmt.Errorf("assign user roles: %w", err)
	}
	if int(tag.RowsAffected()) != len(uniqueStrings(normalized)) {
		return fmt.Errorf("assign user roles: %w: unknown role in %v", model.ErrInvalidInput, roles)
	}
	return nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Roles)
	return u, err
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
