package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nk2109/pantry/internal/core/domain"
	"github.com/nk2109/pantry/internal/port"
)

// Portable across the sqlite and mysql drivers: VARCHAR lengths satisfy
// MySQL's keyable-column rule, sqlite treats them as TEXT. Timestamps are
// stored as RFC3339 text so neither dialect's date functions are needed.
const createIngredientsTable = `CREATE TABLE IF NOT EXISTS ingredients (
	id VARCHAR(64) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	unit VARCHAR(20) NOT NULL,
	stock_qty DOUBLE PRECISION NOT NULL,
	shelf_life_days INT NOT NULL,
	purchased_at VARCHAR(64) NULL,
	created_at VARCHAR(64) NOT NULL,
	updated_at VARCHAR(64) NOT NULL
)`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLStore persists ingredients through database/sql. It works unchanged
// over the sqlite and mysql drivers.
type SQLStore struct {
	db *sql.DB
	q  querier // *sql.DB normally, *sql.Tx inside WithinTransaction
}

func NewSQLStore(ctx context.Context, db *sql.DB) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, createIngredientsTable); err != nil {
		return nil, fmt.Errorf("create ingredients table: %w", err)
	}
	return &SQLStore{db: db, q: db}, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (*domain.Ingredient, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, name, unit, stock_qty, shelf_life_days, purchased_at, created_at, updated_at
		FROM ingredients WHERE id = ?`, id)

	ing, err := scanIngredient(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ingredient: %w", err)
	}
	return ing, nil
}

func (s *SQLStore) GetAll(ctx context.Context) ([]domain.Ingredient, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, name, unit, stock_qty, shelf_life_days, purchased_at, created_at, updated_at
		FROM ingredients ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query ingredients: %w", err)
	}
	defer rows.Close()

	var out []domain.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient: %w", err)
		}
		out = append(out, *ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ingredients: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, ing domain.Ingredient) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO ingredients (id, name, unit, stock_qty, shelf_life_days, purchased_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ing.ID, ing.Name, ing.Unit, ing.StockQty, ing.ShelfLifeDays,
		fmtNullTime(ing.PurchasedAt), fmtTime(ing.CreatedAt), fmtTime(ing.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert ingredient: %w", err)
	}
	return nil
}

func (s *SQLStore) Update(ctx context.Context, id string, patch domain.IngredientPatch) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Unit != nil {
		sets = append(sets, "unit = ?")
		args = append(args, *patch.Unit)
	}
	if patch.StockQty != nil {
		sets = append(sets, "stock_qty = ?")
		args = append(args, *patch.StockQty)
	}
	if patch.ShelfLifeDays != nil {
		sets = append(sets, "shelf_life_days = ?")
		args = append(args, *patch.ShelfLifeDays)
	}
	if patch.PurchasedAt != nil {
		sets = append(sets, "purchased_at = ?")
		args = append(args, fmtTime(*patch.PurchasedAt))
	}
	if len(sets) == 0 {
		return nil
	}
	updatedAt := time.Now()
	if patch.UpdatedAt != nil {
		updatedAt = *patch.UpdatedAt
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, fmtTime(updatedAt))
	args = append(args, id)

	_, err := s.q.ExecContext(ctx,
		"UPDATE ingredients SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update ingredient: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.q.ExecContext(ctx, `DELETE FROM ingredients WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete ingredient: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *SQLStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ingredients`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ingredients: %w", err)
	}
	return n, nil
}

func (s *SQLStore) WithinTransaction(ctx context.Context, fn func(repo port.IngredientRepository) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		// Already scoped; join the open transaction.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLStore{db: s.db, q: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func scanIngredient(scan func(dest ...any) error) (*domain.Ingredient, error) {
	var (
		ing         domain.Ingredient
		purchasedAt sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := scan(&ing.ID, &ing.Name, &ing.Unit, &ing.StockQty, &ing.ShelfLifeDays,
		&purchasedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if ing.PurchasedAt, err = parseNullTime(purchasedAt); err != nil {
		return nil, err
	}
	if ing.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ing.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ing, nil
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func fmtNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
