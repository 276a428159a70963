package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

const categoryColumns = `id, owner_id, name, kind, created_at`

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c     core.Category
		owner sql.NullInt64
		kind  string
	)
	if err := row.Scan(&c.ID, &owner, &c.Name, &kind, &c.CreatedAt); err != nil {
		return core.Category{}, err
	}
	c.OwnerID = idPtr(owner)
	c.Kind = core.EntryType(strings.TrimSpace(kind))
	return c, nil
}

func (s *Store) CreateGlobalCategory(ctx context.Context, name string, kind core.EntryType) (core.Category, error) {
	return s.insertCategory(ctx, core.Category{Name: name, Kind: kind})
}

func (s *Store) insertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = s.timestamp()
	err := s.db.QueryRowContext(ctx,
		s.q(`INSERT INTO categories (owner_id, name, kind, created_at) VALUES (?, ?, ?, ?) RETURNING id`),
		nullableID(c.OwnerID), c.Name, string(c.Kind), c.CreatedAt,
	).Scan(&c.ID)
	if isUniqueViolation(err) {
		return core.Category{}, storage.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("failed to create category: %w", err)
	}
	return c, nil
}

func (sc *scope) VisibleCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := sc.s.db.QueryContext(ctx, sc.s.q(`SELECT `+categoryColumns+` FROM categories
		WHERE owner_id = ? OR owner_id IS NULL
		ORDER BY created_at DESC, id DESC`), sc.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	out := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (sc *scope) Category(ctx context.Context, id int64) (core.Category, error) {
	c, err := scanCategory(sc.s.db.QueryRowContext(ctx,
		sc.s.q(`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND owner_id = ?`), id, sc.owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (sc *scope) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	owner := sc.owner
	c.OwnerID = &owner
	return sc.s.insertCategory(ctx, c)
}

func (sc *scope) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	updated, err := scanCategory(sc.s.db.QueryRowContext(ctx,
		sc.s.q(`UPDATE categories SET name = ?, kind = ? WHERE id = ? AND owner_id = ?
		RETURNING `+categoryColumns),
		c.Name, string(c.Kind), c.ID, sc.owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", c.ID, storage.ErrNotFound)
	}
	if isUniqueViolation(err) {
		return core.Category{}, storage.ErrDuplicateCategory
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("failed to update category: %w", err)
	}
	return updated, nil
}

// DeleteCategory checks for references and deletes inside one transaction.
// On postgres the category row is locked first, so a concurrent insert that
// references it waits for the outcome.
func (sc *scope) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := sc.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var found int64
	err = tx.QueryRowContext(ctx,
		sc.s.q(`SELECT id FROM categories WHERE id = ? AND owner_id = ?`+sc.s.d.forUpdate), id, sc.owner,
	).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock category: %w", err)
	}

	var inUse bool
	if err := tx.QueryRowContext(ctx,
		sc.s.q(`SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = ?)`), id,
	).Scan(&inUse); err != nil {
		return fmt.Errorf("failed to check category usage: %w", err)
	}
	if inUse {
		slog.InfoContext(ctx, "Refused to delete category in use", "category_id", id, "user_id", sc.owner)
		return storage.ErrCategoryInUse
	}

	if _, err := tx.ExecContext(ctx, sc.s.q(`DELETE FROM categories WHERE id = ? AND owner_id = ?`), id, sc.owner); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category delete: %w", err)
	}
	return nil
}
