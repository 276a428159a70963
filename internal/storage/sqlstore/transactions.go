package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

const transactionSelect = `SELECT t.id, t.owner_id, t.type, t.amount_cents, t.category_id,
	COALESCE(c.name, ''), t.description, t.date, t.created_at
	FROM transactions t
	LEFT JOIN categories c ON c.id = t.category_id`

const transactionOrder = ` ORDER BY t.date DESC, t.id DESC`

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t   core.Transaction
		typ string
		cat sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.OwnerID, &typ, &t.Amount.Cents, &cat,
		&t.CategoryName, &t.Description, &t.Date, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.EntryType(strings.TrimSpace(typ))
	t.CategoryID = idPtr(cat)
	return t, nil
}

// CreateTransaction verifies the category is visible to the owner and
// inserts the row in the same transaction.
func (sc *scope) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx, err := sc.s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	t.CategoryName = ""
	if t.CategoryID != nil {
		err := tx.QueryRowContext(ctx,
			sc.s.q(`SELECT name FROM categories WHERE id = ? AND (owner_id = ? OR owner_id IS NULL)`+sc.s.d.forShare),
			*t.CategoryID, sc.owner,
		).Scan(&t.CategoryName)
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, storage.ErrInvalidCategory
		}
		if err != nil {
			return core.Transaction{}, fmt.Errorf("failed to check category: %w", err)
		}
	}

	t.OwnerID = sc.owner
	t.CreatedAt = sc.s.timestamp()
	err = tx.QueryRowContext(ctx,
		sc.s.q(`INSERT INTO transactions (owner_id, type, amount_cents, category_id, description, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		t.OwnerID, string(t.Type), t.Amount.Cents, nullableID(t.CategoryID), t.Description, t.Date, t.CreatedAt,
	).Scan(&t.ID)
	if isForeignKeyViolation(err) {
		return core.Transaction{}, storage.ErrInvalidCategory
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit transaction insert: %w", err)
	}
	return t, nil
}

func (sc *scope) Transactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	var b strings.Builder
	b.WriteString(transactionSelect)
	b.WriteString(` WHERE t.owner_id = ?`)
	args := []any{sc.owner}
	if !f.From.IsZero() {
		b.WriteString(` AND t.date >= ?`)
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		b.WriteString(` AND t.date < ?`)
		args = append(args, f.To)
	}
	b.WriteString(transactionOrder)
	return sc.query(ctx, b.String(), args...)
}

func (sc *scope) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return sc.query(ctx, transactionSelect+` WHERE t.owner_id = ? AND t.date >= ? AND t.date < ?`+transactionOrder,
		sc.owner, from, to)
}

func (sc *scope) query(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := sc.s.db.QueryContext(ctx, sc.s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (sc *scope) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(sc.s.db.QueryRowContext(ctx,
		sc.s.q(transactionSelect+` WHERE t.id = ? AND t.owner_id = ?`), id, sc.owner))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (sc *scope) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := sc.s.db.ExecContext(ctx,
		sc.s.q(`DELETE FROM transactions WHERE id = ? AND owner_id = ?`), id, sc.owner)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return nil
}
