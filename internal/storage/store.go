// Package storage defines the persistence contracts for users, categories
// and transactions. Category and transaction access is only reachable
// through an OwnerScope, so every query is bound to a single user.
package storage

import (
	"context"
	"errors"

	"bilancio/internal/core"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrCategoryInUse     = errors.New("category is used by one or more transactions")
	ErrDuplicateCategory = errors.New("a category with this name already exists")
	ErrDuplicateUser     = errors.New("username already taken")
	ErrInvalidCategory   = errors.New("category not available")
)

// TransactionFilter narrows a transaction listing. Zero dates are unbounded;
// To is exclusive.
type TransactionFilter struct {
	From core.Date
	To   core.Date
}

// Matches reports whether d satisfies the filter.
func (f TransactionFilter) Matches(d core.Date) bool {
	if !f.From.IsZero() && d.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !d.Before(f.To) {
		return false
	}
	return true
}

type UserStore interface {
	CreateUser(ctx context.Context, username string, passwordHash []byte) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
}

// OwnerScope is the repository view of one user's data.
type OwnerScope interface {
	OwnerID() int64

	// VisibleCategories returns the user's categories and the global ones,
	// newest first.
	VisibleCategories(ctx context.Context) ([]core.Category, error)
	// Category returns a category owned by the user. Global categories are
	// not returned here.
	Category(ctx context.Context, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	// DeleteCategory removes an owned category. It fails with
	// ErrCategoryInUse, leaving everything intact, while any transaction
	// references it.
	DeleteCategory(ctx context.Context, id int64) error

	// CreateTransaction stores t for the user. A non-nil CategoryID must
	// name a category visible to the user.
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	// Transactions lists the user's transactions, newest date first and
	// highest id first within a date.
	Transactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
	Transaction(ctx context.Context, id int64) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	// TransactionsBetween returns transactions dated in [from, to) with
	// category names resolved.
	TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error)
}

type Store interface {
	UserStore
	Scope(ownerID int64) OwnerScope
	// CreateGlobalCategory adds a category visible to every user.
	CreateGlobalCategory(ctx context.Context, name string, kind core.EntryType) (core.Category, error)
	Ping(ctx context.Context) error
	Close() error
}
