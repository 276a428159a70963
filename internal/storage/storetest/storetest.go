// Package storetest holds behaviour tests shared by every storage backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bilancio/internal/core"
	"bilancio/internal/report"
	"bilancio/internal/storage"
)

// Opener returns a fresh, empty store. The test owns closing it.
type Opener func(t *testing.T) storage.Store

// Run exercises the storage contract against the backend returned by open.
func Run(t *testing.T, open Opener) {
	t.Run("Users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("CategoryVisibility", func(t *testing.T) { testCategoryVisibility(t, open(t)) })
	t.Run("CategoryUniqueness", func(t *testing.T) { testCategoryUniqueness(t, open(t)) })
	t.Run("DeleteGuard", func(t *testing.T) { testDeleteGuard(t, open(t)) })
	t.Run("OwnerIsolation", func(t *testing.T) { testOwnerIsolation(t, open(t)) })
	t.Run("TransactionOrdering", func(t *testing.T) { testTransactionOrdering(t, open(t)) })
	t.Run("MonthBoundaries", func(t *testing.T) { testMonthBoundaries(t, open(t)) })
	t.Run("MonthlyReport", func(t *testing.T) { testMonthlyReport(t, open(t)) })
}

func newUser(t *testing.T, s storage.Store, name string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name, []byte("hash-"+name))
	require.NoError(t, err)
	return u
}

func newCategory(t *testing.T, sc storage.OwnerScope, name string, kind core.EntryType) core.Category {
	t.Helper()
	c, err := sc.CreateCategory(context.Background(), core.Category{Name: name, Kind: kind})
	require.NoError(t, err)
	return c
}

func newTx(t *testing.T, sc storage.OwnerScope, typ core.EntryType, amount string, cat *int64, date core.Date) core.Transaction {
	t.Helper()
	m, err := core.ParseAmount(amount)
	require.NoError(t, err)
	tx, err := sc.CreateTransaction(context.Background(), core.Transaction{Type: typ, Amount: m, CategoryID: cat, Date: date})
	require.NoError(t, err)
	return tx
}

func idOf(c core.Category) *int64 {
	id := c.ID
	return &id
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := newUser(t, s, "alice")
	assert.NotZero(t, alice.ID)
	assert.Equal(t, []byte("hash-alice"), alice.PasswordHash)

	_, err := s.CreateUser(ctx, "alice", []byte("x"))
	require.ErrorIs(t, err, storage.ErrDuplicateUser)

	got, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = s.UserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = s.UserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.UserByID(ctx, alice.ID+100)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testCategoryVisibility(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	bob := s.Scope(newUser(t, s, "bob").ID)

	global, err := s.CreateGlobalCategory(ctx, "Groceries", core.Expense)
	require.NoError(t, err)
	assert.True(t, global.IsGlobal())

	food := newCategory(t, alice, "Food", core.Expense)
	newCategory(t, bob, "Bob only", core.Income)

	cats, err := alice.VisibleCategories(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"Groceries", "Food"}, names)

	_, err = alice.Category(ctx, global.ID)
	require.ErrorIs(t, err, storage.ErrNotFound, "global categories are not owned")
	_, err = alice.UpdateCategory(ctx, core.Category{ID: global.ID, Name: "Mine", Kind: core.Expense})
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, alice.DeleteCategory(ctx, global.ID), storage.ErrNotFound)

	_, err = bob.Category(ctx, food.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	updated, err := alice.UpdateCategory(ctx, core.Category{ID: food.ID, Name: "Eating out", Kind: core.Expense})
	require.NoError(t, err)
	assert.Equal(t, "Eating out", updated.Name)
	got, err := alice.Category(ctx, food.ID)
	require.NoError(t, err)
	assert.Equal(t, "Eating out", got.Name)

	// A transaction may reference a global category but not another user's.
	newTx(t, bob, core.Expense, "5", idOf(global), core.NewDate(2025, 1, 1))
	_, err = bob.CreateTransaction(ctx, core.Transaction{Type: core.Expense, Amount: core.Money{Cents: 100}, CategoryID: idOf(food), Date: core.NewDate(2025, 1, 1)})
	require.ErrorIs(t, err, storage.ErrInvalidCategory)
}

func testCategoryUniqueness(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	bob := s.Scope(newUser(t, s, "bob").ID)

	_, err := s.CreateGlobalCategory(ctx, "Salary", core.Income)
	require.NoError(t, err)
	_, err = s.CreateGlobalCategory(ctx, "Salary", core.Income)
	require.ErrorIs(t, err, storage.ErrDuplicateCategory)

	newCategory(t, alice, "Salary", core.Income)
	_, err = alice.CreateCategory(ctx, core.Category{Name: "Salary", Kind: core.Income})
	require.ErrorIs(t, err, storage.ErrDuplicateCategory)
	newCategory(t, bob, "Salary", core.Income)

	other := newCategory(t, alice, "Bonus", core.Income)
	_, err = alice.UpdateCategory(ctx, core.Category{ID: other.ID, Name: "Salary", Kind: core.Income})
	require.ErrorIs(t, err, storage.ErrDuplicateCategory)

	_, err = alice.CreateCategory(ctx, core.Category{Name: "  ", Kind: core.Income})
	require.ErrorIs(t, err, core.ErrValidation)
}

func testDeleteGuard(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	food := newCategory(t, alice, "Food", core.Expense)
	tx := newTx(t, alice, core.Expense, "12.50", idOf(food), core.NewDate(2025, 2, 3))

	err := alice.DeleteCategory(ctx, food.ID)
	require.ErrorIs(t, err, storage.ErrCategoryInUse)

	_, err = alice.Category(ctx, food.ID)
	require.NoError(t, err, "category must survive a refused delete")
	got, err := alice.Transaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, food.ID, *got.CategoryID)

	require.NoError(t, alice.DeleteTransaction(ctx, tx.ID))
	require.NoError(t, alice.DeleteCategory(ctx, food.ID))
	_, err = alice.Category(ctx, food.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func testOwnerIsolation(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	bob := s.Scope(newUser(t, s, "bob").ID)
	tx := newTx(t, alice, core.Income, "100", nil, core.NewDate(2025, 3, 1))
	assert.Equal(t, alice.OwnerID(), tx.OwnerID)

	_, err := bob.Transaction(ctx, tx.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, bob.DeleteTransaction(ctx, tx.ID), storage.ErrNotFound)

	list, err := bob.Transactions(ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	between, err := bob.TransactionsBetween(ctx, core.NewDate(2025, 3, 1), core.NewDate(2025, 4, 1))
	require.NoError(t, err)
	assert.Empty(t, between)

	_, err = alice.Transaction(ctx, tx.ID)
	require.NoError(t, err)
}

func testTransactionOrdering(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	a := newTx(t, alice, core.Expense, "1", nil, core.NewDate(2025, 1, 10))
	b := newTx(t, alice, core.Expense, "2", nil, core.NewDate(2025, 1, 20))
	c := newTx(t, alice, core.Expense, "3", nil, core.NewDate(2025, 1, 10))
	d := newTx(t, alice, core.Expense, "4", nil, core.NewDate(2024, 12, 31))

	list, err := alice.Transactions(ctx, storage.TransactionFilter{})
	require.NoError(t, err)
	ids := make([]int64, 0, len(list))
	for _, tx := range list {
		ids = append(ids, tx.ID)
	}
	assert.Equal(t, []int64{b.ID, c.ID, a.ID, d.ID}, ids)

	jan, err := alice.Transactions(ctx, storage.TransactionFilter{From: core.NewDate(2025, 1, 1), To: core.NewDate(2025, 2, 1)})
	require.NoError(t, err)
	assert.Len(t, jan, 3)
}

func testMonthBoundaries(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	rent := newCategory(t, alice, "Rent", core.Expense)

	newTx(t, alice, core.Expense, "1", idOf(rent), core.NewDate(2025, 2, 28))
	first := newTx(t, alice, core.Expense, "2", idOf(rent), core.NewDate(2025, 3, 1))
	last := newTx(t, alice, core.Expense, "3", nil, core.NewDate(2025, 3, 31))
	newTx(t, alice, core.Expense, "4", idOf(rent), core.NewDate(2025, 4, 1))

	from, to := report.Month{Year: 2025, Month: time.March}.Bounds()
	rows, err := alice.TransactionsBetween(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[int64]core.Transaction{}
	for _, r := range rows {
		byID[r.ID] = r
	}
	assert.Equal(t, "Rent", byID[first.ID].CategoryName)
	assert.Equal(t, "", byID[last.ID].CategoryName)
	assert.Nil(t, byID[last.ID].CategoryID)
	assert.Equal(t, "2025-03-31", byID[last.ID].Date.String())
}

func testMonthlyReport(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := s.Scope(newUser(t, s, "alice").ID)
	bob := s.Scope(newUser(t, s, "bob").ID)
	food := newCategory(t, alice, "Food", core.Expense)

	newTx(t, alice, core.Income, "100.00", nil, core.NewDate(2025, 3, 1))
	newTx(t, alice, core.Expense, "40.00", idOf(food), core.NewDate(2025, 3, 5))
	newTx(t, alice, core.Expense, "10.00", nil, core.NewDate(2025, 3, 9))
	newTx(t, bob, core.Expense, "999.00", nil, core.NewDate(2025, 3, 9))

	svc := report.NewService(
		report.WithClock(func() time.Time { return time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC) }),
		report.WithLocation(time.UTC),
	)
	r, err := svc.Monthly(ctx, alice, "2025-03")
	require.NoError(t, err)

	assert.Equal(t, "100.00", r.TotalIncome.String())
	assert.Equal(t, "50.00", r.TotalExpense.String())
	assert.Equal(t, "50.00", r.Net.String())
	require.Len(t, r.Breakdown, 2)
	assert.Equal(t, "Food", r.Breakdown[0].CategoryName)
	assert.Equal(t, "80.00", r.Breakdown[0].ExpenseSharePct.StringFixed(2))
	assert.Equal(t, report.UncategorizedLabel, r.Breakdown[1].CategoryName)
	assert.Equal(t, "20.00", r.Breakdown[1].ExpenseSharePct.StringFixed(2))
}
