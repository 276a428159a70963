// Package memory is an in-process storage backend. Data lives for the
// lifetime of the process.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/storage"
)

type Store struct {
	mu     sync.RWMutex
	now    func() time.Time
	nextID int64

	users []core.User
	cats  map[int64]core.Category
	txs   map[int64]core.Transaction
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:  time.Now,
		cats: make(map[int64]core.Category),
		txs:  make(map[int64]core.Transaction),
	}
}

// Seed adds global categories, skipping names that already exist.
func (s *Store) Seed(ctx context.Context, kind core.EntryType, names ...string) error {
	for _, name := range names {
		if _, err := s.CreateGlobalCategory(ctx, name, kind); err != nil && !errors.Is(err, storage.ErrDuplicateCategory) {
			return err
		}
	}
	return nil
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error              { return nil }

func (s *Store) CreateUser(_ context.Context, username string, hash []byte) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return core.User{}, storage.ErrDuplicateUser
		}
	}
	u := core.User{ID: s.id(), Username: username, PasswordHash: append([]byte(nil), hash...), CreatedAt: s.now()}
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) UserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
}

func (s *Store) UserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
}

func (s *Store) CreateGlobalCategory(_ context.Context, name string, kind core.EntryType) (core.Category, error) {
	c := core.Category{Name: strings.TrimSpace(name), Kind: kind}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCategory(c)
}

// insertCategory enforces name uniqueness per owner. Callers hold mu.
func (s *Store) insertCategory(c core.Category) (core.Category, error) {
	if s.nameTaken(c.OwnerID, c.Name, 0) {
		return core.Category{}, storage.ErrDuplicateCategory
	}
	c.ID = s.id()
	c.CreatedAt = s.now()
	s.cats[c.ID] = c
	return c, nil
}

func (s *Store) nameTaken(owner *int64, name string, except int64) bool {
	for _, c := range s.cats {
		if c.ID == except || c.Name != name {
			continue
		}
		if owner == nil && c.OwnerID == nil {
			return true
		}
		if owner != nil && c.OwnerID != nil && *owner == *c.OwnerID {
			return true
		}
	}
	return false
}

func (s *Store) Scope(ownerID int64) storage.OwnerScope {
	return &scope{s: s, owner: ownerID}
}

type scope struct {
	s     *Store
	owner int64
}

func (sc *scope) OwnerID() int64 { return sc.owner }

func (sc *scope) VisibleCategories(context.Context) ([]core.Category, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	out := make([]core.Category, 0)
	for _, c := range sc.s.cats {
		if c.VisibleTo(sc.owner) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (sc *scope) Category(_ context.Context, id int64) (core.Category, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	return sc.owned(id)
}

func (sc *scope) owned(id int64) (core.Category, error) {
	c, ok := sc.s.cats[id]
	if !ok || !c.OwnedBy(sc.owner) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (sc *scope) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	owner := sc.owner
	c.OwnerID = &owner
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	return sc.s.insertCategory(c)
}

func (sc *scope) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	existing, err := sc.owned(c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if sc.s.nameTaken(existing.OwnerID, c.Name, c.ID) {
		return core.Category{}, storage.ErrDuplicateCategory
	}
	existing.Name = c.Name
	existing.Kind = c.Kind
	sc.s.cats[existing.ID] = existing
	return existing, nil
}

func (sc *scope) DeleteCategory(_ context.Context, id int64) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if _, err := sc.owned(id); err != nil {
		return err
	}
	for _, t := range sc.s.txs {
		if t.CategoryID != nil && *t.CategoryID == id {
			return storage.ErrCategoryInUse
		}
	}
	delete(sc.s.cats, id)
	return nil
}

func (sc *scope) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	if t.CategoryID != nil {
		c, ok := sc.s.cats[*t.CategoryID]
		if !ok || !c.VisibleTo(sc.owner) {
			return core.Transaction{}, storage.ErrInvalidCategory
		}
		id := c.ID
		t.CategoryID = &id
	}
	t.ID = sc.s.id()
	t.OwnerID = sc.owner
	t.CategoryName = ""
	t.CreatedAt = sc.s.now()
	sc.s.txs[t.ID] = t
	return sc.resolve(t), nil
}

// resolve fills in the category name. Callers hold mu.
func (sc *scope) resolve(t core.Transaction) core.Transaction {
	if t.CategoryID != nil {
		if c, ok := sc.s.cats[*t.CategoryID]; ok {
			t.CategoryName = c.Name
		}
	}
	return t
}

func (sc *scope) Transactions(_ context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	out := make([]core.Transaction, 0)
	for _, t := range sc.s.txs {
		if t.OwnerID == sc.owner && f.Matches(t.Date) {
			out = append(out, sc.resolve(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (sc *scope) Transaction(_ context.Context, id int64) (core.Transaction, error) {
	sc.s.mu.RLock()
	defer sc.s.mu.RUnlock()
	t, ok := sc.s.txs[id]
	if !ok || t.OwnerID != sc.owner {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	return sc.resolve(t), nil
}

func (sc *scope) DeleteTransaction(_ context.Context, id int64) error {
	sc.s.mu.Lock()
	defer sc.s.mu.Unlock()
	t, ok := sc.s.txs[id]
	if !ok || t.OwnerID != sc.owner {
		return fmt.Errorf("transaction %d: %w", id, storage.ErrNotFound)
	}
	delete(sc.s.txs, id)
	return nil
}

func (sc *scope) TransactionsBetween(ctx context.Context, from, to core.Date) ([]core.Transaction, error) {
	return sc.Transactions(ctx, storage.TransactionFilter{From: from, To: to})
}
