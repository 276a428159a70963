package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Income  EntryType = "IN"
	Expense EntryType = "EX"
)

const (
	MaxCategoryName = 100
	MaxDescription  = 1000
	MaxUsername     = 150
)

type (
	// EntryType tags a transaction or category as money in or money out.
	EntryType string

	User struct {
		ID           int64
		Username     string
		PasswordHash []byte
		CreatedAt    time.Time
	}

	// Category is either owned by a user or global (OwnerID == nil).
	Category struct {
		ID        int64
		OwnerID   *int64
		Name      string
		Kind      EntryType
		CreatedAt time.Time
	}

	Transaction struct {
		ID           int64
		OwnerID      int64
		Type         EntryType
		Amount       Money
		CategoryID   *int64
		CategoryName string // resolved on read, empty when uncategorized
		Description  string
		Date         Date
		CreatedAt    time.Time
	}
)

// ErrValidation is wrapped by every input validation error in this package.
var ErrValidation = errors.New("validation failed")

var (
	ErrInvalidAmount      = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrInvalidType        = fmt.Errorf("%w: invalid type", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrEmptyName          = fmt.Errorf("%w: empty name", ErrValidation)
	ErrNameTooLong        = fmt.Errorf("%w: name too long (max %d characters)", ErrValidation, MaxCategoryName)
	ErrDescriptionTooLong = fmt.Errorf("%w: description too long (max %d characters)", ErrValidation, MaxDescription)
	ErrInvalidUsername    = fmt.Errorf("%w: invalid username", ErrValidation)
)

// ParseEntryType accepts the stored codes ("IN", "EX") and their long forms.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IN", "INCOME":
		return Income, nil
	case "EX", "EXPENSE":
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

// Label returns the human readable name used in exports.
func (t EntryType) Label() string {
	switch t {
	case Income:
		return "Income"
	case Expense:
		return "Expense"
	default:
		return string(t)
	}
}

func (c Category) IsGlobal() bool {
	return c.OwnerID == nil
}

// OwnedBy reports whether the category belongs to the given user.
func (c Category) OwnedBy(userID int64) bool {
	return c.OwnerID != nil && *c.OwnerID == userID
}

// VisibleTo reports whether the user may see or reference the category.
func (c Category) VisibleTo(userID int64) bool {
	return c.IsGlobal() || c.OwnedBy(userID)
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len([]rune(name)) > MaxCategoryName {
		return ErrNameTooLong
	}
	if !c.Kind.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len([]rune(t.Description)) > MaxDescription {
		return ErrDescriptionTooLong
	}
	return nil
}

// ValidateUsername trims the name and rejects empty, oversized or
// whitespace-containing usernames.
func ValidateUsername(username string) (string, error) {
	u := strings.TrimSpace(username)
	if u == "" || len(u) > MaxUsername || strings.ContainsAny(u, " \t\r\n") {
		return "", ErrInvalidUsername
	}
	return u, nil
}
