package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type (
	// Workspace is a shared household scope owning categories and expenses.
	// The invite code is the sole join mechanism and never changes.
	Workspace struct {
		ID         string
		Name       string
		InviteCode string
		CreatedAt  time.Time
	}

	// Membership binds one user to exactly one workspace.
	Membership struct {
		ID          string
		WorkspaceID string
		UserID      string
		DisplayName string // empty means unset, fall back via ResolveDisplayName
		JoinedAt    time.Time
	}

	// Category is a spend tag scoped to a single workspace.
	Category struct {
		ID          string
		WorkspaceID string
		Name        string
		Emoji       string
		IsDefault   bool
		CreatedBy   string
		CreatedAt   time.Time
	}

	// Expense is one recorded spend event. SpentBy and RecordedBy may
	// differ: one partner can log an expense on behalf of the other.
	Expense struct {
		ID          string
		WorkspaceID string
		CategoryID  string
		Amount      int64 // whole currency units, always > 0
		Memo        string
		SpentAt     Date
		SpentBy     string
		RecordedBy  string
		CreatedAt   time.Time
	}

	// User is a registered account from the identity layer.
	User struct {
		ID           string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoWorkspace       = errors.New("no workspace membership")
	ErrAlreadyMember     = errors.New("user already belongs to a workspace")
	ErrInvalidAmount     = errors.New("amount must be a positive integer")
	ErrEmptyCategoryName = errors.New("category name cannot be empty")
	ErrEmptyDisplayName  = errors.New("display name cannot be empty")
	ErrEmptySpender      = errors.New("spender is required")
	ErrEmptyCategory     = errors.New("category is required")
	ErrInvalidDate       = errors.New("invalid date")
	ErrWorkspaceMismatch = errors.New("resource belongs to another workspace")
)

// InUseError reports a category delete refused because expenses still
// reference it. Count is the number of blocking expenses at check time.
type InUseError struct {
	Count int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("category in use by %d expenses", e.Count)
}

func (e Expense) Validate() error {
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.CategoryID == "" {
		return ErrEmptyCategory
	}
	if e.SpentAt.IsZero() {
		return ErrInvalidDate
	}
	if e.SpentBy == "" {
		return ErrEmptySpender
	}
	if len(e.Memo) > 200 {
		return errors.New("memo too long (max 200 characters)")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	if len(c.Name) > 50 {
		return errors.New("category name too long (max 50 characters)")
	}
	return nil
}

// ExpensePatch is a partial expense update; nil fields are left alone.
// There is no versioning: concurrent edits are last-write-wins.
type ExpensePatch struct {
	Amount     *int64
	CategoryID *string
	Memo       *string
	SpentAt    *Date
	SpentBy    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.CategoryID == nil && p.Memo == nil &&
		p.SpentAt == nil && p.SpentBy == nil
}

// Validate checks the fields the patch does set.
func (p ExpensePatch) Validate() error {
	if p.Amount != nil && *p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.CategoryID != nil && *p.CategoryID == "" {
		return ErrEmptyCategory
	}
	if p.SpentAt != nil && p.SpentAt.IsZero() {
		return ErrInvalidDate
	}
	if p.SpentBy != nil && *p.SpentBy == "" {
		return ErrEmptySpender
	}
	if p.Memo != nil && len(*p.Memo) > 200 {
		return errors.New("memo too long (max 200 characters)")
	}
	return nil
}

// ExpenseFilter optionally narrows a ledger query.
type ExpenseFilter struct {
	CategoryID string
	SpentBy    string
}

// DefaultCategory is one entry of the bootstrap seed.
type DefaultCategory struct {
	Name  string
	Emoji string
}

// DefaultCategories is the seed created for every new workspace.
func DefaultCategories() []DefaultCategory {
	return []DefaultCategory{
		{Name: "식비", Emoji: "🍚"},
		{Name: "카페·간식", Emoji: "☕"},
		{Name: "장보기", Emoji: "🛒"},
		{Name: "교통", Emoji: "🚌"},
		{Name: "생활용품", Emoji: "🧺"},
		{Name: "문화생활", Emoji: "🎬"},
		{Name: "의료·건강", Emoji: "💊"},
		{Name: "기타", Emoji: "💸"},
	}
}

// DefaultWorkspaceName is used when the creator does not name the workspace.
const DefaultWorkspaceName = "우리 가계부"
