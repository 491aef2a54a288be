package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wemoney/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewSQLiteRepository(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func mustCreateUser(t *testing.T, repo *SQLiteRepository, email string) core.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", email, err)
	}
	return u
}

func mustCreateWorkspace(t *testing.T, repo *SQLiteRepository, userID string) core.Workspace {
	t.Helper()
	ws, err := repo.CreateWorkspaceWithDefaults(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreateWorkspaceWithDefaults: %v", err)
	}
	return ws
}

func TestCreateWorkspaceWithDefaults(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "a@example.com")

	ws := mustCreateWorkspace(t, repo, user.ID)
	if ws.InviteCode == "" || len(ws.InviteCode) != 8 {
		t.Errorf("invite code = %q, want 8 hex chars", ws.InviteCode)
	}

	// Creator membership exists.
	m, err := repo.GetMembershipByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetMembershipByUser: %v", err)
	}
	if m.WorkspaceID != ws.ID {
		t.Errorf("membership workspace = %s, want %s", m.WorkspaceID, ws.ID)
	}

	// Default categories seeded, sorted by name.
	cats, err := repo.ListCategories(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(cats) != len(core.DefaultCategories()) {
		t.Fatalf("seeded %d categories, want %d", len(cats), len(core.DefaultCategories()))
	}
	for i := 1; i < len(cats); i++ {
		if cats[i-1].Name > cats[i].Name {
			t.Errorf("categories out of order: %q > %q", cats[i-1].Name, cats[i].Name)
		}
	}
	for _, c := range cats {
		if !c.IsDefault {
			t.Errorf("seed category %q not marked default", c.Name)
		}
	}

	// Creating a second workspace for the same user must fail atomically.
	if _, err := repo.CreateWorkspaceWithDefaults(ctx, user.ID); !errors.Is(err, core.ErrAlreadyMember) {
		t.Fatalf("second create = %v, want ErrAlreadyMember", err)
	}
}

func TestInviteJoinFlow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	creator := mustCreateUser(t, repo, "creator@example.com")
	joiner := mustCreateUser(t, repo, "joiner@example.com")
	ws := mustCreateWorkspace(t, repo, creator.ID)

	resolved, err := repo.GetWorkspaceByInviteCode(ctx, ws.InviteCode)
	if err != nil {
		t.Fatalf("GetWorkspaceByInviteCode: %v", err)
	}
	if resolved.ID != ws.ID {
		t.Fatalf("resolved workspace %s, want %s", resolved.ID, ws.ID)
	}

	if _, err := repo.GetWorkspaceByInviteCode(ctx, "nope1234"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown code = %v, want ErrNotFound", err)
	}

	m, err := repo.AddMember(ctx, ws.ID, joiner.ID)
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.WorkspaceID != ws.ID {
		t.Fatalf("joined workspace %s, want %s", m.WorkspaceID, ws.ID)
	}

	// Resolving afterwards returns the same membership.
	got, err := repo.GetMembershipByUser(ctx, joiner.ID)
	if err != nil {
		t.Fatalf("GetMembershipByUser: %v", err)
	}
	if got.ID != m.ID || got.WorkspaceID != ws.ID {
		t.Fatalf("resolved membership %+v, want %+v", got, m)
	}

	// Joining again (any workspace) is rejected, not duplicated.
	if _, err := repo.AddMember(ctx, ws.ID, joiner.ID); !errors.Is(err, core.ErrAlreadyMember) {
		t.Fatalf("second join = %v, want ErrAlreadyMember", err)
	}
	members, err := repo.ListMembers(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListMembers: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("got %d members, want 2", len(members))
	}
}

func TestUpdateDisplayName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "a@example.com")
	mustCreateWorkspace(t, repo, user.ID)

	if err := repo.UpdateDisplayName(ctx, user.ID, "지은"); err != nil {
		t.Fatalf("UpdateDisplayName: %v", err)
	}
	m, err := repo.GetMembershipByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetMembershipByUser: %v", err)
	}
	if m.DisplayName != "지은" {
		t.Fatalf("display name = %q, want 지은", m.DisplayName)
	}

	// No membership, no update.
	stranger := mustCreateUser(t, repo, "b@example.com")
	if err := repo.UpdateDisplayName(ctx, stranger.ID, "x"); !errors.Is(err, core.ErrNoWorkspace) {
		t.Fatalf("stranger update = %v, want ErrNoWorkspace", err)
	}
}

func TestCategoryDeleteGuard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "a@example.com")
	ws := mustCreateWorkspace(t, repo, user.ID)

	cat, err := repo.CreateCategory(ctx, ws.ID, "데이트", "💐", user.ID)
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	exp, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: ws.ID,
		CategoryID:  cat.ID,
		Amount:      42000,
		SpentAt:     core.NewDate(2024, time.March, 14),
		SpentBy:     user.ID,
		RecordedBy:  user.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	// One referencing expense blocks deletion with its count.
	err = repo.DeleteCategory(ctx, ws.ID, cat.ID)
	var inUse *core.InUseError
	if !errors.As(err, &inUse) {
		t.Fatalf("delete with reference = %v, want InUseError", err)
	}
	if inUse.Count != 1 {
		t.Fatalf("blocking count = %d, want 1", inUse.Count)
	}

	// Category must still be intact.
	if _, err := repo.GetCategory(ctx, cat.ID); err != nil {
		t.Fatalf("category gone after refused delete: %v", err)
	}

	// After the expense is removed, deletion succeeds.
	if err := repo.DeleteExpense(ctx, ws.ID, exp.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if err := repo.DeleteCategory(ctx, ws.ID, cat.ID); err != nil {
		t.Fatalf("delete after unreference: %v", err)
	}
	if _, err := repo.GetCategory(ctx, cat.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("category still present after delete: %v", err)
	}

	// Deleting a missing category reports not found.
	if err := repo.DeleteCategory(ctx, ws.ID, cat.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
}

func TestExpenseCrossWorkspaceRejected(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	alice := mustCreateUser(t, repo, "a@example.com")
	bob := mustCreateUser(t, repo, "b@example.com")
	wsA := mustCreateWorkspace(t, repo, alice.ID)
	wsB := mustCreateWorkspace(t, repo, bob.ID)

	catsB, err := repo.ListCategories(ctx, wsB.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}

	_, err = repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: wsA.ID,
		CategoryID:  catsB[0].ID, // category from the other workspace
		Amount:      1000,
		SpentAt:     core.NewDate(2024, time.March, 1),
		SpentBy:     alice.ID,
		RecordedBy:  alice.ID,
	})
	if !errors.Is(err, core.ErrWorkspaceMismatch) {
		t.Fatalf("cross-workspace create = %v, want ErrWorkspaceMismatch", err)
	}

	// Same rejection on update.
	catsA, _ := repo.ListCategories(ctx, wsA.ID)
	exp, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: wsA.ID,
		CategoryID:  catsA[0].ID,
		Amount:      1000,
		SpentAt:     core.NewDate(2024, time.March, 1),
		SpentBy:     alice.ID,
		RecordedBy:  alice.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	foreign := catsB[0].ID
	err = repo.UpdateExpense(ctx, wsA.ID, exp.ID, core.ExpensePatch{CategoryID: &foreign})
	if !errors.Is(err, core.ErrWorkspaceMismatch) {
		t.Fatalf("cross-workspace update = %v, want ErrWorkspaceMismatch", err)
	}
}

func TestListExpensesOrderingAndFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "a@example.com")
	partner := mustCreateUser(t, repo, "b@example.com")
	ws := mustCreateWorkspace(t, repo, user.ID)
	if _, err := repo.AddMember(ctx, ws.ID, partner.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	cats, _ := repo.ListCategories(ctx, ws.ID)

	add := func(amount int64, day int, spentBy, categoryID string) core.Expense {
		e, err := repo.CreateExpense(ctx, core.Expense{
			WorkspaceID: ws.ID,
			CategoryID:  categoryID,
			Amount:      amount,
			SpentAt:     core.NewDate(2024, time.March, day),
			SpentBy:     spentBy,
			RecordedBy:  user.ID,
		})
		if err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
		return e
	}

	first := add(1000, 5, user.ID, cats[0].ID)
	second := add(2000, 5, partner.ID, cats[1].ID) // same day, created later
	older := add(3000, 1, user.ID, cats[0].ID)
	outside := add(9999, 5, user.ID, cats[0].ID)
	// Move the last one out of the window.
	april := core.NewDate(2024, time.April, 5)
	if err := repo.UpdateExpense(ctx, ws.ID, outside.ID, core.ExpensePatch{SpentAt: &april}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	from, to := core.Month{Year: 2024, Month: time.March}.Window()
	got, err := repo.ListExpenses(ctx, ws.ID, from, to, core.ExpenseFilter{})
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d expenses in window, want 3", len(got))
	}
	// spent_at desc, then created_at desc within the same day.
	if got[0].ID != second.ID || got[1].ID != first.ID || got[2].ID != older.ID {
		t.Fatalf("ordering wrong: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}

	bySpender, err := repo.ListExpenses(ctx, ws.ID, from, to, core.ExpenseFilter{SpentBy: partner.ID})
	if err != nil {
		t.Fatalf("ListExpenses by spender: %v", err)
	}
	if len(bySpender) != 1 || bySpender[0].ID != second.ID {
		t.Fatalf("spender filter returned %+v", bySpender)
	}

	byCategory, err := repo.ListExpenses(ctx, ws.ID, from, to, core.ExpenseFilter{CategoryID: cats[1].ID})
	if err != nil {
		t.Fatalf("ListExpenses by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].ID != second.ID {
		t.Fatalf("category filter returned %+v", byCategory)
	}
}

func TestUpdateExpensePatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	user := mustCreateUser(t, repo, "a@example.com")
	ws := mustCreateWorkspace(t, repo, user.ID)
	cats, _ := repo.ListCategories(ctx, ws.ID)

	exp, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: ws.ID,
		CategoryID:  cats[0].ID,
		Amount:      1000,
		Memo:        "점심",
		SpentAt:     core.NewDate(2024, time.March, 1),
		SpentBy:     user.ID,
		RecordedBy:  user.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	amount := int64(2500)
	memo := ""
	if err := repo.UpdateExpense(ctx, ws.ID, exp.ID, core.ExpensePatch{Amount: &amount, Memo: &memo}); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}

	got, err := repo.GetExpense(ctx, exp.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Amount != 2500 {
		t.Errorf("amount = %d, want 2500", got.Amount)
	}
	if got.Memo != "" {
		t.Errorf("memo = %q, want cleared", got.Memo)
	}
	if got.CategoryID != cats[0].ID {
		t.Errorf("untouched field changed: category = %s", got.CategoryID)
	}

	// Unknown id reports not found.
	if err := repo.UpdateExpense(ctx, ws.ID, "missing", core.ExpensePatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update missing = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteExpense(ctx, ws.ID, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("delete missing = %v, want ErrNotFound", err)
	}
}

func TestUserLookup(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	u := mustCreateUser(t, repo, "a@example.com")

	byEmail, err := repo.GetUserByEmail(ctx, "a@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("GetUserByEmail = %+v, %v", byEmail, err)
	}
	byID, err := repo.GetUser(ctx, u.ID)
	if err != nil || byID.Email != "a@example.com" {
		t.Fatalf("GetUser = %+v, %v", byID, err)
	}
	if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("missing user = %v, want ErrNotFound", err)
	}
}
