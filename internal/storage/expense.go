package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"wemoney/internal/core"
)

// CreateExpense persists a validated expense. The category is verified to
// belong to the same workspace; the store does not enforce that
// structurally, so the check is explicit.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := r.checkCategoryWorkspace(ctx, e.WorkspaceID, e.CategoryID); err != nil {
		return core.Expense{}, err
	}

	e.ID = uuid.New().String()
	e.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, workspace_id, category_id, amount, memo, spent_at, spent_by, recorded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.WorkspaceID, e.CategoryID, e.Amount, nullEmpty(e.Memo),
		e.SpentAt.String(), e.SpentBy, e.RecordedBy, formatTime(e.CreatedAt),
	)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"workspace_id", e.WorkspaceID,
		"amount", e.Amount,
		"spent_at", e.SpentAt.String())
	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, category_id, amount, memo, spent_at, spent_by, recorded_by, created_at
		 FROM expenses WHERE id = ?`, id)
	return scanExpense(row)
}

// UpdateExpense applies a partial update in a single UPDATE statement.
// A category change is re-checked against the workspace first.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, workspaceID, id string, patch core.ExpensePatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if patch.CategoryID != nil {
		if err := r.checkCategoryWorkspace(ctx, workspaceID, *patch.CategoryID); err != nil {
			return err
		}
	}

	var sets []string
	var args []any
	if patch.Amount != nil {
		sets = append(sets, "amount = ?")
		args = append(args, *patch.Amount)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Memo != nil {
		sets = append(sets, "memo = ?")
		args = append(args, nullEmpty(*patch.Memo))
	}
	if patch.SpentAt != nil {
		sets = append(sets, "spent_at = ?")
		args = append(args, patch.SpentAt.String())
	}
	if patch.SpentBy != nil {
		sets = append(sets, "spent_by = ?")
		args = append(args, *patch.SpentBy)
	}
	args = append(args, id, workspaceID)

	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE expenses SET %s WHERE id = ? AND workspace_id = ?`, strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteExpense performs a hard delete; there is no soft-delete or undo.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, workspaceID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE id = ? AND workspace_id = ?`, id, workspaceID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id, "workspace_id", workspaceID)
	return nil
}

// ListExpenses returns the workspace's expenses inside the inclusive
// [from, to] date range, newest first: spent_at desc with created_at
// desc as the tie-break, the ordering the display layer depends on.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, workspaceID string, from, to core.Date, filter core.ExpenseFilter) ([]core.Expense, error) {
	query := `SELECT id, workspace_id, category_id, amount, memo, spent_at, spent_by, recorded_by, created_at
		 FROM expenses
		 WHERE workspace_id = ? AND spent_at >= ? AND spent_at <= ?`
	args := []any{workspaceID, from.String(), to.String()}

	if filter.CategoryID != "" {
		query += " AND category_id = ?"
		args = append(args, filter.CategoryID)
	}
	if filter.SpentBy != "" {
		query += " AND spent_by = ?"
		args = append(args, filter.SpentBy)
	}
	query += " ORDER BY spent_at DESC, created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// checkCategoryWorkspace rejects cross-workspace category references.
func (r *SQLiteRepository) checkCategoryWorkspace(ctx context.Context, workspaceID, categoryID string) error {
	var owner string
	err := r.db.QueryRowContext(ctx,
		`SELECT workspace_id FROM categories WHERE id = ?`, categoryID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check category workspace: %w", err)
	}
	if owner != workspaceID {
		return core.ErrWorkspaceMismatch
	}
	return nil
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var memo sql.NullString
	var spentAt, createdAt string
	if err := row.Scan(&e.ID, &e.WorkspaceID, &e.CategoryID, &e.Amount, &memo,
		&spentAt, &e.SpentBy, &e.RecordedBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, core.ErrNotFound
		}
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	e.Memo = memo.String
	d, err := core.ParseDate(spentAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse spent_at: %w", err)
	}
	e.SpentAt = d
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

func nullEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
