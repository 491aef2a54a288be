package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wemoney/internal/core"
)

// ListCategories returns the workspace's categories sorted by name,
// ascending, case-sensitive (SQLite's default BINARY collation).
func (r *SQLiteRepository) ListCategories(ctx context.Context, workspaceID string) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, name, emoji, is_default, created_by, created_at
		 FROM categories WHERE workspace_id = ? ORDER BY name`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a user-defined category. Duplicate names are
// allowed; there is no uniqueness constraint on (workspace_id, name).
func (r *SQLiteRepository) CreateCategory(ctx context.Context, workspaceID, name, emoji, creatorID string) (core.Category, error) {
	c := core.Category{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		Name:        name,
		Emoji:       emoji,
		CreatedBy:   creatorID,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, workspace_id, name, emoji, is_default, created_by, created_at)
		 VALUES (?, ?, ?, ?, 0, ?, ?)`,
		c.ID, c.WorkspaceID, c.Name, c.Emoji, c.CreatedBy, formatTime(c.CreatedAt),
	)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id string) (core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, emoji, is_default, created_by, created_at
		 FROM categories WHERE id = ?`, id)
	return scanCategory(row)
}

// DeleteCategory removes a category only if no expense references it.
// The guard and the delete are one statement, so an expense inserted
// concurrently cannot slip between a count check and the delete.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, workspaceID, categoryID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories
		 WHERE id = ? AND workspace_id = ?
		   AND NOT EXISTS (SELECT 1 FROM expenses WHERE category_id = ?)`,
		categoryID, workspaceID, categoryID,
	)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Category deleted",
			"workspace_id", workspaceID, "category_id", categoryID)
		return nil
	}

	// Nothing was deleted: either the category is still referenced, or
	// it does not exist in this workspace.
	count, err := r.CountExpensesByCategory(ctx, workspaceID, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return &core.InUseError{Count: count}
	}
	return core.ErrNotFound
}

// CountExpensesByCategory counts expenses referencing a category within
// a workspace, surfaced to callers as the blocking count.
func (r *SQLiteRepository) CountExpensesByCategory(ctx context.Context, workspaceID, categoryID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM expenses WHERE workspace_id = ? AND category_id = ?`,
		workspaceID, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count category references: %w", err)
	}
	return count, nil
}

func scanCategory(row rowScanner) (core.Category, error) {
	var c core.Category
	var emoji, createdBy sql.NullString
	var isDefault int
	var createdAt string
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.Name, &emoji, &isDefault, &createdBy, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Category{}, core.ErrNotFound
		}
		return core.Category{}, fmt.Errorf("scan category: %w", err)
	}
	c.Emoji = emoji.String
	c.CreatedBy = createdBy.String
	c.IsDefault = isDefault != 0
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}
