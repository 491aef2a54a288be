package storage

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wemoney/internal/core"
)

// newInviteCode returns an opaque 8-hex-char token. Codes are immutable
// and case-sensitive; collisions are handled by the unique index plus a
// retry in CreateWorkspaceWithDefaults.
func newInviteCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CreateWorkspaceWithDefaults is the one multi-row routine in the store:
// workspace, creator membership, and the default category seed are all
// created in a single transaction, or none of them are. It is the Go
// counterpart of the create_workspace_with_defaults stored procedure.
func (r *SQLiteRepository) CreateWorkspaceWithDefaults(ctx context.Context, userID string) (core.Workspace, error) {
	const attempts = 3
	var lastErr error
	for i := 0; i < attempts; i++ {
		ws, err := r.createWorkspaceOnce(ctx, userID)
		if err == nil {
			return ws, nil
		}
		if errors.Is(err, core.ErrAlreadyMember) {
			return core.Workspace{}, err
		}
		// Invite codes are only 4 random bytes; regenerate on collision.
		lastErr = err
		slog.WarnContext(ctx, "Workspace create retry", "attempt", i+1, "error", err)
	}
	return core.Workspace{}, lastErr
}

func (r *SQLiteRepository) createWorkspaceOnce(ctx context.Context, userID string) (core.Workspace, error) {
	code, err := newInviteCode()
	if err != nil {
		return core.Workspace{}, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM workspace_members WHERE user_id = ?`, userID).Scan(&exists)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("check existing membership: %w", err)
	}
	if exists > 0 {
		return core.Workspace{}, core.ErrAlreadyMember
	}

	now := time.Now().UTC()
	ws := core.Workspace{
		ID:         uuid.New().String(),
		Name:       core.DefaultWorkspaceName,
		InviteCode: code,
		CreatedAt:  now,
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, invite_code, created_at) VALUES (?, ?, ?, ?)`,
		ws.ID, ws.Name, ws.InviteCode, formatTime(now),
	)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("insert workspace: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO workspace_members (id, workspace_id, user_id, joined_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), ws.ID, userID, formatTime(now),
	)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("insert creator membership: %w", err)
	}

	for _, c := range core.DefaultCategories() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO categories (id, workspace_id, name, emoji, is_default, created_by, created_at)
			 VALUES (?, ?, ?, ?, 1, ?, ?)`,
			uuid.New().String(), ws.ID, c.Name, c.Emoji, userID, formatTime(now),
		)
		if err != nil {
			return core.Workspace{}, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.Workspace{}, fmt.Errorf("commit workspace create: %w", err)
	}

	slog.InfoContext(ctx, "Workspace created",
		"workspace_id", ws.ID, "user_id", userID)
	return ws, nil
}

func (r *SQLiteRepository) GetWorkspace(ctx context.Context, id string) (core.Workspace, error) {
	return r.scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, created_at FROM workspaces WHERE id = ?`, id))
}

// GetWorkspaceByInviteCode resolves an invite. Codes are opaque and
// matched exactly; TEXT comparison in SQLite is case-sensitive.
func (r *SQLiteRepository) GetWorkspaceByInviteCode(ctx context.Context, code string) (core.Workspace, error) {
	return r.scanWorkspace(r.db.QueryRowContext(ctx,
		`SELECT id, name, invite_code, created_at FROM workspaces WHERE invite_code = ?`, code))
}

func (r *SQLiteRepository) scanWorkspace(row *sql.Row) (core.Workspace, error) {
	var ws core.Workspace
	var createdAt string
	if err := row.Scan(&ws.ID, &ws.Name, &ws.InviteCode, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Workspace{}, core.ErrNotFound
		}
		return core.Workspace{}, fmt.Errorf("scan workspace: %w", err)
	}
	ws.CreatedAt = parseTime(createdAt)
	return ws, nil
}

// GetMembershipByUser looks up the single membership row for a user.
func (r *SQLiteRepository) GetMembershipByUser(ctx context.Context, userID string) (core.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, user_id, display_name, joined_at
		 FROM workspace_members WHERE user_id = ?`, userID)
	m, err := scanMembership(row)
	if errors.Is(err, core.ErrNotFound) {
		return core.Membership{}, core.ErrNoWorkspace
	}
	return m, err
}

// AddMember inserts a membership unless the user already belongs to any
// workspace. The insert is conditional and the user_id column carries a
// unique index, so concurrent joins cannot produce two memberships.
func (r *SQLiteRepository) AddMember(ctx context.Context, workspaceID, userID string) (core.Membership, error) {
	m := core.Membership{
		ID:          uuid.New().String(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		JoinedAt:    time.Now().UTC(),
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO workspace_members (id, workspace_id, user_id, joined_at)
		 SELECT ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM workspace_members WHERE user_id = ?)`,
		m.ID, m.WorkspaceID, m.UserID, formatTime(m.JoinedAt), m.UserID,
	)
	if err != nil {
		return core.Membership{}, fmt.Errorf("insert membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Membership{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.Membership{}, core.ErrAlreadyMember
	}

	slog.InfoContext(ctx, "Member joined workspace",
		"workspace_id", workspaceID, "user_id", userID)
	return m, nil
}

// UpdateDisplayName changes the caller's own display name, the only
// mutable membership field.
func (r *SQLiteRepository) UpdateDisplayName(ctx context.Context, userID, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE workspace_members SET display_name = ? WHERE user_id = ?`, name, userID)
	if err != nil {
		return fmt.Errorf("update display name: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNoWorkspace
	}
	return nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context, workspaceID string) ([]core.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, workspace_id, user_id, display_name, joined_at
		 FROM workspace_members WHERE workspace_id = ? ORDER BY joined_at`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []core.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (core.Membership, error) {
	var m core.Membership
	var displayName sql.NullString
	var joinedAt string
	if err := row.Scan(&m.ID, &m.WorkspaceID, &m.UserID, &displayName, &joinedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Membership{}, core.ErrNotFound
		}
		return core.Membership{}, fmt.Errorf("scan membership: %w", err)
	}
	m.DisplayName = displayName.String
	m.JoinedAt = parseTime(joinedAt)
	return m, nil
}
