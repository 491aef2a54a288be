package services

import (
	"context"
	"fmt"
	"strings"

	"wemoney/internal/core"
	"wemoney/internal/log"
	"wemoney/internal/storage"
)

// WorkspaceService handles workspace membership, invites and display names.
type WorkspaceService struct {
	storage *storage.SQLiteRepository
	summary *SummaryService
}

func NewWorkspaceService(storage *storage.SQLiteRepository, summary *SummaryService) *WorkspaceService {
	return &WorkspaceService{storage: storage, summary: summary}
}

// Resolve returns the caller's workspace and membership.
// core.ErrNoWorkspace means the user has not created or joined one yet.
func (s *WorkspaceService) Resolve(ctx context.Context, userID string) (core.Workspace, core.Membership, error) {
	membership, err := s.storage.GetMembershipByUser(ctx, userID)
	if err != nil {
		return core.Workspace{}, core.Membership{}, err
	}
	ws, err := s.storage.GetWorkspace(ctx, membership.WorkspaceID)
	if err != nil {
		return core.Workspace{}, core.Membership{}, fmt.Errorf("load workspace: %w", err)
	}
	return ws, membership, nil
}

// Create provisions a new workspace for userID with default categories.
func (s *WorkspaceService) Create(ctx context.Context, userID string) (core.Workspace, error) {
	ws, err := s.storage.CreateWorkspaceWithDefaults(ctx, userID)
	if err != nil {
		return core.Workspace{}, err
	}
	log.FromContext(ctx).WithComponent(log.ComponentWorkspace).InfoContext(ctx, "Created workspace",
		log.FieldOperation, log.OpCreate,
		log.FieldWorkspaceID, ws.ID,
		log.FieldUserID, userID)
	return ws, nil
}

// ResolveInvite looks up a workspace by its invite code without joining.
func (s *WorkspaceService) ResolveInvite(ctx context.Context, code string) (core.Workspace, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return core.Workspace{}, core.ErrNotFound
	}
	return s.storage.GetWorkspaceByInviteCode(ctx, code)
}

// Join adds the user to the workspace behind the invite code.
func (s *WorkspaceService) Join(ctx context.Context, userID, code string) (core.Workspace, core.Membership, error) {
	ws, err := s.ResolveInvite(ctx, code)
	if err != nil {
		return core.Workspace{}, core.Membership{}, err
	}

	membership, err := s.storage.AddMember(ctx, ws.ID, userID)
	if err != nil {
		return core.Workspace{}, core.Membership{}, err
	}

	log.FromContext(ctx).WithComponent(log.ComponentWorkspace).InfoContext(ctx, "User joined workspace",
		log.FieldOperation, log.OpJoin,
		log.FieldWorkspaceID, ws.ID,
		log.FieldUserID, userID)
	return ws, membership, nil
}

// SetDisplayName updates the caller's display name within their workspace.
func (s *WorkspaceService) SetDisplayName(ctx context.Context, userID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyDisplayName
	}
	if err := s.storage.UpdateDisplayName(ctx, userID, name); err != nil {
		return err
	}

	// Names render in every cached month of the workspace.
	if s.summary != nil {
		if membership, err := s.storage.GetMembershipByUser(ctx, userID); err == nil {
			s.summary.InvalidateWorkspace(membership.WorkspaceID)
		}
	}
	return nil
}

// Members lists the workspace members in join order.
func (s *WorkspaceService) Members(ctx context.Context, workspaceID string) ([]core.Membership, error) {
	return s.storage.ListMembers(ctx, workspaceID)
}
