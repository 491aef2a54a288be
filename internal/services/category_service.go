package services

import (
	"context"
	"strings"

	"wemoney/internal/core"
	"wemoney/internal/log"
	"wemoney/internal/storage"
)

// CategoryService manages the per-workspace category registry.
type CategoryService struct {
	storage *storage.SQLiteRepository
	summary *SummaryService
}

func NewCategoryService(storage *storage.SQLiteRepository, summary *SummaryService) *CategoryService {
	return &CategoryService{storage: storage, summary: summary}
}

// List returns the workspace's categories sorted by name.
func (s *CategoryService) List(ctx context.Context, workspaceID string) ([]core.Category, error) {
	return s.storage.ListCategories(ctx, workspaceID)
}

// Add creates a custom category. Names are trimmed and capped, duplicates
// are allowed.
func (s *CategoryService) Add(ctx context.Context, workspaceID, name, emoji, creatorID string) (core.Category, error) {
	candidate := core.Category{Name: strings.TrimSpace(name), Emoji: emoji}
	if err := candidate.Validate(); err != nil {
		return core.Category{}, err
	}

	cat, err := s.storage.CreateCategory(ctx, workspaceID, candidate.Name, candidate.Emoji, creatorID)
	if err != nil {
		return core.Category{}, err
	}

	s.invalidateWorkspace(workspaceID)
	log.FromContext(ctx).WithComponent(log.ComponentWorkspace).InfoContext(ctx, "Created category",
		log.FieldOperation, log.OpCreate,
		log.FieldWorkspaceID, workspaceID,
		log.FieldCategoryID, cat.ID)
	return cat, nil
}

// Delete removes a category unless any expense still references it, in
// which case a core.InUseError carrying the count is returned.
func (s *CategoryService) Delete(ctx context.Context, workspaceID, categoryID string) error {
	if err := s.storage.DeleteCategory(ctx, workspaceID, categoryID); err != nil {
		return err
	}

	s.invalidateWorkspace(workspaceID)
	log.FromContext(ctx).WithComponent(log.ComponentWorkspace).InfoContext(ctx, "Deleted category",
		log.FieldOperation, log.OpDelete,
		log.FieldWorkspaceID, workspaceID,
		log.FieldCategoryID, categoryID)
	return nil
}

func (s *CategoryService) invalidateWorkspace(workspaceID string) {
	if s.summary != nil {
		s.summary.InvalidateWorkspace(workspaceID)
	}
}
