package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"wemoney/internal/cache"
	"wemoney/internal/core"
	"wemoney/internal/storage"
)

// MonthData is the raw material for one workspace month: the expenses in
// the month window plus the current category registry and member list.
// It is what gets cached; the viewer-dependent summary is built per call.
type MonthData struct {
	Expenses   []core.Expense
	Categories []core.Category
	Members    []core.Membership
}

// SummaryService assembles month views over the ledger, caching the
// fetched month data per workspace and month.
type SummaryService struct {
	storage *storage.SQLiteRepository
	cache   *cache.LRUCache[MonthData]
}

func NewSummaryService(storage *storage.SQLiteRepository, monthCache *cache.LRUCache[MonthData]) *SummaryService {
	return &SummaryService{storage: storage, cache: monthCache}
}

// MonthSummary returns the aggregated view of one month as seen by
// currentUserID. Display names fall back per viewer, so only the
// underlying data is cached.
func (s *SummaryService) MonthSummary(ctx context.Context, workspaceID string, month core.Month, currentUserID string) (core.MonthSummary, error) {
	data, err := s.monthData(ctx, workspaceID, month)
	if err != nil {
		return core.MonthSummary{}, err
	}
	return core.BuildMonthSummary(month, data.Expenses, data.Categories, data.Members, currentUserID), nil
}

// MonthData returns the raw expenses, categories and members for a month,
// served from cache when possible.
func (s *SummaryService) MonthData(ctx context.Context, workspaceID string, month core.Month) (MonthData, error) {
	return s.monthData(ctx, workspaceID, month)
}

func (s *SummaryService) monthData(ctx context.Context, workspaceID string, month core.Month) (MonthData, error) {
	key := cacheKey(workspaceID, month)
	if s.cache != nil {
		if data, ok := s.cache.Get(key); ok {
			return data, nil
		}
	}

	var data MonthData
	from, to := month.Window()

	// The three reads are independent, fetch them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := s.storage.ListExpenses(gctx, workspaceID, from, to, core.ExpenseFilter{})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		data.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		categories, err := s.storage.ListCategories(gctx, workspaceID)
		if err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
		data.Categories = categories
		return nil
	})
	g.Go(func() error {
		members, err := s.storage.ListMembers(gctx, workspaceID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}
		data.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthData{}, err
	}

	if s.cache != nil {
		s.cache.Set(key, data)
	}
	return data, nil
}

// Invalidate drops the cached data for one workspace month.
func (s *SummaryService) Invalidate(workspaceID string, month core.Month) {
	if s.cache != nil {
		s.cache.Delete(cacheKey(workspaceID, month))
	}
}

// InvalidateWorkspace drops every cached month of a workspace. Used when
// categories or display names change, which affect all months.
func (s *SummaryService) InvalidateWorkspace(workspaceID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(workspaceID + ":")
	}
}

func cacheKey(workspaceID string, month core.Month) string {
	return workspaceID + ":" + month.String()
}
