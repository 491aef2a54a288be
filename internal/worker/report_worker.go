// Package worker turns expense events into refreshed month reports.
package worker

import (
	"context"
	"errors"
	"fmt"

	"wemoney/internal/amqp"
	"wemoney/internal/core"
	"wemoney/internal/export"
	"wemoney/internal/log"
	"wemoney/internal/services"
	"wemoney/internal/storage"
)

// ReportWorker rebuilds the month summary of a workspace whenever one of
// its expenses changes and exports the result.
type ReportWorker struct {
	storage  *storage.SQLiteRepository
	summary  *services.SummaryService
	reporter export.Reporter
}

func NewReportWorker(storage *storage.SQLiteRepository, summary *services.SummaryService, reporter export.Reporter) *ReportWorker {
	return &ReportWorker{
		storage:  storage,
		summary:  summary,
		reporter: reporter,
	}
}

// HandleExpenseEvent processes one event from the queue. The event only
// identifies the workspace and affected months; current state is read
// from storage. A date edit that moved the expense across months carries
// the month it left in PreviousMonth, and both get refreshed.
func (w *ReportWorker) HandleExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)
	logger.InfoContext(ctx, "Processing expense event",
		"type", event.Type,
		log.FieldExpenseID, event.ExpenseID,
		log.FieldWorkspaceID, event.WorkspaceID,
		log.FieldMonth, event.Month)

	months, err := eventMonths(event)
	if err != nil {
		// Malformed events are dropped, retrying cannot fix them.
		logger.ErrorContext(ctx, "Event carries invalid month, dropping",
			log.FieldMonth, event.Month, log.FieldError, err)
		return nil
	}

	ws, err := w.storage.GetWorkspace(ctx, event.WorkspaceID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			logger.WarnContext(ctx, "Workspace gone, dropping event",
				log.FieldWorkspaceID, event.WorkspaceID)
			return nil
		}
		return fmt.Errorf("load workspace: %w", err)
	}

	for _, month := range months {
		if err := w.refreshMonth(ctx, ws, month); err != nil {
			return err
		}
	}
	return nil
}

func (w *ReportWorker) refreshMonth(ctx context.Context, ws core.Workspace, month core.Month) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentWorker)

	// The event invalidates whatever this process had cached.
	w.summary.Invalidate(ws.ID, month)

	// Reports are viewer-neutral, so no user ID is passed here and
	// members without a display name keep their fallback label.
	summary, err := w.summary.MonthSummary(ctx, ws.ID, month, "")
	if err != nil {
		return fmt.Errorf("build month summary: %w", err)
	}

	if w.reporter == nil {
		logger.WarnContext(ctx, "No reporter configured, skipping export",
			log.FieldWorkspaceID, ws.ID, log.FieldMonth, month.String())
		return nil
	}

	report := export.MonthReport{
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		Month:         month,
		Summary:       summary,
	}
	if err := w.reporter.WriteMonthReport(ctx, report); err != nil {
		return fmt.Errorf("export month report: %w", err)
	}

	logger.InfoContext(ctx, "Exported month report",
		log.FieldOperation, log.OpExport,
		log.FieldWorkspaceID, ws.ID,
		log.FieldMonth, month.String(),
		log.FieldAmount, summary.Total,
		"count", summary.Count)
	return nil
}

// eventMonths returns the affected months, the current one first.
func eventMonths(event *amqp.ExpenseEvent) ([]core.Month, error) {
	month, err := core.ParseMonth(event.Month)
	if err != nil {
		return nil, err
	}
	months := []core.Month{month}
	if event.PreviousMonth != "" {
		previous, err := core.ParseMonth(event.PreviousMonth)
		if err != nil {
			return nil, err
		}
		if previous != month {
			months = append(months, previous)
		}
	}
	return months, nil
}
