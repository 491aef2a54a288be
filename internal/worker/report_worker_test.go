package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"wemoney/internal/amqp"
	"wemoney/internal/core"
	"wemoney/internal/export"
	"wemoney/internal/services"
	"wemoney/internal/storage"
)

type capturingReporter struct {
	reports []export.MonthReport
	err     error
}

func (r *capturingReporter) WriteMonthReport(_ context.Context, report export.MonthReport) error {
	if r.err != nil {
		return r.err
	}
	r.reports = append(r.reports, report)
	return nil
}

func setupWorker(t *testing.T, reporter export.Reporter) (*ReportWorker, *storage.SQLiteRepository, core.Workspace, core.User) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	user, err := repo.CreateUser(ctx, "a@example.com", "hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	ws, err := repo.CreateWorkspaceWithDefaults(ctx, user.ID)
	if err != nil {
		t.Fatalf("CreateWorkspaceWithDefaults: %v", err)
	}

	summary := services.NewSummaryService(repo, nil)
	return NewReportWorker(repo, summary, reporter), repo, ws, user
}

func TestHandleExpenseEvent(t *testing.T) {
	reporter := &capturingReporter{}
	w, repo, ws, user := setupWorker(t, reporter)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	exp, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: ws.ID,
		CategoryID:  cats[0].ID,
		Amount:      8000,
		SpentAt:     core.NewDate(2024, time.March, 3),
		SpentBy:     user.ID,
		RecordedBy:  user.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, exp.ID, ws.ID, "2024-03")
	if err := w.HandleExpenseEvent(ctx, event); err != nil {
		t.Fatalf("HandleExpenseEvent: %v", err)
	}

	if len(reporter.reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reporter.reports))
	}
	report := reporter.reports[0]
	if report.WorkspaceID != ws.ID || report.Month.String() != "2024-03" {
		t.Fatalf("report = %+v", report)
	}
	if report.Summary.Total != 8000 || report.Summary.Count != 1 {
		t.Fatalf("summary = %+v", report.Summary)
	}
}

func TestHandleExpenseEventRefreshesVacatedMonth(t *testing.T) {
	reporter := &capturingReporter{}
	w, repo, ws, user := setupWorker(t, reporter)
	ctx := context.Background()

	cats, err := repo.ListCategories(ctx, ws.ID)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	// The expense already sits in April; March was just vacated by the edit.
	exp, err := repo.CreateExpense(ctx, core.Expense{
		WorkspaceID: ws.ID,
		CategoryID:  cats[0].ID,
		Amount:      8000,
		SpentAt:     core.NewDate(2024, time.April, 2),
		SpentBy:     user.ID,
		RecordedBy:  user.ID,
	})
	if err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}

	event := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, exp.ID, ws.ID, "2024-04")
	event.PreviousMonth = "2024-03"
	if err := w.HandleExpenseEvent(ctx, event); err != nil {
		t.Fatalf("HandleExpenseEvent: %v", err)
	}

	if len(reporter.reports) != 2 {
		t.Fatalf("got %d reports, want both affected months", len(reporter.reports))
	}
	april, march := reporter.reports[0], reporter.reports[1]
	if april.Month.String() != "2024-04" || april.Summary.Total != 8000 {
		t.Errorf("april report = %s total %d", april.Month, april.Summary.Total)
	}
	if march.Month.String() != "2024-03" || march.Summary.Total != 0 {
		t.Errorf("march report = %s total %d", march.Month, march.Summary.Total)
	}

	// A previous month equal to the current one is not exported twice.
	reporter.reports = nil
	dup := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, exp.ID, ws.ID, "2024-04")
	dup.PreviousMonth = "2024-04"
	if err := w.HandleExpenseEvent(ctx, dup); err != nil {
		t.Fatalf("HandleExpenseEvent: %v", err)
	}
	if len(reporter.reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reporter.reports))
	}
}

func TestHandleExpenseEventDropsBadEvents(t *testing.T) {
	reporter := &capturingReporter{}
	w, _, ws, _ := setupWorker(t, reporter)
	ctx := context.Background()

	// Unparseable month is dropped without error so it is not requeued.
	bad := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, "exp-1", ws.ID, "March 2024")
	if err := w.HandleExpenseEvent(ctx, bad); err != nil {
		t.Fatalf("bad month should be dropped, got %v", err)
	}

	// Unparseable previous month too.
	badPrev := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, "exp-1", ws.ID, "2024-04")
	badPrev.PreviousMonth = "whenever"
	if err := w.HandleExpenseEvent(ctx, badPrev); err != nil {
		t.Fatalf("bad previous month should be dropped, got %v", err)
	}

	// Unknown workspace likewise.
	gone := amqp.NewExpenseEvent(amqp.EventExpenseDeleted, "exp-1", "missing-ws", "2024-03")
	if err := w.HandleExpenseEvent(ctx, gone); err != nil {
		t.Fatalf("missing workspace should be dropped, got %v", err)
	}

	if len(reporter.reports) != 0 {
		t.Fatalf("dropped events should not produce reports, got %d", len(reporter.reports))
	}
}

func TestHandleExpenseEventReporterFailure(t *testing.T) {
	reporter := &capturingReporter{err: errors.New("sheets unavailable")}
	w, _, ws, _ := setupWorker(t, reporter)

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, "exp-1", ws.ID, "2024-03")
	if err := w.HandleExpenseEvent(context.Background(), event); err == nil {
		t.Fatal("reporter failure should propagate so the event is requeued")
	}
}

func TestHandleExpenseEventWithoutReporter(t *testing.T) {
	w, _, ws, _ := setupWorker(t, nil)

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, "exp-1", ws.ID, "2024-03")
	if err := w.HandleExpenseEvent(context.Background(), event); err != nil {
		t.Fatalf("nil reporter should be tolerated, got %v", err)
	}
}
