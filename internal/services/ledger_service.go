package services

import (
	"context"
	"errors"
	"fmt"

	"wemoney/internal/amqp"
	"wemoney/internal/core"
	"wemoney/internal/log"
	"wemoney/internal/storage"
)

// EventPublisher is what the ledger needs from the message bus.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// LedgerService orchestrates expense writes across SQLite, the summary
// cache and the AMQP event stream.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
	summary   *SummaryService
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher, summary *SummaryService) *LedgerService {
	return &LedgerService{
		storage:   storage,
		publisher: publisher,
		summary:   summary,
	}
}

// Add validates and records a new expense. The spender must belong to the
// workspace the expense is recorded in.
func (s *LedgerService) Add(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := s.checkSpenderMembership(ctx, e.WorkspaceID, e.SpentBy); err != nil {
		return core.Expense{}, err
	}

	created, err := s.storage.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, err
	}

	month := core.MonthOf(created.SpentAt)
	s.invalidate(created.WorkspaceID, month)
	s.publishEvent(ctx, amqp.EventExpenseCreated, created.ID, created.WorkspaceID, month, "")
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Expense recorded",
		log.FieldOperation, log.OpCreate,
		log.FieldExpenseID, created.ID,
		log.FieldWorkspaceID, created.WorkspaceID,
		log.FieldCategoryID, created.CategoryID,
		log.FieldAmount, created.Amount,
		log.FieldSpentBy, created.SpentBy,
		log.FieldMonth, month.String())
	return created, nil
}

// Update applies a partial edit to an expense. Both the old and the new
// spending month are invalidated when the date moves.
func (s *LedgerService) Update(ctx context.Context, workspaceID, id string, patch core.ExpensePatch) (core.Expense, error) {
	if patch.IsEmpty() {
		return s.Get(ctx, workspaceID, id)
	}
	if err := patch.Validate(); err != nil {
		return core.Expense{}, err
	}

	before, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if patch.SpentBy != nil {
		if err := s.checkSpenderMembership(ctx, workspaceID, *patch.SpentBy); err != nil {
			return core.Expense{}, err
		}
	}

	if err := s.storage.UpdateExpense(ctx, workspaceID, id, patch); err != nil {
		return core.Expense{}, err
	}
	after, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}

	oldMonth := core.MonthOf(before.SpentAt)
	newMonth := core.MonthOf(after.SpentAt)
	s.invalidate(workspaceID, oldMonth)
	previous := ""
	if newMonth != oldMonth {
		s.invalidate(workspaceID, newMonth)
		// The event must name the month the expense left, or its
		// report never gets rebuilt.
		previous = oldMonth.String()
	}
	s.publishEvent(ctx, amqp.EventExpenseUpdated, id, workspaceID, newMonth, previous)
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Expense updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldExpenseID, id,
		log.FieldWorkspaceID, workspaceID,
		log.FieldMonth, newMonth.String())
	return after, nil
}

// Delete removes an expense permanently.
func (s *LedgerService) Delete(ctx context.Context, workspaceID, id string) error {
	expense, err := s.Get(ctx, workspaceID, id)
	if err != nil {
		return err
	}

	if err := s.storage.DeleteExpense(ctx, workspaceID, id); err != nil {
		return err
	}

	month := core.MonthOf(expense.SpentAt)
	s.invalidate(workspaceID, month)
	s.publishEvent(ctx, amqp.EventExpenseDeleted, id, workspaceID, month, "")
	log.FromContext(ctx).WithComponent(log.ComponentLedger).InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id,
		log.FieldWorkspaceID, workspaceID,
		log.FieldMonth, month.String())
	return nil
}

// Get loads a single expense, scoped to the workspace.
func (s *LedgerService) Get(ctx context.Context, workspaceID, id string) (core.Expense, error) {
	expense, err := s.storage.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if expense.WorkspaceID != workspaceID {
		return core.Expense{}, core.ErrNotFound
	}
	return expense, nil
}

// Query lists a month of expenses, newest spending first, with optional
// category and spender filters.
func (s *LedgerService) Query(ctx context.Context, workspaceID string, month core.Month, filter core.ExpenseFilter) ([]core.Expense, error) {
	from, to := month.Window()
	return s.storage.ListExpenses(ctx, workspaceID, from, to, filter)
}

func (s *LedgerService) checkSpenderMembership(ctx context.Context, workspaceID, spentBy string) error {
	membership, err := s.storage.GetMembershipByUser(ctx, spentBy)
	if err != nil {
		if errors.Is(err, core.ErrNoWorkspace) {
			return core.ErrWorkspaceMismatch
		}
		return fmt.Errorf("check spender: %w", err)
	}
	if membership.WorkspaceID != workspaceID {
		return core.ErrWorkspaceMismatch
	}
	return nil
}

func (s *LedgerService) invalidate(workspaceID string, month core.Month) {
	if s.summary != nil {
		s.summary.Invalidate(workspaceID, month)
	}
}

func (s *LedgerService) publishEvent(ctx context.Context, eventType, expenseID, workspaceID string, month core.Month, previousMonth string) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentLedger)
	if s.publisher == nil {
		logger.WarnContext(ctx, "No event publisher, skipping expense event")
		return
	}

	event := amqp.NewExpenseEvent(eventType, expenseID, workspaceID, month.String())
	event.PreviousMonth = previousMonth
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		// The write already succeeded locally, never fail the request here.
		logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, expenseID,
			log.FieldMonth, month.String(),
			log.FieldError, err)
	}
}
