package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
	"waiasella/backend/internal/xid"
)

func (s *Service) ListExpenses(ctx context.Context) []domain.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out
}

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseRequest) (domain.Expense, error) {
	expense, err := s.expenseFromRequest(req)
	if err != nil {
		return domain.Expense{}, err
	}
	expense.ID = xid.New("exp")

	s.mu.Lock()
	defer s.mu.Unlock()

	next := append([]domain.Expense{expense}, s.expenses...)
	if err := store.SaveJSON(ctx, s.gateway, store.KeyExpenses, next); err != nil {
		return domain.Expense{}, fmt.Errorf("saving expenses: %w", err)
	}
	s.expenses = next
	return expense, nil
}

func (s *Service) UpdateExpense(ctx context.Context, id string, req domain.ExpenseRequest) (domain.Expense, error) {
	expense, err := s.expenseFromRequest(req)
	if err != nil {
		return domain.Expense{}, err
	}
	expense.ID = id

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Expense{}, fmt.Errorf("%w: expense %s", store.ErrNotFound, id)
	}

	next := make([]domain.Expense, len(s.expenses))
	copy(next, s.expenses)
	next[idx] = expense

	if err := store.SaveJSON(ctx, s.gateway, store.KeyExpenses, next); err != nil {
		return domain.Expense{}, fmt.Errorf("saving expenses: %w", err)
	}
	s.expenses = next
	return expense, nil
}

func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.expenses {
		if s.expenses[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: expense %s", store.ErrNotFound, id)
	}

	next := make([]domain.Expense, 0, len(s.expenses)-1)
	next = append(next, s.expenses[:idx]...)
	next = append(next, s.expenses[idx+1:]...)

	if err := store.SaveJSON(ctx, s.gateway, store.KeyExpenses, next); err != nil {
		return fmt.Errorf("saving expenses: %w", err)
	}
	s.expenses = next
	return nil
}

func (s *Service) expenseFromRequest(req domain.ExpenseRequest) (domain.Expense, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return domain.Expense{}, fmt.Errorf("%w: expense description is required", store.ErrInvalidInput)
	}
	if req.AmountCents == nil || *req.AmountCents < 0 {
		return domain.Expense{}, fmt.Errorf("%w: expense amount must be zero or greater", store.ErrInvalidInput)
	}

	date := s.now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return domain.Expense{}, fmt.Errorf("%w: expense date must be YYYY-MM-DD", store.ErrInvalidInput)
		}
		date = parsed
	}

	return domain.Expense{
		Date:        date,
		Description: description,
		Category:    strings.TrimSpace(req.Category),
		AmountCents: *req.AmountCents,
		Notes:       strings.TrimSpace(req.Notes),
	}, nil
}
