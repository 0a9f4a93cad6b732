// Package service wires the parser and the ledger store together: raw user
// phrases come in, stored transactions and aggregates come out.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/youserz/finance-tracker/internal/core"
	"github.com/youserz/finance-tracker/internal/parser"
)

// Ledger is the store contract the service relies on. storage.SQLiteStore
// implements it; tests substitute an in-memory fake.
type Ledger interface {
	AddTransaction(ctx context.Context, direction core.Direction, category string, amount float64, createdAt time.Time, rawText string) (*core.Transaction, error)
	GetTransactions(ctx context.Context, limit int) ([]core.Transaction, error)
	GetBalance(ctx context.Context) (float64, error)
	UpdateBalance(ctx context.Context, balance float64) error
	RecalculateBalance(ctx context.Context) error
	DeleteTransaction(ctx context.Context, id string) error
	GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error)
	GetMonthlyIncomeExpense(ctx context.Context) ([]core.MonthlyFlow, error)
	GetCategories(ctx context.Context) ([]core.Category, error)
}

// LedgerService orchestrates parse-and-store operations.
type LedgerService struct {
	parser *parser.Parser
	ledger Ledger
	now    func() time.Time
}

// NewLedgerService returns a service over the given parser and ledger.
func NewLedgerService(p *parser.Parser, ledger Ledger) *LedgerService {
	return &LedgerService{
		parser: p,
		ledger: ledger,
		now:    time.Now,
	}
}

// SubmitText classifies a free-form phrase and persists the resulting
// transaction. Validation failures come back as core.ErrEmptyInput or
// core.ErrAmountNotRecognized so the caller can surface the right message.
func (s *LedgerService) SubmitText(ctx context.Context, input string) (*core.Transaction, error) {
	if v := s.parser.ValidateInput(input); !v.Valid {
		return nil, v.Err
	}

	parsed := s.parser.Parse(input)
	t, err := s.ledger.AddTransaction(ctx, parsed.Direction, parsed.Category, parsed.Amount, s.now().UTC(), parsed.RawText)
	if err != nil {
		return nil, fmt.Errorf("add transaction: %w", err)
	}

	slog.InfoContext(ctx, "Phrase submitted",
		"id", t.ID,
		"direction", t.Direction,
		"category", t.Category,
		"amount", t.Amount)

	return t, nil
}

// ValidateText checks a phrase without persisting anything.
func (s *LedgerService) ValidateText(input string) core.Validation {
	return s.parser.ValidateInput(input)
}

// RecentTransactions lists stored transactions newest-first, all of them
// when limit is zero or less.
func (s *LedgerService) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	out, err := s.ledger.GetTransactions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("get transactions: %w", err)
	}
	return out, nil
}

// Balance returns the running balance.
func (s *LedgerService) Balance(ctx context.Context) (float64, error) {
	balance, err := s.ledger.GetBalance(ctx)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

// SetBalance overrides the running balance manually.
func (s *LedgerService) SetBalance(ctx context.Context, balance float64) error {
	if err := s.ledger.UpdateBalance(ctx, balance); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	return nil
}

// Recalculate recomputes the balance from the stored transactions.
func (s *LedgerService) Recalculate(ctx context.Context) (float64, error) {
	if err := s.ledger.RecalculateBalance(ctx); err != nil {
		return 0, fmt.Errorf("recalculate balance: %w", err)
	}
	return s.Balance(ctx)
}

// Delete removes a transaction by id; unknown ids are ignored.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	if err := s.ledger.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ExpensesByCategory returns expense totals per category, largest first.
func (s *LedgerService) ExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	out, err := s.ledger.GetExpensesByCategory(ctx)
	if err != nil {
		return nil, fmt.Errorf("get expenses by category: %w", err)
	}
	return out, nil
}

// MonthlyFlows returns the six most recent months of income and expense
// totals, oldest first.
func (s *LedgerService) MonthlyFlows(ctx context.Context) ([]core.MonthlyFlow, error) {
	out, err := s.ledger.GetMonthlyIncomeExpense(ctx)
	if err != nil {
		return nil, fmt.Errorf("get monthly flows: %w", err)
	}
	return out, nil
}

// Categories lists the category registry.
func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	out, err := s.ledger.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("get categories: %w", err)
	}
	return out, nil
}
