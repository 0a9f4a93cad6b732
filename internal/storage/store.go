// Package storage persists the ledger in an embedded SQLite database:
// transactions, the category registry and the single denormalized balance
// row.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/youserz/finance-tracker/internal/core"
	"github.com/youserz/finance-tracker/internal/keywords"

	_ "modernc.org/sqlite"
)

// Timestamps are stored as UTC text so lexicographic order matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// SQLiteStore is the durable ledger store. Before Init is called, read
// operations return empty results and mutations are silent no-ops;
// AddTransaction is the one exception and fails hard. That asymmetry
// mirrors the surrounding product behavior and is covered by tests.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

// NewSQLiteStore returns a store for the database file at path. No I/O
// happens until Init.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

// Init opens the database, applies migrations and seeds the account row
// and default categories. Safe to call more than once.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if s.db == nil {
		if dir := filepath.Dir(s.path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
		}

		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return fmt.Errorf("open sqlite database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("ping database: %w", err)
		}
		if err := RunMigrations(s.path); err != nil {
			db.Close()
			return fmt.Errorf("run migrations: %w", err)
		}
		s.db = db
	}

	if err := s.seedDefaults(ctx); err != nil {
		return fmt.Errorf("seed defaults: %w", err)
	}

	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) seedDefaults(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO account (id, balance) VALUES (1, 0)`); err != nil {
		return fmt.Errorf("ensure account row: %w", err)
	}

	for _, name := range keywords.DefaultCategories {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)`,
			uuid.NewString(), name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
	}

	return nil
}

// AddTransaction persists a new transaction, registers its category if
// unseen and applies the signed balance delta, all in one SQL transaction.
func (s *SQLiteStore) AddTransaction(ctx context.Context, direction core.Direction, category string, amount float64, createdAt time.Time, rawText string) (*core.Transaction, error) {
	if s.db == nil {
		return nil, core.ErrStoreNotInitialized
	}
	if err := direction.Validate(); err != nil {
		return nil, err
	}

	t := &core.Transaction{
		ID:        uuid.NewString(),
		Direction: direction,
		Category:  category,
		Amount:    amount,
		CreatedAt: createdAt.UTC(),
		RawText:   rawText,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (id, direction, category, amount, created_at, raw_text)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Direction), t.Category, t.Amount, t.CreatedAt.Format(timeLayout), t.RawText); err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (id, name) VALUES (?, ?)`,
		uuid.NewString(), t.Category); err != nil {
		return nil, fmt.Errorf("register category: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE account SET balance = balance + ? WHERE id = 1`,
		t.Direction.Delta(t.Amount)); err != nil {
		return nil, fmt.Errorf("apply balance delta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"direction", t.Direction,
		"category", t.Category,
		"amount", t.Amount)

	return t, nil
}

// GetTransactions returns stored transactions newest-first. A limit of
// zero or less returns all of them.
func (s *SQLiteStore) GetTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	if s.db == nil {
		return nil, nil
	}

	query := `SELECT id, direction, category, amount, created_at, raw_text
	          FROM transactions ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t         core.Transaction
			direction string
			createdAt string
		)
		if err := rows.Scan(&t.ID, &direction, &t.Category, &t.Amount, &createdAt, &t.RawText); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Direction = core.Direction(direction)
		if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return out, nil
}

// GetBalance returns the current running balance.
func (s *SQLiteStore) GetBalance(ctx context.Context) (float64, error) {
	if s.db == nil {
		return 0, nil
	}

	var balance float64
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM account WHERE id = 1`).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query balance: %w", err)
	}

	return balance, nil
}

// UpdateBalance overwrites the running balance, bypassing the
// transaction-derived value. Used for manual correction.
func (s *SQLiteStore) UpdateBalance(ctx context.Context, balance float64) error {
	if s.db == nil {
		return nil
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE account SET balance = ? WHERE id = 1`, balance); err != nil {
		return fmt.Errorf("update balance: %w", err)
	}

	return nil
}

// RecalculateBalance recomputes the balance as the signed sum over all
// stored transactions, overwriting any manual override.
func (s *SQLiteStore) RecalculateBalance(ctx context.Context) error {
	if s.db == nil {
		return nil
	}

	var balance float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN direction = 'income' THEN amount ELSE -amount END), 0)
		 FROM transactions`).Scan(&balance)
	if err != nil {
		return fmt.Errorf("sum transactions: %w", err)
	}

	if err := s.UpdateBalance(ctx, balance); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Balance recalculated", "balance", balance)
	return nil
}

// DeleteTransaction removes a transaction and applies the compensating
// balance delta atomically. Unknown ids are ignored.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id string) error {
	if s.db == nil {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		direction string
		amount    float64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT direction, amount FROM transactions WHERE id = ?`, id).
		Scan(&direction, &amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load transaction %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE account SET balance = balance - ? WHERE id = 1`,
		core.Direction(direction).Delta(amount)); err != nil {
		return fmt.Errorf("revert balance delta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "direction", direction, "amount", amount)
	return nil
}

// GetExpensesByCategory returns expense totals grouped by category,
// largest first. Income is excluded.
func (s *SQLiteStore) GetExpensesByCategory(ctx context.Context) ([]core.CategoryTotal, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT category, SUM(amount) AS total
		 FROM transactions
		 WHERE direction = 'expense'
		 GROUP BY category
		 ORDER BY total DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}

	return out, nil
}

// GetMonthlyIncomeExpense returns income and expense totals for the six
// most recent months with activity, oldest first.
func (s *SQLiteStore) GetMonthlyIncomeExpense(ctx context.Context) ([]core.MonthlyFlow, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT
		    strftime('%Y-%m', created_at) AS month,
		    SUM(CASE WHEN direction = 'income' THEN amount ELSE 0 END) AS income,
		    SUM(CASE WHEN direction = 'expense' THEN amount ELSE 0 END) AS expense
		 FROM transactions
		 GROUP BY month
		 ORDER BY month DESC
		 LIMIT 6`)
	if err != nil {
		return nil, fmt.Errorf("query monthly flows: %w", err)
	}
	defer rows.Close()

	var out []core.MonthlyFlow
	for rows.Next() {
		var mf core.MonthlyFlow
		if err := rows.Scan(&mf.Month, &mf.Income, &mf.Expense); err != nil {
			return nil, fmt.Errorf("scan monthly flow: %w", err)
		}
		out = append(out, mf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly flows: %w", err)
	}

	// The query selects the newest months; the caller wants them in
	// chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, nil
}

// GetCategories lists the category registry ordered by name.
func (s *SQLiteStore) GetCategories(ctx context.Context) ([]core.Category, error) {
	if s.db == nil {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return out, nil
}
