package core

import (
	"errors"
	"time"
)

const (
	Income  Direction = "income"
	Expense Direction = "expense"
)

type (
	// Direction tells whether a transaction adds to or subtracts from the
	// balance.
	Direction string

	// ParsedTransaction is the ephemeral result of parsing a free-form
	// phrase. It is never persisted as-is; the service layer turns it into
	// a Transaction at submission time.
	ParsedTransaction struct {
		Amount    float64
		Category  string
		Direction Direction
		RawText   string
	}

	// Transaction is the persisted ledger entry.
	Transaction struct {
		ID        string    `json:"id"`
		Direction Direction `json:"direction"`
		Category  string    `json:"category"`
		Amount    float64   `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
		RawText   string    `json:"raw_text"`
	}

	// Category is an entry of the category registry. The registry only
	// remembers names already seen; it is not authoritative over what a
	// transaction may hold.
	Category struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// CategoryTotal is an aggregated expense amount for one category.
	CategoryTotal struct {
		Category string  `json:"category"`
		Total    float64 `json:"total"`
	}

	// MonthlyFlow is the income and expense total for one calendar month,
	// Month formatted as "YYYY-MM".
	MonthlyFlow struct {
		Month   string  `json:"month"`
		Income  float64 `json:"income"`
		Expense float64 `json:"expense"`
	}
)

var (
	ErrEmptyInput          = errors.New("empty input")
	ErrAmountNotRecognized = errors.New("amount not recognized")
	ErrStoreNotInitialized = errors.New("store not initialized")
	ErrInvalidDirection    = errors.New("invalid direction")
)

// Validate checks that the direction is one of the two known values.
func (d Direction) Validate() error {
	switch d {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidDirection
	}
}

// Delta returns the signed balance contribution of an amount moved in this
// direction.
func (d Direction) Delta(amount float64) float64 {
	if d == Income {
		return amount
	}
	return -amount
}

// Validation is the outcome of checking raw user input before submission.
// Err is one of ErrEmptyInput or ErrAmountNotRecognized when Valid is
// false, nil otherwise.
type Validation struct {
	Valid bool
	Err   error
}
