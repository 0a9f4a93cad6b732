package charts

import (
	"bytes"
	"testing"

	"github.com/youserz/finance-tracker/internal/core"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestCategoryPie(t *testing.T) {
	r := NewRenderer()

	png, err := r.CategoryPie([]core.CategoryTotal{
		{Category: "Lazer", Total: 130},
		{Category: "Mercado", Total: 120},
		{Category: "Transporte", Total: 25.5},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("expected PNG output")
	}
}

func TestCategoryPieEmpty(t *testing.T) {
	r := NewRenderer()

	png, err := r.CategoryPie(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if png != nil {
		t.Fatal("expected nil bytes for empty data")
	}

	// All-zero totals have nothing to draw either.
	png, err = r.CategoryPie([]core.CategoryTotal{{Category: "Lazer", Total: 0}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if png != nil {
		t.Fatal("expected nil bytes for zero totals")
	}
}

func TestMonthlyFlows(t *testing.T) {
	r := NewRenderer()

	png, err := r.MonthlyFlows([]core.MonthlyFlow{
		{Month: "2026-03", Income: 2500, Expense: 1800},
		{Month: "2026-04", Income: 2500, Expense: 2100},
		{Month: "2026-05", Income: 3000, Expense: 1500},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, pngMagic) {
		t.Fatal("expected PNG output")
	}
}

func TestMonthlyFlowsTooFew(t *testing.T) {
	r := NewRenderer()

	png, err := r.MonthlyFlows([]core.MonthlyFlow{{Month: "2026-05", Income: 1, Expense: 2}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if png != nil {
		t.Fatal("expected nil bytes for a single month")
	}
}

func TestMonthlyFlowsBadMonth(t *testing.T) {
	r := NewRenderer()

	_, err := r.MonthlyFlows([]core.MonthlyFlow{
		{Month: "not-a-month", Income: 1, Expense: 2},
		{Month: "2026-05", Income: 1, Expense: 2},
	})
	if err == nil {
		t.Fatal("expected error for malformed month")
	}
}
