package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/youserz/finance-tracker/internal/core"
)

// fakeAPI is a scriptable LedgerAPI for handler tests.
type fakeAPI struct {
	submitErr    error
	transactions []core.Transaction
	balance      float64
	totals       []core.CategoryTotal
	flows        []core.MonthlyFlow
	categories   []core.Category

	totalsCalls int
	flowsCalls  int
}

func (f *fakeAPI) SubmitText(_ context.Context, input string) (*core.Transaction, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	t := core.Transaction{
		ID:        "t-1",
		Direction: core.Expense,
		Category:  "Lazer",
		Amount:    50,
		CreatedAt: time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		RawText:   input,
	}
	f.transactions = append(f.transactions, t)
	return &t, nil
}

func (f *fakeAPI) RecentTransactions(_ context.Context, limit int) ([]core.Transaction, error) {
	if limit > 0 && limit < len(f.transactions) {
		return f.transactions[:limit], nil
	}
	return f.transactions, nil
}

func (f *fakeAPI) Balance(context.Context) (float64, error) { return f.balance, nil }

func (f *fakeAPI) SetBalance(_ context.Context, balance float64) error {
	f.balance = balance
	return nil
}

func (f *fakeAPI) Recalculate(context.Context) (float64, error) { return f.balance, nil }

func (f *fakeAPI) Delete(context.Context, string) error { return nil }

func (f *fakeAPI) ExpensesByCategory(context.Context) ([]core.CategoryTotal, error) {
	f.totalsCalls++
	return f.totals, nil
}

func (f *fakeAPI) MonthlyFlows(context.Context) ([]core.MonthlyFlow, error) {
	f.flowsCalls++
	return f.flows, nil
}

func (f *fakeAPI) Categories(context.Context) ([]core.Category, error) {
	return f.categories, nil
}

// fakeRenderer returns canned bytes.
type fakeRenderer struct {
	png []byte
}

func (f *fakeRenderer) CategoryPie([]core.CategoryTotal) ([]byte, error) { return f.png, nil }
func (f *fakeRenderer) MonthlyFlows([]core.MonthlyFlow) ([]byte, error)  { return f.png, nil }

func newTestServer(t *testing.T, api LedgerAPI, renderer ChartRenderer, opts Options) *Server {
	t.Helper()
	s := NewServer(":0", api, renderer, opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleSubmit(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodPost, "/transactions", `{"text":"lazer 50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var got core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Category != "Lazer" || got.RawText != "lazer 50" {
		t.Fatalf("unexpected transaction: %+v", got)
	}
}

func TestHandleSubmitValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
		body string
		want string
	}{
		{"empty input", &fakeAPI{submitErr: core.ErrEmptyInput}, `{"text":""}`, "empty input"},
		{"no amount", &fakeAPI{submitErr: core.ErrAmountNotRecognized}, `{"text":"abc"}`, "amount not recognized"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t, tc.api, &fakeRenderer{}, Options{})
			rec := doRequest(s, http.MethodPost, "/transactions", tc.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Error != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, resp.Error)
			}
		})
	}
}

func TestHandleSubmitMalformedBody(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodPost, "/transactions", `{"text":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleSubmitStoreFailure(t *testing.T) {
	s := newTestServer(t, &fakeAPI{submitErr: core.ErrStoreNotInitialized}, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodPost, "/transactions", `{"text":"lazer 50"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "operation failed" {
		t.Fatalf("expected generic message, got %q", resp.Error)
	}
}

func TestHandleListTransactions(t *testing.T) {
	api := &fakeAPI{transactions: []core.Transaction{
		{ID: "a", Amount: 1}, {ID: "b", Amount: 2}, {ID: "c", Amount: 3},
	}}
	s := newTestServer(t, api, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodGet, "/transactions?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []core.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(got))
	}

	rec = doRequest(s, http.MethodGet, "/transactions?limit=bogus", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestHandleListTransactionsEmpty(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodGet, "/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Fatalf("expected empty JSON array, got %s", body)
	}
}

func TestHandleDeleteTransaction(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{})

	// Unknown ids are fine too; delete is idempotent.
	rec := doRequest(s, http.MethodDelete, "/transactions/no-such-id", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestBalanceEndpoints(t *testing.T) {
	api := &fakeAPI{balance: 123.45}
	s := newTestServer(t, api, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodGet, "/balance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp balanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Balance != 123.45 {
		t.Fatalf("expected 123.45, got %v", resp.Balance)
	}

	rec = doRequest(s, http.MethodPut, "/balance", `{"balance":999}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if api.balance != 999 {
		t.Fatalf("expected override applied, got %v", api.balance)
	}

	rec = doRequest(s, http.MethodPost, "/balance/recalculate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSummaryCaching(t *testing.T) {
	api := &fakeAPI{totals: []core.CategoryTotal{{Category: "Lazer", Total: 130}}}
	s := newTestServer(t, api, &fakeRenderer{}, Options{})

	for i := 0; i < 3; i++ {
		rec := doRequest(s, http.MethodGet, "/summary/categories", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}
	if api.totalsCalls != 1 {
		t.Fatalf("expected 1 ledger call thanks to caching, got %d", api.totalsCalls)
	}

	// A write invalidates the cache.
	doRequest(s, http.MethodPost, "/transactions", `{"text":"lazer 50"}`)
	doRequest(s, http.MethodGet, "/summary/categories", "")
	if api.totalsCalls != 2 {
		t.Fatalf("expected cache invalidation after write, got %d calls", api.totalsCalls)
	}
}

func TestMonthlySummary(t *testing.T) {
	api := &fakeAPI{flows: []core.MonthlyFlow{
		{Month: "2026-07", Income: 2500, Expense: 1000},
		{Month: "2026-08", Income: 2500, Expense: 1200},
	}}
	s := newTestServer(t, api, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodGet, "/summary/monthly", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []core.MonthlyFlow
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].Month != "2026-07" {
		t.Fatalf("unexpected flows: %v", got)
	}
}

func TestChartEndpoints(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{png: png}, Options{})

	for _, path := range []string{"/charts/categories.png", "/charts/monthly.png"} {
		rec := doRequest(s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Fatalf("%s: expected image/png, got %s", path, ct)
		}
	}
}

func TestChartEndpointsNoData(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{png: nil}, Options{})

	rec := doRequest(s, http.MethodGet, "/charts/categories.png", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 when nothing to draw, got %d", rec.Code)
	}
}

func TestListCategories(t *testing.T) {
	api := &fakeAPI{categories: []core.Category{{ID: "1", Name: "Lazer"}}}
	s := newTestServer(t, api, &fakeRenderer{}, Options{})

	rec := doRequest(s, http.MethodGet, "/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []core.Category
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Lazer" {
		t.Fatalf("unexpected categories: %v", got)
	}
}

func TestRateLimiting(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{RateLimitPerMinute: 1})

	rec := doRequest(s, http.MethodPost, "/transactions", `{"text":"lazer 50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = doRequest(s, http.MethodPost, "/transactions", `{"text":"lazer 50"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatal("expected Retry-After header")
	}

	// Reads are not rate limited.
	rec = doRequest(s, http.MethodGet, "/balance", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected reads to pass, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeAPI{}, &fakeRenderer{}, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(s, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}
