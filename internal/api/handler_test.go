package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dividend-tracker/config"
	"dividend-tracker/internal/app"
	"dividend-tracker/models"
	"dividend-tracker/services"
)

type fakeRepo struct {
	portfolio   []models.PortfolioItem
	dividends   []models.DividendRecord
	invalidated []string
	user        *models.User
	healthErr   error
}

func (f *fakeRepo) Close()                           {}
func (f *fakeRepo) Health(ctx context.Context) error { return f.healthErr }

func (f *fakeRepo) CreateUser(ctx context.Context, username, password, email string) (*models.User, error) {
	return &models.User{ID: uuid.New(), Username: username, Email: email}, nil
}

func (f *fakeRepo) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	return f.user, nil
}

func (f *fakeRepo) UpsertPortfolioItem(ctx context.Context, userID uuid.UUID, symbol string, shares decimal.Decimal) (*models.PortfolioItem, error) {
	item := models.PortfolioItem{ID: uuid.New(), UserID: userID, Symbol: symbol, Shares: shares}
	f.portfolio = append(f.portfolio, item)
	return &item, nil
}

func (f *fakeRepo) GetPortfolio(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	return f.portfolio, nil
}

func (f *fakeRepo) DeletePortfolioItem(ctx context.Context, userID uuid.UUID, symbol string) (bool, error) {
	return len(f.portfolio) > 0, nil
}

func (f *fakeRepo) RecordDividend(ctx context.Context, rec *models.DividendRecord) error {
	f.dividends = append(f.dividends, *rec)
	return nil
}

func (f *fakeRepo) GetDividendHistory(ctx context.Context, userID uuid.UUID, limit int) ([]models.DividendRecord, error) {
	return f.dividends, nil
}

func (f *fakeRepo) InvalidateQuote(ctx context.Context, symbol string) error {
	f.invalidated = append(f.invalidated, symbol)
	return nil
}

type fakeResolver struct {
	quotes map[string]*models.StockQuote
}

func (f *fakeResolver) Resolve(ctx context.Context, symbol string) (*models.StockQuote, error) {
	return f.quotes[symbol], nil
}

type fakeAnalyzer struct{}

func (f *fakeAnalyzer) AnalyzePortfolio(ctx context.Context, items []models.PortfolioItem) (*models.AnalysisReport, error) {
	report := &models.AnalysisReport{Resolved: len(items)}
	for _, item := range items {
		report.Results = append(report.Results, models.AnalysisResult{Symbol: item.Symbol, OK: true})
	}
	return report, nil
}

type fakeRates struct{}

func (f *fakeRates) Snapshot(ctx context.Context) models.CurrencyRateSnapshot {
	return models.CurrencyRateSnapshot{Rates: map[string]float64{"EUR": 0.85}}
}

func newTestRouter(repo app.RepositoryInterface) http.Handler {
	services.SetGlobalRegistry(services.NewCircuitBreakerRegistry(services.DefaultCircuitBreakerConfig))
	cfg := config.NewTestConfig()
	resolver := &fakeResolver{quotes: map[string]*models.StockQuote{
		"AAPL": {
			Symbol:       "AAPL",
			CurrentPrice: decimal.RequireFromString("175.50"),
			Currency:     "USD",
			CompanyName:  "Apple Inc",
			Source:       models.QuoteSourceTertiary,
		},
	}}
	application := app.New(cfg, repo, resolver, &fakeAnalyzer{}, &fakeRates{})
	return NewRouter(NewHandler(application, cfg), cfg)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth_NoDatabase(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if body.Services["database"] != "not_configured" {
		t.Errorf("expected database not_configured, got %q", body.Services["database"])
	}
}

func TestHandleHealth_DatabaseConnected(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doJSON(t, router, http.MethodGet, "/api/health", "")
	var body struct {
		Services map[string]string `json:"services"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Services["database"] != "connected" {
		t.Errorf("expected database connected, got %q", body.Services["database"])
	}
}

func TestHandleGetQuote(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodGet, "/api/quote/aapl", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var quote models.StockQuote
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if quote.Symbol != "AAPL" {
		t.Errorf("expected symbol AAPL (uppercased), got %q", quote.Symbol)
	}
	if !quote.CurrentPrice.Equal(decimal.RequireFromString("175.50")) {
		t.Errorf("expected price 175.50, got %s", quote.CurrentPrice)
	}
}

func TestHandleGetQuote_UnresolvedIs404(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodGet, "/api/quote/NOPE", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleInvalidateQuote(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodDelete, "/api/quote/aapl/cache", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(repo.invalidated) != 1 || repo.invalidated[0] != "AAPL" {
		t.Errorf("expected AAPL invalidated, got %v", repo.invalidated)
	}
}

func TestHandleGetRates(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodGet, "/api/rates", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snapshot models.CurrencyRateSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snapshot.Rates["EUR"] != 0.85 {
		t.Errorf("expected EUR 0.85, got %v", snapshot.Rates["EUR"])
	}
}

func TestHandleRegister(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doJSON(t, router, http.MethodPost, "/api/users/register",
		`{"username":"alice","password":"secret","email":"a@example.com"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var user models.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected username alice, got %q", user.Username)
	}
}

func TestHandleRegister_RequiresCredentials(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doJSON(t, router, http.MethodPost, "/api/users/register", `{"username":"alice"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRegister_NoDatabase(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/users/register",
		`{"username":"alice","password":"secret"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a database, got %d", rec.Code)
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	router := newTestRouter(&fakeRepo{user: nil})

	rec := doJSON(t, router, http.MethodPost, "/api/users/login",
		`{"username":"alice","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandleAddHolding(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(repo)
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/users/"+userID.String()+"/portfolio",
		`{"symbol":"msft","shares":"10.5"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var item models.PortfolioItem
	if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if item.Symbol != "MSFT" {
		t.Errorf("expected symbol MSFT (uppercased), got %q", item.Symbol)
	}
	if !item.Shares.Equal(decimal.RequireFromString("10.5")) {
		t.Errorf("expected shares 10.5, got %s", item.Shares)
	}
}

func TestHandleAddHolding_RejectsBadShares(t *testing.T) {
	router := newTestRouter(&fakeRepo{})
	userID := uuid.New()

	for _, body := range []string{
		`{"symbol":"MSFT","shares":"0"}`,
		`{"symbol":"MSFT","shares":"-1"}`,
		`{"symbol":"MSFT","shares":"abc"}`,
		`{"symbol":"","shares":"5"}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/users/"+userID.String()+"/portfolio", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleAddHolding_InvalidUserID(t *testing.T) {
	router := newTestRouter(&fakeRepo{})

	rec := doJSON(t, router, http.MethodPost, "/api/users/not-a-uuid/portfolio",
		`{"symbol":"MSFT","shares":"5"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid user id, got %d", rec.Code)
	}
}

func TestHandleGetPortfolio(t *testing.T) {
	repo := &fakeRepo{portfolio: []models.PortfolioItem{
		{Symbol: "AAPL", Shares: decimal.NewFromInt(10)},
		{Symbol: "KO", Shares: decimal.NewFromInt(25)},
	}}
	router := newTestRouter(repo)
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+userID.String()+"/portfolio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Items []models.PortfolioItem `json:"items"`
		Count int                    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 2 || len(body.Items) != 2 {
		t.Errorf("expected 2 items, got count=%d len=%d", body.Count, len(body.Items))
	}
}

func TestHandleRemoveHolding_MissingIs404(t *testing.T) {
	router := newTestRouter(&fakeRepo{})
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodDelete, "/api/users/"+userID.String()+"/portfolio/AAPL", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown holding, got %d", rec.Code)
	}
}

func TestHandleAnalyzeAdHoc(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/analyze",
		`{"holdings":[{"symbol":"aapl","shares":"10"},{"symbol":"KO","shares":"25"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if report.Resolved != 2 {
		t.Errorf("expected 2 resolved, got %d", report.Resolved)
	}
	if len(report.Results) != 2 || report.Results[0].Symbol != "AAPL" {
		t.Errorf("expected uppercased symbols in results, got %+v", report.Results)
	}
}

func TestHandleAnalyzeAdHoc_EmptyIs400(t *testing.T) {
	router := newTestRouter(nil)

	rec := doJSON(t, router, http.MethodPost, "/api/analyze", `{"holdings":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandleRecordDividend(t *testing.T) {
	repo := &fakeRepo{}
	router := newTestRouter(repo)
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodPost, "/api/users/"+userID.String()+"/dividends",
		`{"symbol":"ko","amount":"0.485","shares":"100","payment_date":"2024-06-14"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(repo.dividends) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(repo.dividends))
	}
	stored := repo.dividends[0]
	if stored.Symbol != "KO" {
		t.Errorf("expected symbol KO, got %q", stored.Symbol)
	}
	if !stored.TotalPayment.Equal(decimal.RequireFromString("48.5")) {
		t.Errorf("expected total 48.5, got %s", stored.TotalPayment)
	}
	if stored.PaymentDate == nil || stored.PaymentDate.Format("2006-01-02") != "2024-06-14" {
		t.Errorf("expected payment date 2024-06-14, got %v", stored.PaymentDate)
	}
}

func TestHandleRecordDividend_RejectsBadInput(t *testing.T) {
	router := newTestRouter(&fakeRepo{})
	userID := uuid.New()

	for _, body := range []string{
		`{"symbol":"KO","amount":"-1","shares":"100"}`,
		`{"symbol":"KO","amount":"0.5","shares":"0"}`,
		`{"symbol":"","amount":"0.5","shares":"100"}`,
		`{"symbol":"KO","amount":"0.5","shares":"100","payment_date":"14/06/2024"}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/users/"+userID.String()+"/dividends", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleGetDividendHistory(t *testing.T) {
	repo := &fakeRepo{dividends: []models.DividendRecord{
		{Symbol: "KO", Amount: decimal.RequireFromString("0.485")},
	}}
	router := newTestRouter(repo)
	userID := uuid.New()

	rec := doJSON(t, router, http.MethodGet, "/api/users/"+userID.String()+"/dividends?limit=10", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var records []models.DividendRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(records) != 1 || records[0].Symbol != "KO" {
		t.Errorf("expected one KO record, got %+v", records)
	}
}
