package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"dividend-tracker/config"
	"dividend-tracker/internal/app"
	"dividend-tracker/models"
	"dividend-tracker/repository"
	"dividend-tracker/services"
)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the health status of the application
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status": "ok",
		"services": map[string]string{
			"database": "not_configured",
		},
	}

	if h.app.HasDatabase() {
		if err := h.app.Repo().Health(r.Context()); err == nil {
			status["services"].(map[string]string)["database"] = "connected"
		} else {
			status["services"].(map[string]string)["database"] = "disconnected"
			status["status"] = "degraded"
		}
	}

	cbStatus := services.GetGlobalRegistry().Status()
	status["circuit_breakers"] = cbStatus
	for _, cb := range cbStatus {
		if cb.State == "open" {
			status["status"] = "degraded"
			break
		}
	}

	h.jsonResponse(w, status)
}

// HandleGetQuote resolves one symbol through the provider chain.
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if symbol == "" {
		h.jsonError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	quote, err := h.app.GetQuote(r.Context(), symbol)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if quote == nil {
		h.jsonError(w, "symbol could not be resolved by any provider", http.StatusNotFound)
		return
	}
	h.jsonResponse(w, quote)
}

// HandleInvalidateQuote drops a symbol's cached quote.
func (h *Handler) HandleInvalidateQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	if err := h.app.InvalidateQuote(r.Context(), symbol); err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, map[string]string{"status": "invalidated", "symbol": symbol})
}

// HandleGetRates returns the current currency rate snapshot.
func (h *Handler) HandleGetRates(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, h.app.GetRates(r.Context()))
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// HandleRegister creates a new user account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		h.jsonError(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.app.RegisterUser(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken):
			h.jsonError(w, "username already taken", http.StatusConflict)
		case errors.Is(err, app.ErrNoDatabase):
			h.jsonError(w, "user accounts require a database", http.StatusServiceUnavailable)
		default:
			h.jsonError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.jsonResponseStatus(w, user, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and returns the user.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	user, err := h.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrNoDatabase) {
			h.jsonError(w, "user accounts require a database", http.StatusServiceUnavailable)
			return
		}
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		h.jsonError(w, "invalid username or password", http.StatusUnauthorized)
		return
	}
	h.jsonResponse(w, user)
}

// userIDParam parses the {userID} path parameter.
func (h *Handler) userIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		h.jsonError(w, "invalid user id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// HandleGetPortfolio lists a user's holdings.
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	items, err := h.app.GetPortfolio(r.Context(), userID)
	if err != nil {
		h.persistenceError(w, err)
		return
	}
	h.jsonResponse(w, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

type holdingRequest struct {
	Symbol string `json:"symbol"`
	Shares string `json:"shares"`
}

// HandleAddHolding adds or updates one holding.
func (h *Handler) HandleAddHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var req holdingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		h.jsonError(w, "symbol is required", http.StatusBadRequest)
		return
	}
	shares, err := decimal.NewFromString(req.Shares)
	if err != nil || !shares.IsPositive() {
		h.jsonError(w, "shares must be a positive number", http.StatusBadRequest)
		return
	}

	item, err := h.app.AddHolding(r.Context(), userID, symbol, shares)
	if err != nil {
		h.persistenceError(w, err)
		return
	}
	h.jsonResponse(w, item)
}

// HandleRemoveHolding deletes one holding.
func (h *Handler) HandleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "symbol")))
	removed, err := h.app.RemoveHolding(r.Context(), userID, symbol)
	if err != nil {
		h.persistenceError(w, err)
		return
	}
	if !removed {
		h.jsonError(w, "holding not found", http.StatusNotFound)
		return
	}
	h.jsonResponse(w, map[string]string{"status": "deleted", "symbol": symbol})
}

// HandleAnalyzePortfolio values a user's stored portfolio.
func (h *Handler) HandleAnalyzePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	report, err := h.app.AnalyzePortfolio(r.Context(), userID)
	if err != nil {
		h.persistenceError(w, err)
		return
	}
	h.jsonResponse(w, report)
}

type adHocAnalysisRequest struct {
	Holdings []holdingRequest `json:"holdings"`
}

// HandleAnalyzeAdHoc values a list of holdings sent in the request body,
// without touching stored portfolios.
func (h *Handler) HandleAnalyzeAdHoc(w http.ResponseWriter, r *http.Request) {
	var req adHocAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}
	if len(req.Holdings) == 0 {
		h.jsonError(w, "holdings are required", http.StatusBadRequest)
		return
	}

	items := make([]models.PortfolioItem, 0, len(req.Holdings))
	for _, holding := range req.Holdings {
		symbol := strings.ToUpper(strings.TrimSpace(holding.Symbol))
		shares, err := decimal.NewFromString(holding.Shares)
		if symbol == "" || err != nil || !shares.IsPositive() {
			h.jsonError(w, "each holding needs a symbol and positive shares", http.StatusBadRequest)
			return
		}
		items = append(items, models.PortfolioItem{Symbol: symbol, Shares: shares})
	}

	report, err := h.app.AnalyzeSymbols(r.Context(), items)
	if err != nil {
		h.jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.jsonResponse(w, report)
}

type dividendRequest struct {
	Symbol      string `json:"symbol"`
	Amount      string `json:"amount"`
	Shares      string `json:"shares"`
	Currency    string `json:"currency"`
	PaymentDate string `json:"payment_date"`
}

// HandleRecordDividend appends one received payment to the history.
func (h *Handler) HandleRecordDividend(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	var req dividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.jsonError(w, "invalid JSON request", http.StatusBadRequest)
		return
	}

	amount, amountErr := decimal.NewFromString(req.Amount)
	shares, sharesErr := decimal.NewFromString(req.Shares)
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" || amountErr != nil || sharesErr != nil || !amount.IsPositive() || !shares.IsPositive() {
		h.jsonError(w, "symbol, positive amount and positive shares are required", http.StatusBadRequest)
		return
	}

	rec := &models.DividendRecord{
		UserID:   userID,
		Symbol:   symbol,
		Amount:   amount,
		Shares:   shares,
		Currency: req.Currency,
	}
	if req.PaymentDate != "" {
		date, err := parseDate(req.PaymentDate)
		if err != nil {
			h.jsonError(w, "payment_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		rec.PaymentDate = &date
	}

	if err := h.app.RecordDividend(r.Context(), rec); err != nil {
		h.persistenceError(w, err)
		return
	}
	h.jsonResponseStatus(w, rec, http.StatusCreated)
}

// HandleGetDividendHistory lists a user's recorded payments.
func (h *Handler) HandleGetDividendHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userIDParam(w, r)
	if !ok {
		return
	}

	limit := h.ParseLimitParam(r, 100)
	records, err := h.app.GetDividendHistory(r.Context(), userID, limit)
	if err != nil {
		h.persistenceError(w, err)
		return
	}
	h.jsonResponse(w, records)
}

// ParseLimitParam parses the limit query parameter with a default.
func (h *Handler) ParseLimitParam(r *http.Request, defaultLimit int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	return limit
}

func (h *Handler) persistenceError(w http.ResponseWriter, err error) {
	if errors.Is(err, app.ErrNoDatabase) {
		h.jsonError(w, "this endpoint requires a database", http.StatusServiceUnavailable)
		return
	}
	h.jsonError(w, err.Error(), http.StatusInternalServerError)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonResponseStatus(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
