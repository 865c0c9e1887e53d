package trade

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/guardrail"
	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
	"github.com/sproutvest/trade-core/internal/portfolio"
	"github.com/sproutvest/trade-core/internal/quote"
)

// TradeRequest is the body for POST /api/v1/trade/buy and /sell.
type TradeRequest struct {
	UserID   string          `json:"user_id"`
	Symbol   string          `json:"symbol"`
	Name     string          `json:"name,omitempty"`
	Quantity int64           `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// TradeResponse is returned after a successful fill.
type TradeResponse struct {
	OrderID     string           `json:"order_id"`
	Status      string           `json:"status"`
	Symbol      string           `json:"symbol"`
	Side        string           `json:"side"`
	Quantity    int64            `json:"quantity"`
	FilledPrice decimal.Decimal  `json:"filled_price"`
	RealizedPL  *decimal.Decimal `json:"realized_pl,omitempty"`
	Position    *PositionAfter   `json:"position,omitempty"`
}

// PositionAfter is the post-fill position snapshot included in trade
// responses. Nil when the fill closed the position.
type PositionAfter struct {
	Quantity int64           `json:"quantity"`
	AvgCost  decimal.Decimal `json:"avg_cost"`
}

// HandleBuy handles POST /api/v1/trade/buy.
func (s *Service) HandleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.SideBuy)
}

// HandleSell handles POST /api/v1/trade/sell.
func (s *Service) HandleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, model.SideSell)
}

func (s *Service) handleTrade(w http.ResponseWriter, r *http.Request, side string) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Symbol) == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	order, err := s.SubmitOrder(r.Context(), req.UserID, req.Symbol, req.Name, side, req.Quantity, req.Price)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	resp := TradeResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		Symbol:      order.Symbol,
		Side:        order.Side,
		Quantity:    order.Quantity,
		FilledPrice: order.FilledPrice,
	}
	if side == model.SideSell {
		pl := order.RealizedPL
		resp.RealizedPL = &pl
	}
	if pos, err := s.store.GetPosition(r.Context(), req.UserID, order.Symbol); err == nil && pos != nil {
		resp.Position = &PositionAfter{Quantity: pos.Quantity, AvgCost: pos.AvgCost}
	}

	writeJSON(w, resp)
}

// HandlePositions handles GET /api/v1/positions/{userID}: the user's
// holdings enriched with live quotes.
func (s *Service) HandlePositions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	positions, err := s.store.GetPositions(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}

	views := []model.PositionView{}
	if len(positions) > 0 {
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}
		quotes, err := s.quotes.GetBatch(r.Context(), symbols)
		if err != nil {
			writeError(w, err.Error(), statusFor(err))
			return
		}
		views, err = portfolio.EnrichPositions(positions, quotes)
		if err != nil {
			writeError(w, err.Error(), statusFor(err))
			return
		}
	}

	writeJSON(w, map[string]any{"positions": views})
}

// HandleAccount handles GET /api/v1/account/{userID}: cash plus the
// derived totals over current quotes.
func (s *Service) HandleAccount(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	acct, err := s.store.GetAccount(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, "account not found", http.StatusNotFound)
			return
		}
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	positions, err := s.store.GetPositions(r.Context(), userID)
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}

	quotes := map[string]model.Quote{}
	if len(positions) > 0 {
		symbols := make([]string, 0, len(positions))
		for _, p := range positions {
			symbols = append(symbols, p.Symbol)
		}
		quotes, err = s.quotes.GetBatch(r.Context(), symbols)
		if err != nil {
			writeError(w, err.Error(), statusFor(err))
			return
		}
	}

	summary, err := portfolio.Project(acct, positions, quotes)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, summary)
}

// HandleOrders handles GET /api/v1/orders/{userID}?page=&page_size=.
// Orders come back newest first.
func (s *Service) HandleOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	orders, total, err := s.store.GetOrders(r.Context(), userID, page, pageSize)
	if err != nil {
		writeError(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	writeJSON(w, map[string]any{
		"orders":    orders,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// HandleQuote handles GET /api/v1/quote/{symbol}.
func (s *Service) HandleQuote(w http.ResponseWriter, r *http.Request) {
	sym := chi.URLParam(r, "symbol")

	q, err := s.quotes.GetQuote(r.Context(), sym)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, q)
}

// QuoteBatchRequest is the body for POST /api/v1/quotes.
type QuoteBatchRequest struct {
	Symbols []string `json:"symbols"`
}

// HandleQuotes handles POST /api/v1/quotes: batch quote lookup for up
// to 50 symbols. Unknown symbols are omitted from the result.
func (s *Service) HandleQuotes(w http.ResponseWriter, r *http.Request) {
	var req QuoteBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) == 0 {
		writeError(w, "symbols is required", http.StatusBadRequest)
		return
	}
	if len(req.Symbols) > quote.MaxBatchSize {
		writeError(w, "too many symbols requested", http.StatusBadRequest)
		return
	}

	quotes, err := s.quotes.GetBatch(r.Context(), req.Symbols)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, map[string]any{"quotes": quotes})
}

// statusFor maps engine errors to HTTP status codes. Risk-cap
// rejections read as conflicts, like the ledger's own business errors.
func statusFor(err error) int {
	if errors.Is(err, guardrail.ErrPositionLimitExceeded) ||
		errors.Is(err, guardrail.ErrNotionalLimitExceeded) {
		return http.StatusConflict
	}
	return ledger.HTTPStatus(err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
