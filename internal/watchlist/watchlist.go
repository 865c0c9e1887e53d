// Package watchlist provides CRUD over a user's stock watchlist and the
// HTTP handlers for it. Add and remove are idempotent: toggling a star on
// an already-favorited stock never surfaces an error.
package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/model"
	"github.com/sproutvest/trade-core/internal/store"
	"github.com/sproutvest/trade-core/internal/symbol"
)

// Manager owns the watchlist operations.
type Manager struct {
	store store.Store
}

// NewManager creates a watchlist manager over the given store.
func NewManager(st store.Store) *Manager {
	return &Manager{store: st}
}

// Add puts a symbol on the user's watchlist. Adding a present symbol is a
// no-op success. New entries sort after existing ones.
func (m *Manager) Add(ctx context.Context, userID, sym, name string) error {
	if _, err := symbol.Parse(sym); err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}

	entries, err := m.store.ListWatchlist(ctx, userID)
	if err != nil {
		return err
	}
	nextOrder := 1
	for _, e := range entries {
		if e.SortOrder >= nextOrder {
			nextOrder = e.SortOrder + 1
		}
	}

	return m.store.UpsertWatchlistEntry(ctx, &model.WatchlistEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symbol:    sym,
		Name:      name,
		SortOrder: nextOrder,
		CreatedAt: time.Now(),
	})
}

// Remove takes a symbol off the watchlist. Removing an absent symbol is a
// no-op success.
func (m *Manager) Remove(ctx context.Context, userID, sym string) error {
	return m.store.DeleteWatchlistEntry(ctx, userID, sym)
}

// List returns the user's entries ordered by sort order, then insertion time.
func (m *Manager) List(ctx context.Context, userID string) ([]model.WatchlistEntry, error) {
	return m.store.ListWatchlist(ctx, userID)
}

// --- HTTP handlers ---

// AddRequest is the JSON body for POST /watchlist/{userID}.
type AddRequest struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// HandleList handles GET /api/v1/watchlist/{userID}.
func (m *Manager) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	entries, err := m.List(r.Context(), userID)
	if err != nil {
		writeError(w, err.Error(), ledger.HTTPStatus(err))
		return
	}
	if entries == nil {
		entries = []model.WatchlistEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entries)
}

// HandleAdd handles POST /api/v1/watchlist/{userID}.
func (m *Manager) HandleAdd(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Symbol == "" {
		writeError(w, "symbol is required", http.StatusBadRequest)
		return
	}

	if err := m.Add(r.Context(), userID, req.Symbol, req.Name); err != nil {
		writeError(w, err.Error(), ledger.HTTPStatus(err))
		return
	}

	slog.Info("watchlist add", "user", userID, "symbol", req.Symbol)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// HandleRemove handles DELETE /api/v1/watchlist/{userID}/{symbol}.
func (m *Manager) HandleRemove(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	sym := chi.URLParam(r, "symbol")

	if err := m.Remove(r.Context(), userID, sym); err != nil {
		writeError(w, err.Error(), ledger.HTTPStatus(err))
		return
	}

	slog.Info("watchlist remove", "user", userID, "symbol", sym)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
