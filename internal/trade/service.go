package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sproutvest/trade-core/internal/costing"
	"github.com/sproutvest/trade-core/internal/guardrail"
	"github.com/sproutvest/trade-core/internal/ledger"
	"github.com/sproutvest/trade-core/internal/metrics"
	"github.com/sproutvest/trade-core/internal/model"
	"github.com/sproutvest/trade-core/internal/quote"
	"github.com/sproutvest/trade-core/internal/store"
	"github.com/sproutvest/trade-core/internal/symbol"
)

// Service executes orders against the ledger. Fills are synchronous at
// the caller-supplied reference price; every state change happens inside
// a single per-user transaction.
type Service struct {
	store   store.Store
	quotes  quote.Source
	limiter *guardrail.Limiter
	hub     *WSHub
}

// NewService creates a trading service. limiter and hub may be nil.
func NewService(st store.Store, quotes quote.Source, limiter *guardrail.Limiter, hub *WSHub) *Service {
	return &Service{store: st, quotes: quotes, limiter: limiter, hub: hub}
}

// SubmitOrder validates a trade intent and, if it passes every check,
// fills it immediately at refPrice. Checks run in a fixed sequence so a
// request that fails multiple checks always reports the same error:
// quantity, price, position sufficiency (sells), funds sufficiency
// (buys), then risk caps. Validation failures on the raw inputs reject
// before touching storage and leave no order record; rejections decided
// inside the transaction are recorded as rejected orders best-effort.
func (s *Service) SubmitOrder(ctx context.Context, userID, sym, name, side string, qty int64, refPrice decimal.Decimal) (*model.Order, error) {
	start := time.Now()

	if err := costing.ValidateQuantity(qty); err != nil {
		return nil, err
	}
	if err := costing.ValidatePrice(refPrice); err != nil {
		return nil, err
	}
	sec, err := symbol.Parse(sym)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrNotFound, err)
	}
	// Canonical form from here on; padded input must not mint a
	// position key that quote lookups will never match.
	sym = sec.Symbol
	if side != model.SideBuy && side != model.SideSell {
		return nil, fmt.Errorf("%w: unknown side %q", ledger.ErrInvalidQuantity, side)
	}

	notional := costing.Notional(qty, refPrice)
	order := &model.Order{
		ID:             uuid.New().String(),
		UserID:         userID,
		Symbol:         sym,
		Name:           name,
		Side:           side,
		Quantity:       qty,
		RequestedPrice: refPrice,
		Status:         model.OrderStatusPending,
		CreatedAt:      time.Now(),
	}

	err = s.store.WithUserLedger(ctx, userID, func(tx store.LedgerTx) error {
		acct, err := tx.Account()
		if err != nil {
			return err
		}
		pos, err := tx.Position(sym)
		if err != nil {
			return err
		}

		if side == model.SideSell {
			if pos == nil || pos.Quantity < qty {
				return ledger.ErrInsufficientPosition
			}
		} else {
			if acct.Cash.LessThan(notional) {
				return ledger.ErrInsufficientFunds
			}
			var held int64
			if pos != nil {
				held = pos.Quantity
			}
			if err := s.limiter.CheckBuy(held, qty, notional); err != nil {
				return err
			}
		}

		now := time.Now()
		if side == model.SideBuy {
			if err := tx.SetAccountCash(acct.Cash.Sub(notional)); err != nil {
				return err
			}
			if pos == nil {
				pos = &model.Position{
					UserID:       userID,
					Symbol:       sym,
					Name:         name,
					Quantity:     qty,
					AvgCost:      refPrice.Round(costing.CostScale),
					PurchaseDate: now,
				}
			} else {
				pos.AvgCost = costing.BlendAvgCost(pos.Quantity, pos.AvgCost, qty, refPrice)
				pos.Quantity += qty
				if name != "" {
					pos.Name = name
				}
			}
			if err := tx.UpsertPosition(pos); err != nil {
				return err
			}
		} else {
			if err := tx.SetAccountCash(acct.Cash.Add(notional)); err != nil {
				return err
			}
			order.RealizedPL = costing.RealizedPL(qty, refPrice, pos.AvgCost)
			pos.Quantity -= qty
			if pos.Quantity == 0 {
				if err := tx.DeletePosition(sym); err != nil {
					return err
				}
			} else {
				if err := tx.UpsertPosition(pos); err != nil {
					return err
				}
			}
		}

		order.Status = model.OrderStatusFilled
		order.FilledPrice = refPrice
		order.FilledAt = now
		return tx.InsertOrder(order)
	})
	if err != nil {
		reason := rejectReason(err)
		if reason != "" {
			order.Status = model.OrderStatusRejected
			order.RejectReason = reason
			if insErr := s.store.InsertOrder(ctx, order); insErr != nil {
				slog.Warn("failed to record rejected order",
					"order_id", order.ID, "user_id", userID, "err", insErr)
			}
			metrics.OrdersTotal.WithLabelValues(side, model.OrderStatusRejected).Inc()
			metrics.OrderRejections.WithLabelValues(reason).Inc()
		}
		return nil, err
	}

	metrics.OrdersTotal.WithLabelValues(side, model.OrderStatusFilled).Inc()
	metrics.OrderLatency.WithLabelValues(side).Observe(time.Since(start).Seconds())
	notionalF, _ := notional.Float64()
	metrics.TradedNotional.WithLabelValues(side).Add(notionalF)

	slog.Info("order filled",
		"order_id", order.ID,
		"user_id", userID,
		"symbol", sym,
		"side", side,
		"quantity", qty,
		"price", refPrice.String(),
		"notional", notional.String())

	if s.hub != nil {
		msg := WSMessage{
			Type:      "order_filled",
			OrderID:   order.ID,
			UserID:    userID,
			Symbol:    sym,
			Name:      name,
			Side:      side,
			Quantity:  qty,
			FillPrice: refPrice.StringFixed(2),
		}
		if side == model.SideSell {
			msg.RealizedPL = order.RealizedPL.StringFixed(2)
		}
		s.hub.Broadcast(msg)
	}

	return order, nil
}

// rejectReason maps a business-rule rejection to a stable reason token.
// Infrastructure and input-validation errors return "" and produce no
// order record.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrInsufficientPosition):
		return "insufficient_position"
	case errors.Is(err, guardrail.ErrPositionLimitExceeded):
		return "position_limit"
	case errors.Is(err, guardrail.ErrNotionalLimitExceeded):
		return "notional_limit"
	}
	return ""
}
