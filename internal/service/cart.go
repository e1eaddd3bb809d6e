package service

import (
	"context"
	"fmt"
	"math"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
)

// taxFor computes the tax on a subtotal at the configured percentage,
// rounded to the nearest cent.
func (s *Service) taxFor(subtotal int64) int64 {
	if s.taxRatePercent == 0 {
		return 0
	}
	return int64(math.Round(float64(subtotal) * s.taxRatePercent / 100))
}

// cartViewLocked renders the cart joined against the live catalog.
// Lines pointing at deleted items are skipped; they are purged from the
// persisted cart at the next mutation or checkout, not here.
func (s *Service) cartViewLocked() domain.CartView {
	view := domain.CartView{
		Mode:  s.cartMode,
		Lines: []domain.CartLineView{},
	}
	for _, item := range s.inventory {
		qty, ok := s.cart[item.ID]
		if !ok || qty <= 0 {
			continue
		}
		line := domain.CartLineView{
			ItemID:       item.ID,
			Name:         item.Name,
			Qty:          qty,
			PriceCents:   item.PriceCents,
			LineSubtotal: item.PriceCents * int64(qty),
			StockOnHand:  item.Stock,
		}
		view.Lines = append(view.Lines, line)
		view.SubtotalCents += line.LineSubtotal
	}
	view.TaxCents = s.taxFor(view.SubtotalCents)
	view.TotalCents = view.SubtotalCents + view.TaxCents
	return view
}

func (s *Service) CartView(ctx context.Context) domain.CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartViewLocked()
}

// AddToCart adds one unit of an item. Unknown items and items with no
// stock are a silent no-op; quantities clamp to the stock on hand so
// the cart can never promise more than the shelf holds.
func (s *Service) AddToCart(ctx context.Context, itemID string) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(itemID)
	if idx < 0 || s.inventory[idx].Stock <= 0 {
		return s.cartViewLocked(), nil
	}

	next := copyCart(s.cart)
	qty := next[itemID] + 1
	if stock := s.inventory[idx].Stock; qty > stock {
		qty = stock
	}
	next[itemID] = qty

	if err := store.SaveJSON(ctx, s.gateway, store.KeyCart, next); err != nil {
		return domain.CartView{}, fmt.Errorf("saving cart: %w", err)
	}
	s.cart = next
	return s.cartViewLocked(), nil
}

// ChangeQuantity adjusts a cart line by delta, starting from zero when
// no line exists yet, so a positive delta can create one. The result
// clamps to stock on hand; zero or below removes the line. Lines whose
// item has left the catalog are removed regardless of delta.
func (s *Service) ChangeQuantity(ctx context.Context, itemID string, delta int) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := copyCart(s.cart)
	idx := s.itemIndex(itemID)
	if idx < 0 {
		if _, ok := next[itemID]; !ok {
			return s.cartViewLocked(), nil
		}
		delete(next, itemID)
	} else {
		qty := next[itemID] + delta
		if stock := s.inventory[idx].Stock; qty > stock {
			qty = stock
		}
		if qty <= 0 {
			delete(next, itemID)
		} else {
			next[itemID] = qty
		}
	}

	if err := store.SaveJSON(ctx, s.gateway, store.KeyCart, next); err != nil {
		return domain.CartView{}, fmt.Errorf("saving cart: %w", err)
	}
	s.cart = next
	return s.cartViewLocked(), nil
}

// SetCartMode switches the cart between immediate sale and deferred
// order mode. The mode sticks across restarts and only resets to sale
// via an explicit switch.
func (s *Service) SetCartMode(ctx context.Context, mode string) (domain.CartView, error) {
	if mode != domain.ModeSale && mode != domain.ModeOrder {
		return domain.CartView{}, fmt.Errorf("%w: unknown cart mode %q", store.ErrInvalidInput, mode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if mode != s.cartMode {
		if err := store.SaveJSON(ctx, s.gateway, store.KeyCartMode, mode); err != nil {
			return domain.CartView{}, fmt.Errorf("saving cart mode: %w", err)
		}
		s.cartMode = mode
	}
	return s.cartViewLocked(), nil
}

// ClearCart empties the cart without completing anything.
func (s *Service) ClearCart(ctx context.Context) (domain.CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]int)
	if err := store.SaveJSON(ctx, s.gateway, store.KeyCart, next); err != nil {
		return domain.CartView{}, fmt.Errorf("saving cart: %w", err)
	}
	s.cart = next
	return s.cartViewLocked(), nil
}
