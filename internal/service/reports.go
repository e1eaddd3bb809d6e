package service

import (
	"context"
	"encoding/json"
	"log"
	"sort"

	"waiasella/backend/internal/cache"
	"waiasella/backend/internal/domain"
)

// Summary aggregates the ledger and catalog into the dashboard totals.
// Only transactions in sale mode count; pending orders are invisible to
// every figure until delivered.
func (s *Service) Summary(ctx context.Context) domain.ReportSummary {
	var summary domain.ReportSummary
	if s.cachedReport(ctx, cache.KeySummary, &summary) {
		return summary
	}

	s.mu.Lock()
	for _, tx := range s.transactions {
		if tx.Mode != domain.ModeSale {
			continue
		}
		summary.TotalSalesCents += tx.TotalCents
		summary.TotalProfitCents += tx.ProfitCents
		summary.Transactions++
	}
	for _, item := range s.inventory {
		if item.Stock <= item.EffectiveLowPoint(s.lowStockThreshold) {
			summary.LowStockCount++
		}
	}
	s.mu.Unlock()

	s.storeReport(ctx, cache.KeySummary, summary)
	return summary
}

// TopSelling ranks items by lifetime units sold, descending. Ties keep
// the tally's own order, which is the order items first ever sold in.
// Tally entries for items no longer in the catalog are skipped.
func (s *Service) TopSelling(ctx context.Context) []domain.TopSellingEntry {
	var top []domain.TopSellingEntry
	if s.cachedReport(ctx, cache.KeyTopSelling, &top) {
		return top
	}

	s.mu.Lock()
	top = make([]domain.TopSellingEntry, 0, len(s.tally))
	for _, entry := range s.tally {
		idx := s.itemIndex(entry.ItemID)
		if idx < 0 {
			continue
		}
		item := s.inventory[idx]
		top = append(top, domain.TopSellingEntry{
			ItemID:  item.ID,
			Name:    item.Name,
			Image:   item.Image,
			QtySold: entry.Qty,
		})
	}
	s.mu.Unlock()

	sort.SliceStable(top, func(i, j int) bool {
		return top[i].QtySold > top[j].QtySold
	})
	if len(top) > s.topSellingLimit {
		top = top[:s.topSellingLimit]
	}

	s.storeReport(ctx, cache.KeyTopSelling, top)
	return top
}

// ReorderList returns the items at or below their reorder threshold,
// in catalog order.
func (s *Service) ReorderList(ctx context.Context) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Item{}
	for _, item := range s.inventory {
		if item.Stock <= item.EffectiveLowPoint(s.lowStockThreshold) {
			out = append(out, item)
		}
	}
	return out
}

// cachedReport tries to serve a report payload from the cache. Cache
// trouble is logged and treated as a miss.
func (s *Service) cachedReport(ctx context.Context, key string, dest any) bool {
	raw, ok, err := s.reports.Get(ctx, key)
	if err != nil {
		log.Printf("[service] WARN: report cache read for %s: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("[service] WARN: stale report cache entry for %s: %v", key, err)
		return false
	}
	return true
}

func (s *Service) storeReport(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.reports.Set(ctx, key, raw, s.reportCacheTTL); err != nil {
		log.Printf("[service] WARN: report cache write for %s: %v", key, err)
	}
}
