package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
)

const mirrorPushTimeout = 5 * time.Second

// CompleteSale turns the current cart into a ledger transaction.
//
// Cart lines whose item has left the catalog are dropped before totals
// are computed. In sale mode the sale takes effect immediately: stock
// decrements and the sold tally increments. In order mode the cart is
// captured and numbered but stock and tally are untouched until the
// order is delivered; a customer name is mandatory, and a nil name
// (cancelled prompt) aborts with no state change at all.
func (s *Service) CompleteSale(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mode := s.cartMode

	var customer string
	if mode == domain.ModeOrder {
		if req.CustomerName == nil {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: order cancelled, no customer name given", store.ErrInvalidInput)
		}
		customer = strings.TrimSpace(*req.CustomerName)
		if customer == "" {
			return domain.CheckoutResponse{}, fmt.Errorf("%w: customer name is required for orders", store.ErrInvalidInput)
		}
	} else if req.CustomerName != nil {
		customer = strings.TrimSpace(*req.CustomerName)
	}

	// Snapshot lines in catalog order, silently dropping orphans.
	var lines []domain.TransactionLine
	var subtotal, profit int64
	for _, item := range s.inventory {
		qty, ok := s.cart[item.ID]
		if !ok || qty <= 0 {
			continue
		}
		lines = append(lines, domain.TransactionLine{
			ItemID:     item.ID,
			Name:       item.Name,
			Qty:        qty,
			PriceCents: item.PriceCents,
			CostCents:  item.CostCents,
		})
		subtotal += item.PriceCents * int64(qty)
		profit += (item.PriceCents - item.CostCents) * int64(qty)
	}
	if len(lines) == 0 {
		return domain.CheckoutResponse{}, store.ErrEmptyCart
	}

	tax := s.taxFor(subtotal)

	tx := domain.Transaction{
		Date:          s.now().UTC(),
		Items:         lines,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		TotalCents:    subtotal + tax,
		ProfitCents:   profit,
		Mode:          mode,
		CustomerName:  customer,
	}
	if actor, ok := ActorFromContext(ctx); ok {
		tx.CashierName = actor.Username
	}

	nextInventory := s.inventory
	nextTally := s.tally
	nextTallyIndex := s.tallyIndex
	if mode == domain.ModeSale {
		nextInventory, nextTally, nextTallyIndex = s.applyStockAndTally(lines)
	}

	txCounter := s.txCounter
	orderCounter := s.orderCounter
	orderCounterDate := s.orderCounterDate
	if mode == domain.ModeSale {
		txCounter++
		tx.ID = fmt.Sprintf("TX-%06d", txCounter)
	} else {
		today := tx.Date.Format("2006-01-02")
		if orderCounterDate != today {
			orderCounter = 0
			orderCounterDate = today
		}
		orderCounter++
		tx.ID = fmt.Sprintf("%04d", orderCounter)
	}

	nextTransactions := append([]domain.Transaction{tx}, s.transactions...)
	emptyCart := make(map[string]int)

	saves := map[string]any{
		store.KeyInventory:    nextInventory,
		store.KeyTransactions: nextTransactions,
		store.KeySoldTally:    nextTally,
		store.KeyCart:         emptyCart,
	}
	order := []string{store.KeyInventory, store.KeyTransactions, store.KeySoldTally, store.KeyCart}
	if mode == domain.ModeSale {
		saves[store.KeyTransactionCounter] = txCounter
		order = append(order, store.KeyTransactionCounter)
	} else {
		saves[store.KeyOrderCounter] = orderCounter
		saves[store.KeyOrderCounterDate] = orderCounterDate
		order = append(order, store.KeyOrderCounter, store.KeyOrderCounterDate)
	}
	for _, key := range order {
		if err := store.SaveJSON(ctx, s.gateway, key, saves[key]); err != nil {
			return domain.CheckoutResponse{}, fmt.Errorf("saving %s: %w", key, err)
		}
	}

	s.inventory = nextInventory
	s.transactions = nextTransactions
	s.tally = nextTally
	s.tallyIndex = nextTallyIndex
	s.cart = emptyCart
	s.txCounter = txCounter
	s.orderCounter = orderCounter
	s.orderCounterDate = orderCounterDate

	s.invalidateReports(ctx)

	status := domain.MirrorStatusDisabled
	switch {
	case mode == domain.ModeOrder:
		// Orders only reach the mirror once delivered.
		status = domain.MirrorStatusDeferred
	case s.sink.Enabled():
		status = domain.MirrorStatusPending
		s.setMirrorStatus(tx.ID, status)
		go s.pushToMirror(tx)
	}

	return domain.CheckoutResponse{Transaction: tx, MirrorStatus: status}, nil
}

// applyStockAndTally returns copies of the catalog and tally with the
// given lines applied: stock decremented and tally incremented. New
// tally entries append in line order so first-ever-sold order is kept.
func (s *Service) applyStockAndTally(lines []domain.TransactionLine) ([]domain.Item, []domain.TallyEntry, map[string]int) {
	inventory := copyItems(s.inventory)
	tally := make([]domain.TallyEntry, len(s.tally))
	copy(tally, s.tally)
	index := make(map[string]int, len(s.tallyIndex))
	for id, i := range s.tallyIndex {
		index[id] = i
	}

	for _, line := range lines {
		for i := range inventory {
			if inventory[i].ID == line.ItemID {
				inventory[i].Stock -= line.Qty
				break
			}
		}
		if i, ok := index[line.ItemID]; ok {
			tally[i].Qty += line.Qty
		} else {
			index[line.ItemID] = len(tally)
			tally = append(tally, domain.TallyEntry{ItemID: line.ItemID, Qty: line.Qty})
		}
	}
	return inventory, tally, index
}

func (s *Service) ListTransactions(ctx context.Context) []domain.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// transactionIndex resolves an id to its ledger position. Order numbers
// restart at 0001 each day, so the ledger can hold several transactions
// with the same id; the scan runs newest-first (the ledger prepends), so
// lookups, delivery and cancellation always act on the most recent one.
func (s *Service) transactionIndex(id string) int {
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			return i
		}
	}
	return -1
}

// DeliverOrder converts a pending order into a sale. The stock and
// tally effects deferred at order time are applied now, against the
// current stock levels. Delivering anything that is not a pending
// order is rejected, which makes delivery idempotent.
func (s *Service) DeliverOrder(ctx context.Context, id string) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.transactionIndex(id)
	if idx < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	if s.transactions[idx].Mode != domain.ModeOrder {
		return domain.Transaction{}, fmt.Errorf("%w: %s", store.ErrNotAnOrder, id)
	}

	tx := s.transactions[idx]
	tx.Items = append([]domain.TransactionLine{}, tx.Items...)
	tx.Mode = domain.ModeSale

	nextInventory, nextTally, nextTallyIndex := s.applyStockAndTally(tx.Items)
	nextTransactions := make([]domain.Transaction, len(s.transactions))
	copy(nextTransactions, s.transactions)
	nextTransactions[idx] = tx

	saves := map[string]any{
		store.KeyInventory:    nextInventory,
		store.KeyTransactions: nextTransactions,
		store.KeySoldTally:    nextTally,
	}
	for _, key := range []string{store.KeyInventory, store.KeyTransactions, store.KeySoldTally} {
		if err := store.SaveJSON(ctx, s.gateway, key, saves[key]); err != nil {
			return domain.Transaction{}, fmt.Errorf("saving %s: %w", key, err)
		}
	}

	s.inventory = nextInventory
	s.transactions = nextTransactions
	s.tally = nextTally
	s.tallyIndex = nextTallyIndex

	s.invalidateReports(ctx)

	if s.sink.Enabled() {
		s.setMirrorStatus(tx.ID, domain.MirrorStatusPending)
		go s.pushToMirror(tx)
	}

	return tx, nil
}

// CancelOrder removes a pending order from the ledger entirely. Stock
// was never decremented for it, so nothing is restored.
func (s *Service) CancelOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.transactionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	if s.transactions[idx].Mode != domain.ModeOrder {
		return fmt.Errorf("%w: %s", store.ErrNotAnOrder, id)
	}

	next := make([]domain.Transaction, 0, len(s.transactions)-1)
	next = append(next, s.transactions[:idx]...)
	next = append(next, s.transactions[idx+1:]...)

	if err := store.SaveJSON(ctx, s.gateway, store.KeyTransactions, next); err != nil {
		return fmt.Errorf("saving %s: %w", store.KeyTransactions, err)
	}
	s.transactions = next
	s.invalidateReports(ctx)
	return nil
}

// Receipt returns a completed transaction together with the settled
// state of its remote mirror push.
func (s *Service) Receipt(ctx context.Context, id string) (domain.ReceiptResponse, error) {
	s.mu.Lock()
	idx := s.transactionIndex(id)
	if idx < 0 {
		s.mu.Unlock()
		return domain.ReceiptResponse{}, fmt.Errorf("%w: transaction %s", store.ErrNotFound, id)
	}
	tx := s.transactions[idx]
	s.mu.Unlock()

	status := s.lookupMirrorStatus(tx.ID)
	if tx.Mode == domain.ModeOrder {
		status = domain.MirrorStatusDeferred
	}
	return domain.ReceiptResponse{
		Transaction:  tx,
		RemoteSaved:  status == domain.MirrorStatusSaved,
		MirrorStatus: status,
	}, nil
}

func (s *Service) setMirrorStatus(txID, status string) {
	s.mirrorMu.Lock()
	s.mirrorStatus[txID] = status
	s.mirrorMu.Unlock()
}

func (s *Service) lookupMirrorStatus(txID string) string {
	s.mirrorMu.Lock()
	status, ok := s.mirrorStatus[txID]
	s.mirrorMu.Unlock()
	if ok {
		return status
	}
	if !s.sink.Enabled() {
		return domain.MirrorStatusDisabled
	}
	return domain.MirrorStatusUnknown
}

// pushToMirror runs on its own goroutine after the local commit. The
// push is fire-and-forget: failure is recorded for the receipt and
// logged, never retried.
func (s *Service) pushToMirror(tx domain.Transaction) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorPushTimeout)
	defer cancel()

	if err := s.sink.SaveSale(ctx, buildLineItemRows(tx)); err != nil {
		log.Printf("[mirror] WARN: failed to push transaction %s: %v", tx.ID, err)
		s.setMirrorStatus(tx.ID, domain.MirrorStatusFailed)
		return
	}
	s.setMirrorStatus(tx.ID, domain.MirrorStatusSaved)
}

// buildLineItemRows denormalizes a transaction into one row per line,
// each repeating the transaction totals, for the remote mirror.
func buildLineItemRows(tx domain.Transaction) []domain.LineItemRow {
	rows := make([]domain.LineItemRow, 0, len(tx.Items))
	for _, line := range tx.Items {
		rows = append(rows, domain.LineItemRow{
			TransactionID:  tx.ID,
			Date:           tx.Date,
			ItemID:         line.ItemID,
			ItemName:       line.Name,
			Quantity:       line.Qty,
			UnitPriceCents: line.PriceCents,
			UnitCostCents:  line.CostCents,
			LineSubtotal:   line.PriceCents * int64(line.Qty),
			LineProfit:     (line.PriceCents - line.CostCents) * int64(line.Qty),
			TxSubtotal:     tx.SubtotalCents,
			TxTax:          tx.TaxCents,
			TxTotal:        tx.TotalCents,
			TxProfit:       tx.ProfitCents,
		})
	}
	return rows
}
