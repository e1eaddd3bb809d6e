package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNotAnOrder   = errors.New("transaction is not a pending order")
)

// Slice keys under the Gateway. Every slice is an independently
// loaded/saved JSON value.
const (
	KeyInventory          = "inventory"
	KeyTransactions       = "transactions"
	KeySoldTally          = "soldTally"
	KeyCart               = "cart"
	KeyCartMode           = "cartMode"
	KeyTransactionCounter = "transactionCounter"
	KeyOrderCounter       = "orderCounter"
	KeyOrderCounterDate   = "orderCounterDate"
	KeyCustomCategories   = "customCategories"
	KeyExpenses           = "expenses"
	KeyUsers              = "users"
)

// Gateway is the only component allowed to touch the durable local
// store. Load fails soft: absent or unreadable values report absence,
// never an error. Save failures propagate to the caller — a failed
// save is a hard failure of the triggering action.
type Gateway interface {
	Load(ctx context.Context, key string) ([]byte, bool)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// LoadJSON decodes the slice stored under key into dest. Malformed
// stored JSON is treated as absent, matching Load's soft-fail contract.
func LoadJSON(ctx context.Context, g Gateway, key string, dest any) bool {
	raw, ok := g.Load(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	return true
}

// SaveJSON serializes value and overwrites the slice stored under key.
func SaveJSON(ctx context.Context, g Gateway, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return g.Save(ctx, key, raw)
}
