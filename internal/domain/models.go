package domain

import "time"

// Item is a catalog entry. Money is int64 cents throughout.
type Item struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
	Stock      int    `json:"stock"`
	LowPoint   *int   `json:"low_point,omitempty"`
	MaxStock   int    `json:"max_stock,omitempty"`
	Image      string `json:"image,omitempty"`
}

// EffectiveLowPoint returns the item's reorder threshold, falling back
// to the store-wide default when no per-item override is set.
func (i Item) EffectiveLowPoint(defaultThreshold int) int {
	if i.LowPoint != nil {
		return *i.LowPoint
	}
	return defaultThreshold
}

type ItemUpsertRequest struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents *int64 `json:"price_cents"`
	CostCents  *int64 `json:"cost_cents,omitempty"`
	Stock      *int   `json:"stock,omitempty"`
	LowPoint   *int   `json:"low_point,omitempty"`
	Image      string `json:"image,omitempty"`
}

const (
	ModeSale  = "sale"
	ModeOrder = "order"
)

// TransactionLine is a snapshot of a cart line at completion time.
// It never changes after creation, regardless of later catalog edits.
type TransactionLine struct {
	ItemID     string `json:"item_id"`
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	PriceCents int64  `json:"price_cents"`
	CostCents  int64  `json:"cost_cents"`
}

type Transaction struct {
	ID            string            `json:"id"`
	Date          time.Time         `json:"date"`
	Items         []TransactionLine `json:"items"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TaxCents      int64             `json:"tax_cents"`
	TotalCents    int64             `json:"total_cents"`
	ProfitCents   int64             `json:"profit_cents"`
	Mode          string            `json:"mode"`
	CustomerName  string            `json:"customer_name,omitempty"`
	CashierName   string            `json:"cashier_name,omitempty"`
}

// TallyEntry is one row of the sold tally. The tally is persisted as an
// ordered slice so first-sold order survives reloads; top-seller ties
// break on that order.
type TallyEntry struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

type Expense struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Notes       string    `json:"notes,omitempty"`
}

type ExpenseRequest struct {
	Date        string `json:"date,omitempty"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	AmountCents *int64 `json:"amount_cents"`
	Notes       string `json:"notes,omitempty"`
}

// CheckoutRequest completes the current cart. CustomerName carries the
// customer-name prompt result: in order mode a nil value means the
// prompt was cancelled and the whole operation aborts with no state
// change.
type CheckoutRequest struct {
	CustomerName *string `json:"customer_name,omitempty"`
}

type CheckoutResponse struct {
	Transaction Transaction `json:"transaction"`
	// MirrorStatus reflects the remote push at response time; the push
	// is asynchronous, so this starts out pending (or disabled) and the
	// receipt endpoint reports the settled value.
	MirrorStatus string `json:"mirror_status"`
}

type ReceiptResponse struct {
	Transaction  Transaction `json:"transaction"`
	RemoteSaved  bool        `json:"remote_saved"`
	MirrorStatus string      `json:"mirror_status"`
}

// LineItemRow is the denormalized row shape pushed to the remote
// mirror: one row per transaction line, each carrying the owning
// transaction's totals.
type LineItemRow struct {
	TransactionID  string    `json:"transaction_id"`
	Date           time.Time `json:"date"`
	ItemID         string    `json:"item_id"`
	ItemName       string    `json:"item_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitCostCents  int64     `json:"unit_cost_cents"`
	LineSubtotal   int64     `json:"line_subtotal_cents"`
	LineProfit     int64     `json:"line_profit_cents"`
	TxSubtotal     int64     `json:"tx_subtotal_cents"`
	TxTax          int64     `json:"tx_tax_cents"`
	TxTotal        int64     `json:"tx_total_cents"`
	TxProfit       int64     `json:"tx_profit_cents"`
}

type CartLineView struct {
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Qty          int    `json:"qty"`
	PriceCents   int64  `json:"price_cents"`
	LineSubtotal int64  `json:"line_subtotal_cents"`
	StockOnHand  int    `json:"stock_on_hand"`
}

type CartView struct {
	Mode          string         `json:"mode"`
	Lines         []CartLineView `json:"lines"`
	SubtotalCents int64          `json:"subtotal_cents"`
	TaxCents      int64          `json:"tax_cents"`
	TotalCents    int64          `json:"total_cents"`
}

type ReportSummary struct {
	TotalSalesCents  int64 `json:"total_sales_cents"`
	TotalProfitCents int64 `json:"total_profit_cents"`
	Transactions     int   `json:"transactions"`
	LowStockCount    int   `json:"low_stock_count"`
}

type TopSellingEntry struct {
	ItemID  string `json:"item_id"`
	Name    string `json:"name"`
	Image   string `json:"image,omitempty"`
	QtySold int    `json:"qty_sold"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	MirrorStatusDisabled = "disabled"
	MirrorStatusPending  = "pending"
	MirrorStatusSaved    = "saved"
	MirrorStatusFailed   = "failed"
	// MirrorStatusDeferred is reported for pending orders: the push
	// happens at delivery, not at checkout.
	MirrorStatusDeferred = "deferred"
	// MirrorStatusUnknown is reported for transactions completed before
	// the current process started; push outcomes are not persisted.
	MirrorStatusUnknown = "unknown"
)
