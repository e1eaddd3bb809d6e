package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"waiasella/backend/internal/cache"
	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/mirror"
	"waiasella/backend/internal/store"
	"waiasella/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Options struct {
	TaxRatePercent    float64
	LowStockThreshold int
	TopSellingLimit   int
	ReportCacheTTL    time.Duration
}

// Service is the single session controller. It owns every in-memory
// state slice; the gateway is only touched through it, and callers
// persist explicitly after each mutation (there is no write-through).
//
// Mutations follow a compute-persist-swap discipline: the new value of
// each affected slice is built on a copy, all copies are saved through
// the gateway, and only after every save succeeds are they swapped into
// the live state. A failed save therefore fails the whole action and
// leaves memory untouched. The sequential per-slice saves themselves
// are not atomic against a crash mid-sequence; that matches the
// storage contract and is an accepted limitation.
type Service struct {
	mu      sync.Mutex
	gateway store.Gateway
	sink    mirror.Sink
	reports cache.ReportCache

	taxRatePercent    float64
	lowStockThreshold int
	topSellingLimit   int
	reportCacheTTL    time.Duration

	inventory        []domain.Item
	transactions     []domain.Transaction
	tally            []domain.TallyEntry
	tallyIndex       map[string]int
	cart             map[string]int
	cartMode         string
	txCounter        int64
	orderCounter     int
	orderCounterDate string
	customCategories []string
	expenses         []domain.Expense

	mirrorMu     sync.Mutex
	mirrorStatus map[string]string

	now func() time.Time
}

func New(ctx context.Context, gateway store.Gateway, sink mirror.Sink, reports cache.ReportCache, opts Options) *Service {
	if sink == nil {
		sink = mirror.NoopSink{}
	}
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if opts.LowStockThreshold < 1 {
		opts.LowStockThreshold = 5
	}
	if opts.TopSellingLimit < 1 {
		opts.TopSellingLimit = 8
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 15 * time.Second
	}

	s := &Service{
		gateway:           gateway,
		sink:              sink,
		reports:           reports,
		taxRatePercent:    opts.TaxRatePercent,
		lowStockThreshold: opts.LowStockThreshold,
		topSellingLimit:   opts.TopSellingLimit,
		reportCacheTTL:    opts.ReportCacheTTL,
		tallyIndex:        make(map[string]int),
		cart:              make(map[string]int),
		cartMode:          domain.ModeSale,
		mirrorStatus:      make(map[string]string),
		now:               time.Now,
	}
	s.hydrate(ctx)
	return s
}

// hydrate loads every state slice from the gateway, falling back to
// the documented defaults when a slice is absent or unreadable. A
// missing catalog triggers demo seeding, written back immediately so
// item ids stay stable across restarts.
func (s *Service) hydrate(ctx context.Context) {
	if !store.LoadJSON(ctx, s.gateway, store.KeyInventory, &s.inventory) {
		s.inventory = seedItems()
		if err := store.SaveJSON(ctx, s.gateway, store.KeyInventory, s.inventory); err != nil {
			log.Printf("[service] WARN: failed to persist seed catalog: %v", err)
		}
	}
	if !store.LoadJSON(ctx, s.gateway, store.KeyTransactions, &s.transactions) {
		s.transactions = []domain.Transaction{}
	}
	if !store.LoadJSON(ctx, s.gateway, store.KeySoldTally, &s.tally) {
		s.tally = []domain.TallyEntry{}
	}
	for i, entry := range s.tally {
		s.tallyIndex[entry.ItemID] = i
	}
	if !store.LoadJSON(ctx, s.gateway, store.KeyCart, &s.cart) || s.cart == nil {
		s.cart = make(map[string]int)
	}
	var mode string
	if store.LoadJSON(ctx, s.gateway, store.KeyCartMode, &mode) && (mode == domain.ModeSale || mode == domain.ModeOrder) {
		s.cartMode = mode
	}
	store.LoadJSON(ctx, s.gateway, store.KeyTransactionCounter, &s.txCounter)
	store.LoadJSON(ctx, s.gateway, store.KeyOrderCounter, &s.orderCounter)
	store.LoadJSON(ctx, s.gateway, store.KeyOrderCounterDate, &s.orderCounterDate)
	if !store.LoadJSON(ctx, s.gateway, store.KeyCustomCategories, &s.customCategories) {
		s.customCategories = []string{}
	}
	if !store.LoadJSON(ctx, s.gateway, store.KeyExpenses, &s.expenses) {
		s.expenses = []domain.Expense{}
	}
}

func (s *Service) itemIndex(id string) int {
	for i := range s.inventory {
		if s.inventory[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) invalidateReports(ctx context.Context) {
	if err := s.reports.Invalidate(ctx, cache.KeySummary, cache.KeyTopSelling); err != nil {
		log.Printf("[service] WARN: failed to invalidate report cache: %v", err)
	}
}

func copyItems(items []domain.Item) []domain.Item {
	cp := make([]domain.Item, len(items))
	copy(cp, items)
	return cp
}

func copyCart(cart map[string]int) map[string]int {
	cp := make(map[string]int, len(cart))
	for id, qty := range cart {
		cp[id] = qty
	}
	return cp
}

func seedItems() []domain.Item {
	pic := func(seed int) string {
		return "https://picsum.photos/seed/" + strconv.Itoa(seed) + "/600/400"
	}
	return []domain.Item{
		{ID: xid.New("item"), Name: "Redbull", PriceCents: 250, CostCents: 120, Stock: 15, MaxStock: 15, Category: "Drinks", Image: pic(1010)},
		{ID: xid.New("item"), Name: "Shampoo", PriceCents: 500, CostCents: 250, Stock: 25, MaxStock: 25, Category: "Personal Care", Image: pic(1020)},
		{ID: xid.New("item"), Name: "Powder Milk", PriceCents: 875, CostCents: 520, Stock: 8, MaxStock: 8, Category: "Groceries", Image: pic(1030)},
		{ID: xid.New("item"), Name: "Doritos", PriceCents: 125, CostCents: 60, Stock: 50, MaxStock: 50, Category: "Snacks", Image: pic(1040)},
		{ID: xid.New("item"), Name: "Olive Oil", PriceCents: 1200, CostCents: 850, Stock: 12, MaxStock: 12, Category: "Groceries", Image: pic(1050)},
		{ID: xid.New("item"), Name: "Water Bottle", PriceCents: 100, CostCents: 20, Stock: 100, MaxStock: 100, Category: "Drinks", Image: pic(1060)},
		{ID: xid.New("item"), Name: "Green Tea", PriceCents: 350, CostCents: 100, Stock: 30, MaxStock: 30, Category: "Drinks", Image: pic(1070)},
		{ID: xid.New("item"), Name: "Apples", PriceCents: 75, CostCents: 20, Stock: 40, MaxStock: 40, Category: "Produce", Image: pic(1080)},
	}
}
