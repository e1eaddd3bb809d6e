package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
	"waiasella/backend/internal/xid"
)

// ReservedCategory always exists and absorbs items whose category is
// deleted or left blank. It cannot be renamed or removed.
const ReservedCategory = "Other"

func (s *Service) ListItems(ctx context.Context) []domain.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyItems(s.inventory)
}

func (s *Service) GetItem(ctx context.Context, id string) (domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.itemIndex(id)
	if idx < 0 {
		return domain.Item{}, fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}
	return s.inventory[idx], nil
}

// UpsertItem creates or fully replaces a catalog item. When the id
// matches an existing item its position is kept and max stock only
// ratchets upward; unknown or missing ids insert at the front of the
// catalog so new items surface first.
func (s *Service) UpsertItem(ctx context.Context, req domain.ItemUpsertRequest) (domain.Item, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Item{}, fmt.Errorf("%w: item name is required", store.ErrInvalidInput)
	}
	if req.PriceCents == nil || *req.PriceCents < 0 {
		return domain.Item{}, fmt.Errorf("%w: price must be zero or greater", store.ErrInvalidInput)
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = ReservedCategory
	}

	var cost int64
	if req.CostCents != nil && *req.CostCents > 0 {
		cost = *req.CostCents
	}
	var stock int
	if req.Stock != nil && *req.Stock > 0 {
		stock = *req.Stock
	}
	if req.LowPoint != nil && *req.LowPoint < 0 {
		return domain.Item{}, fmt.Errorf("%w: low stock point must be zero or greater", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item := domain.Item{
		ID:         req.ID,
		Name:       name,
		Category:   category,
		PriceCents: *req.PriceCents,
		CostCents:  cost,
		Stock:      stock,
		LowPoint:   req.LowPoint,
		MaxStock:   stock,
		Image:      req.Image,
	}
	if item.ID == "" {
		item.ID = xid.New("item")
	}

	next := copyItems(s.inventory)
	if idx := s.itemIndex(item.ID); idx >= 0 {
		if prev := next[idx].MaxStock; prev > item.MaxStock {
			item.MaxStock = prev
		}
		next[idx] = item
	} else {
		next = append([]domain.Item{item}, next...)
	}

	if err := store.SaveJSON(ctx, s.gateway, store.KeyInventory, next); err != nil {
		return domain.Item{}, fmt.Errorf("saving catalog: %w", err)
	}
	s.inventory = next
	s.invalidateReports(ctx)
	return item, nil
}

func (s *Service) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.itemIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: item %s", store.ErrNotFound, id)
	}

	next := copyItems(s.inventory)
	next = append(next[:idx], next[idx+1:]...)
	if err := store.SaveJSON(ctx, s.gateway, store.KeyInventory, next); err != nil {
		return fmt.Errorf("saving catalog: %w", err)
	}
	s.inventory = next
	s.invalidateReports(ctx)
	return nil
}

// Categories returns the known category set: every category in use by
// an item plus explicitly created empty ones, sorted with the reserved
// fallback pinned last.
func (s *Service) Categories(ctx context.Context) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categoriesLocked()
}

func (s *Service) categoriesLocked() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if name == "" || name == ReservedCategory || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, item := range s.inventory {
		add(item.Category)
	}
	for _, name := range s.customCategories {
		add(name)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return append(out, ReservedCategory)
}

func (s *Service) CreateCategory(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.categoriesLocked() {
		if strings.EqualFold(existing, name) {
			return nil, fmt.Errorf("%w: category %q already exists", store.ErrInvalidInput, existing)
		}
	}

	next := append(append([]string{}, s.customCategories...), name)
	if err := store.SaveJSON(ctx, s.gateway, store.KeyCustomCategories, next); err != nil {
		return nil, fmt.Errorf("saving categories: %w", err)
	}
	s.customCategories = next
	return s.categoriesLocked(), nil
}

// RenameCategory moves every item in the old category to the new name.
// The rename is also applied to the explicit category list so an empty
// category survives under its new name.
func (s *Service) RenameCategory(ctx context.Context, from, to string) ([]string, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: both category names are required", store.ErrInvalidInput)
	}
	if from == ReservedCategory {
		return nil, fmt.Errorf("%w: the %s category cannot be renamed", store.ErrInvalidInput, ReservedCategory)
	}
	if from == to {
		return nil, fmt.Errorf("%w: new name matches the current name", store.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextItems := copyItems(s.inventory)
	touched := false
	for i := range nextItems {
		if nextItems[i].Category == from {
			nextItems[i].Category = to
			touched = true
		}
	}

	nextCustom := make([]string, 0, len(s.customCategories))
	for _, name := range s.customCategories {
		if name == from {
			name = to
			touched = true
		}
		nextCustom = append(nextCustom, name)
	}
	if !touched {
		return nil, fmt.Errorf("%w: category %q", store.ErrNotFound, from)
	}

	if err := store.SaveJSON(ctx, s.gateway, store.KeyInventory, nextItems); err != nil {
		return nil, fmt.Errorf("saving catalog: %w", err)
	}
	if err := store.SaveJSON(ctx, s.gateway, store.KeyCustomCategories, nextCustom); err != nil {
		return nil, fmt.Errorf("saving categories: %w", err)
	}
	s.inventory = nextItems
	s.customCategories = nextCustom
	return s.categoriesLocked(), nil
}

// DeleteCategory removes a category; member items fall back to the
// reserved category rather than being deleted.
func (s *Service) DeleteCategory(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", store.ErrInvalidInput)
	}
	if name == ReservedCategory {
		return nil, fmt.Errorf("%w: the %s category cannot be deleted", store.ErrInvalidInput, ReservedCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextItems := copyItems(s.inventory)
	touched := false
	for i := range nextItems {
		if nextItems[i].Category == name {
			nextItems[i].Category = ReservedCategory
			touched = true
		}
	}

	nextCustom := make([]string, 0, len(s.customCategories))
	for _, existing := range s.customCategories {
		if existing == name {
			touched = true
			continue
		}
		nextCustom = append(nextCustom, existing)
	}
	if !touched {
		return nil, fmt.Errorf("%w: category %q", store.ErrNotFound, name)
	}

	if err := store.SaveJSON(ctx, s.gateway, store.KeyInventory, nextItems); err != nil {
		return nil, fmt.Errorf("saving catalog: %w", err)
	}
	if err := store.SaveJSON(ctx, s.gateway, store.KeyCustomCategories, nextCustom); err != nil {
		return nil, fmt.Errorf("saving categories: %w", err)
	}
	s.inventory = nextItems
	s.customCategories = nextCustom
	return s.categoriesLocked(), nil
}
