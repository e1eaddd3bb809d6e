package memory

import (
	"context"
	"errors"
	"testing"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	g := New()
	ctx := context.Background()

	if _, ok := g.Load(ctx, "inventory"); ok {
		t.Fatalf("expected absent key to report not found")
	}

	if err := g.Save(ctx, "inventory", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, ok := g.Load(ctx, "inventory")
	if !ok || string(raw) != `[{"id":"a"}]` {
		t.Fatalf("expected stored value back, got %q (ok=%v)", raw, ok)
	}

	// Overwrite replaces.
	if err := g.Save(ctx, "inventory", []byte(`[]`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, _ = g.Load(ctx, "inventory")
	if string(raw) != `[]` {
		t.Fatalf("expected overwrite, got %q", raw)
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	g := New()
	ctx := context.Background()

	if err := g.Save(ctx, "cart", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	raw, _ := g.Load(ctx, "cart")
	raw[0] = 'X'

	again, _ := g.Load(ctx, "cart")
	if string(again) != `{"a":1}` {
		t.Fatalf("expected stored value isolated from caller mutation, got %q", again)
	}
}

func TestFailSaves(t *testing.T) {
	g := New()
	ctx := context.Background()

	g.FailSaves = true
	if err := g.Save(ctx, "cart", []byte(`{}`)); err == nil {
		t.Fatalf("expected forced save failure")
	}

	custom := errors.New("disk full")
	g.FailErr = custom
	if err := g.Save(ctx, "cart", []byte(`{}`)); !errors.Is(err, custom) {
		t.Fatalf("expected custom error, got %v", err)
	}

	if _, ok := g.Load(ctx, "cart"); ok {
		t.Fatalf("failed saves must not write")
	}
}
