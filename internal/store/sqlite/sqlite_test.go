package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func TestGatewayPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.db")
	ctx := context.Background()

	g, err := New(path)
	if err != nil {
		t.Fatalf("open gateway: %v", err)
	}

	if _, ok := g.Load(ctx, "inventory"); ok {
		t.Fatalf("expected empty store")
	}
	if err := g.Save(ctx, "inventory", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := g.Save(ctx, "inventory", []byte(`[{"id":"b"}]`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen gateway: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	raw, ok := reopened.Load(ctx, "inventory")
	if !ok || string(raw) != `[{"id":"b"}]` {
		t.Fatalf("expected last write to survive reopen, got %q (ok=%v)", raw, ok)
	}
}

func TestLoadFailsSoftOnMissingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pos.db")
	g, err := New(path)
	if err != nil {
		t.Fatalf("open gateway: %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })

	if _, ok := g.Load(context.Background(), "nope"); ok {
		t.Fatalf("expected absent key to fail soft")
	}
}
