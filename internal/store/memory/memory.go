package memory

import (
	"context"
	"errors"
	"sync"
)

// Gateway is an in-memory slice store used in dev mode and tests. It
// honors the same soft-fail read contract as the sqlite gateway but
// nothing survives a restart.
type Gateway struct {
	mu     sync.RWMutex
	slices map[string][]byte

	// FailSaves forces every Save to return FailErr; tests use it to
	// exercise the commit-on-successful-persist discipline.
	FailSaves bool
	FailErr   error
}

func New() *Gateway {
	return &Gateway{slices: make(map[string][]byte)}
}

func (g *Gateway) Load(_ context.Context, key string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	raw, ok := g.slices[key]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp, true
}

func (g *Gateway) Save(_ context.Context, key string, value []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailSaves {
		if g.FailErr != nil {
			return g.FailErr
		}
		return errors.New("save failed")
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	g.slices[key] = cp
	return nil
}

func (g *Gateway) Close() error {
	return nil
}
