package flux

import (
	"context"
	"sync"

	"github.com/yeti-set-go/asset-pipeline/internal/entity"
)

// requestGate caps the number of outstanding requests for one model class.
// Acquire blocks until a slot frees up and hands back a release callback
// that is safe to call more than once, so callers can defer it on every
// exit path without leaking or over-releasing budget.
type requestGate struct {
	slots chan struct{}
}

func newRequestGate(limit int) *requestGate {
	if limit < 1 {
		limit = 1
	}
	return &requestGate{slots: make(chan struct{}, limit)}
}

func (g *requestGate) Acquire(ctx context.Context) (func(), error) {
	select {
	case g.slots <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() { <-g.slots })
		}
		return release, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// InFlight returns the current number of acquired slots.
func (g *requestGate) InFlight() int {
	return len(g.slots)
}

// gateFor picks the gate for a model class. The kontext-max model runs on
// scarcer backend capacity and gets the lower ceiling.
func (c *Client) gateFor(model entity.FluxModel) *requestGate {
	if model == entity.ModelKontextMax {
		return c.maxGate
	}
	return c.standardGate
}
