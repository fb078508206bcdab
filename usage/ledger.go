// Package usage provides an in-memory daily-cap ledger implementing
// the gateway's usage authority contract. A real deployment backs the
// authority with its billing system; this ledger covers single-process
// deployments and tests.
package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/alphadose/haxmap"
	"github.com/convoke-ai/convoke/catalog"
)

// OverBudgetError reports a model whose daily cap is exhausted.
type OverBudgetError struct {
	Key string
	Cap int64
}

func (e *OverBudgetError) Error() string {
	return fmt.Sprintf("daily quota of %d requests exhausted for model %q", e.Cap, e.Key)
}

// Ledger counts requests per model key per UTC day and rejects
// requests past the descriptor's daily cap. Counters for previous days
// are dropped lazily on the day boundary.
type Ledger struct {
	counts *haxmap.Map[string, int64]
	now    func() time.Time
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		counts: haxmap.New[string, int64](),
		now:    time.Now,
	}
}

// Authorize consumes one unit of the model's daily budget, or fails
// with an *OverBudgetError once the cap is reached. Descriptors always
// carry a positive cap, so a zero-cap descriptor is rejected outright.
func (l *Ledger) Authorize(_ context.Context, desc catalog.ModelDescriptor) error {
	if desc.DailyCap <= 0 {
		return &OverBudgetError{Key: desc.Key, Cap: desc.DailyCap}
	}

	key := l.dayKey(desc.Key)
	for {
		current, loaded := l.counts.GetOrSet(key, 1)
		if !loaded {
			// First request of the day, already recorded by GetOrSet.
			return nil
		}
		if current >= desc.DailyCap {
			return &OverBudgetError{Key: desc.Key, Cap: desc.DailyCap}
		}
		if l.counts.CompareAndSwap(key, current, current+1) {
			return nil
		}
	}
}

// Count reports today's consumption for a model key.
func (l *Ledger) Count(modelKey string) int64 {
	n, _ := l.counts.Get(l.dayKey(modelKey))
	return n
}

func (l *Ledger) dayKey(modelKey string) string {
	return l.now().UTC().Format("2006-01-02") + "|" + modelKey
}
