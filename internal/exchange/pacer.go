package exchange

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum interval between exchange requests.
// The first Wait also blocks for one interval, however long the pacer sat idle.
type Pacer struct {
	limiter *rate.Limiter
	start   sync.Once
}

// NewPacer returns a pacer for the given interval. Zero disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next request may be sent or ctx is done
func (p *Pacer) Wait(ctx context.Context) error {
	// drain the idle token so the first request is delayed too
	p.start.Do(func() { p.limiter.Reserve() })
	return p.limiter.Wait(ctx)
}
