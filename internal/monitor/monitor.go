package monitor

import (
	"context"
	"strings"
	"time"

	"oi-monitor/internal/alert"
	"oi-monitor/internal/metrics"
	"oi-monitor/internal/types"
	"oi-monitor/lib/helpers"
	"oi-monitor/lib/translation"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Header is the first line of every digest
const Header = "⚠️ OI≈市值 触发提醒"

// Exchange lists symbols and reads their latest open interest
type Exchange interface {
	PerpetualSymbols(ctx context.Context) ([]string, error)
	LatestOpenInterest(ctx context.Context, symbol string) (types.Sample, bool, error)
}

// StateStore loads and overwrites the alert state
type StateStore interface {
	Load(ctx context.Context) (types.AlertState, error)
	Save(ctx context.Context, st types.AlertState) error
}

// Notifier delivers one digest
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Options struct {
	Exchange   Exchange
	Evaluator  *alert.Evaluator
	Store      StateStore
	Notifier   Notifier
	Translator *translation.Translator
	Metrics    *metrics.RunMetrics
	MaxSymbols int
	DryRun     bool
	Now        func() time.Time
}

// Monitor runs one discover, evaluate, notify, persist pass
type Monitor struct {
	exchange   Exchange
	evaluator  *alert.Evaluator
	store      StateStore
	notifier   Notifier
	tr         *translation.Translator
	metrics    *metrics.RunMetrics
	maxSymbols int
	dryRun     bool
	now        func() time.Time
}

// Result summarises a run
type Result struct {
	Discovered int
	Scanned    int
	Skipped    int
	Capped     int
	Hits       []types.Hit
	Digest     string
	Notified   bool
	Persisted  bool
}

func New(o Options) *Monitor {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewRunMetrics()
	}
	return &Monitor{
		exchange:   o.Exchange,
		evaluator:  o.Evaluator,
		store:      o.Store,
		notifier:   o.Notifier,
		tr:         o.Translator,
		metrics:    o.Metrics,
		maxSymbols: o.MaxSymbols,
		dryRun:     o.DryRun,
		now:        o.Now,
	}
}

// Run executes one pass. Discovery and fetch errors end the run before
// notification unless they are per-symbol data errors. State is only
// written after a successful send.
func (m *Monitor) Run(ctx context.Context) (Result, error) {
	var res Result
	now := m.now().Unix()

	symbols, err := m.exchange.PerpetualSymbols(ctx)
	if err != nil {
		return res, errors.Wrap(err, "discover symbols")
	}
	res.Discovered = len(symbols)
	m.metrics.SymbolsDiscovered.Set(float64(len(symbols)))
	log.Infof("🔄 Scanning %d USDT perpetual symbols", len(symbols))

	loaded, err := m.store.Load(ctx)
	if err != nil {
		return res, errors.Wrap(err, "load state")
	}
	st := loaded.Clone()

	for _, symbol := range symbols {
		sample, ok, err := m.exchange.LatestOpenInterest(ctx, symbol)
		res.Scanned++
		m.metrics.SymbolsScanned.Inc()

		if err != nil {
			if types.IsSkippable(err) {
				log.WithField("symbol", symbol).Warnf("⚠️ Skipping symbol: %v", err)
				res.Skipped++
				m.metrics.SymbolsSkipped.WithLabelValues(metrics.SkipData).Inc()
				continue
			}
			return res, errors.Wrapf(err, "fetch open interest for %s", symbol)
		}
		if !ok {
			log.WithField("symbol", symbol).Debug("no open interest sample")
			res.Skipped++
			m.metrics.SymbolsSkipped.WithLabelValues(metrics.SkipNoData).Inc()
			continue
		}

		// matches past the cap are left unrecorded so they fire on a later run
		if m.maxSymbols > 0 && len(res.Hits) >= m.maxSymbols {
			res.Capped++
			continue
		}
		if hit, ok := m.evaluator.Evaluate(symbol, sample.OpenInterest, now, st); ok {
			res.Hits = append(res.Hits, hit)
		}
	}
	if res.Capped > 0 {
		log.Warnf("Result cap of %d reached, %d symbols left unevaluated", m.maxSymbols, res.Capped)
	}
	m.metrics.Hits.Set(float64(len(res.Hits)))

	if len(res.Hits) == 0 {
		log.Infof("✅ Scan completed: %d scanned, no new matches", res.Scanned)
		return res, nil
	}

	res.Digest = m.Digest(res.Hits)
	if m.dryRun {
		m.metrics.Notifications.WithLabelValues(metrics.OutcomeDry).Inc()
		log.Infof("Dry run, digest not sent:\n%s", res.Digest)
		return res, nil
	}

	if err := m.notifier.Notify(ctx, res.Digest); err != nil {
		m.metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
		return res, errors.Wrap(err, "send digest")
	}
	res.Notified = true
	m.metrics.Notifications.WithLabelValues(metrics.OutcomeSent).Inc()

	if err := m.store.Save(ctx, st); err != nil {
		return res, errors.Wrap(err, "persist state")
	}
	res.Persisted = true

	log.Infof("✅ Scan completed: %d scanned, %d matched, total OI %s",
		res.Scanned, len(res.Hits), helpers.FormatUSD(totalOpenInterest(res.Hits)))
	return res, nil
}

// Digest joins the hit lines under the header, in discovery order
func (m *Monitor) Digest(hits []types.Hit) string {
	lines := make([]string, 0, len(hits)+1)
	lines = append(lines, m.tr.Translate(Header))
	for _, h := range hits {
		lines = append(lines, h.Line)
	}
	return strings.Join(lines, "\n")
}
