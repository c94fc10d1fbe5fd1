package metrics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	dto "github.com/prometheus/client_model/go"
	log "github.com/sirupsen/logrus"
)

const (
	namespace = "oi"
	subsystem = "monitor"
	jobName   = "oi_monitor"

	SkipNoData   = "no_data"
	SkipData     = "data"
	OutcomeSent  = "sent"
	OutcomeError = "error"
	OutcomeDry   = "dry_run"
)

// RunMetrics collects the counters of one run in a private registry
type RunMetrics struct {
	Registry          *prometheus.Registry
	SymbolsDiscovered prometheus.Gauge
	SymbolsScanned    prometheus.Counter
	SymbolsSkipped    *prometheus.CounterVec
	Hits              prometheus.Gauge
	Notifications     *prometheus.CounterVec
	RunDuration       prometheus.Gauge
	LastSuccess       prometheus.Gauge
	LastRunFailed     prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	m := &RunMetrics{
		Registry: prometheus.NewRegistry(),
		SymbolsDiscovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "symbols_discovered",
			Help:      "Active USDT perpetual symbols returned by the exchange",
		}),
		SymbolsScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "symbols_scanned_total",
			Help:      "Symbols whose open interest was requested",
		}),
		SymbolsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "symbols_skipped_total",
				Help:      "Symbols skipped because the exchange returned no usable sample",
			},
			[]string{"reason"},
		),
		Hits: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hits",
			Help:      "Symbols included in the digest of the last run",
		}),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "notifications_total",
				Help:      "Digest deliveries by outcome",
			},
			[]string{"outcome"},
		),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "UNIX time of the last run that finished without error",
		}),
		LastRunFailed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_run_failed",
			Help:      "1 if the last run ended with an error",
		}),
	}

	m.Registry.MustRegister(
		m.SymbolsDiscovered,
		m.SymbolsScanned,
		m.SymbolsSkipped,
		m.Hits,
		m.Notifications,
		m.RunDuration,
		m.LastSuccess,
		m.LastRunFailed,
	)
	return m
}

// Finish records the run outcome
func (m *RunMetrics) Finish(started time.Time, err error) {
	m.RunDuration.Set(time.Since(started).Seconds())
	if err != nil {
		m.LastRunFailed.Set(1)
		return
	}
	m.LastRunFailed.Set(0)
	m.LastSuccess.SetToCurrentTime()
}

// Export writes the registry to a textfile and/or a Pushgateway.
// Empty targets are skipped. Failures are logged and the first one is returned.
func (m *RunMetrics) Export(textfile, pushgatewayURL string) error {
	var firstErr error
	if textfile != "" {
		if err := prometheus.WriteToTextfile(textfile, m.Registry); err != nil {
			log.Errorf("Failed to write metrics textfile %s: %v", textfile, err)
			firstErr = errors.Wrap(err, "write metrics textfile")
		} else {
			log.Debugf("Metrics written to %s", textfile)
		}
	}
	if pushgatewayURL != "" {
		if err := push.New(pushgatewayURL, jobName).Gatherer(m.Registry).Push(); err != nil {
			log.Errorf("Failed to push metrics to %s: %v", pushgatewayURL, err)
			if firstErr == nil {
				firstErr = errors.Wrap(err, "push metrics")
			}
		} else {
			log.Debugf("Metrics pushed to %s", pushgatewayURL)
		}
	}
	return firstErr
}

// Value reads the current value of a counter or gauge
func Value(c prometheus.Collector) float64 {
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)

	pb := &dto.Metric{}
	metric, ok := <-ch
	if !ok {
		return 0
	}
	if err := metric.Write(pb); err != nil {
		log.Printf("Failed to read metric value: %v", err)
		return 0
	}
	if pb.Counter != nil {
		return pb.Counter.GetValue()
	}
	if pb.Gauge != nil {
		return pb.Gauge.GetValue()
	}
	return 0
}
