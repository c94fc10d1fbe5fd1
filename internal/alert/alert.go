package alert

import (
	"time"

	"oi-monitor/internal/types"
	"oi-monitor/lib/helpers"
	"oi-monitor/lib/translation"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// LineFormat is the digest line for one hit: symbol, OI in millions, ratio
const LineFormat = "%s OI=$%sM 比例=%s"

// Thresholds configures the evaluator
type Thresholds struct {
	RatioLow        float64
	RatioHigh       float64
	MarketCap       float64
	MinOpenInterest float64
	Cooldown        time.Duration
}

// Evaluator decides whether one symbol's open interest is a new alert
type Evaluator struct {
	low, high decimal.Decimal
	marketCap decimal.Decimal
	floor     decimal.Decimal
	cooldown  int64
	tr        *translation.Translator
}

func NewEvaluator(t Thresholds, tr *translation.Translator) *Evaluator {
	return &Evaluator{
		low:       decimal.NewFromFloat(t.RatioLow),
		high:      decimal.NewFromFloat(t.RatioHigh),
		marketCap: decimal.NewFromFloat(t.MarketCap),
		floor:     decimal.NewFromFloat(t.MinOpenInterest),
		cooldown:  int64(t.Cooldown / time.Second),
		tr:        tr,
	}
}

// Ratio divides open interest by the configured market cap. The divisor is
// the same constant for every symbol.
func (e *Evaluator) Ratio(oi decimal.Decimal) decimal.Decimal {
	return oi.Div(e.marketCap)
}

// Evaluate checks the floor, the inclusive ratio band and the cooldown. On a
// hit it records now as the symbol's last alert in state.
func (e *Evaluator) Evaluate(symbol string, oi decimal.Decimal, now int64, state types.AlertState) (types.Hit, bool) {
	logger := log.WithFields(log.Fields{"symbol": symbol, "oi": helpers.Humanize(oi)})

	if oi.LessThan(e.floor) {
		logger.Debug("below open interest floor")
		return types.Hit{}, false
	}

	ratio := e.Ratio(oi)
	if ratio.LessThan(e.low) || ratio.GreaterThan(e.high) {
		logger.WithField("ratio", ratio.StringFixed(4)).Debug("ratio outside band")
		return types.Hit{}, false
	}

	if last := state[symbol]; now-last <= e.cooldown {
		logger.WithField("last_alert", last).Debug("still cooling down")
		return types.Hit{}, false
	}

	state[symbol] = now
	hit := types.Hit{
		Symbol:       symbol,
		OpenInterest: oi,
		Ratio:        ratio,
		Line:         e.tr.Translate(LineFormat, symbol, helpers.FormatMillions(oi), helpers.FormatRatio(ratio)),
		TriggeredAt:  now,
	}
	logger.WithField("ratio", helpers.FormatRatio(ratio)).Info("🚨 open interest matched band")
	return hit, true
}
