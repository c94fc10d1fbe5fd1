package monitor

import (
	"oi-monitor/internal/types"

	"github.com/shopspring/decimal"
)

func totalOpenInterest(hits []types.Hit) decimal.Decimal {
	total := decimal.Zero
	for _, h := range hits {
		total = total.Add(h.OpenInterest)
	}
	return total
}
