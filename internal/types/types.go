package types

import "github.com/shopspring/decimal"

// AlertState maps a symbol to the UNIX time (seconds) of its last alert
type AlertState map[string]int64

// Clone returns an independent copy of the state
func (s AlertState) Clone() AlertState {
	c := make(AlertState, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Sample is the most recent open interest reading of one symbol
type Sample struct {
	Symbol       string
	OpenInterest decimal.Decimal
	Timestamp    int64
}

// Hit is a symbol that passed the threshold checks in the current run
type Hit struct {
	Symbol       string
	OpenInterest decimal.Decimal
	Ratio        decimal.Decimal
	Line         string
	TriggeredAt  int64
}
