package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"oi-monitor/internal/types"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	contractPerpetual = "PERPETUAL"
	quoteUSDT         = "USDT"
	statusTrading     = "TRADING"
)

// Config for the Binance USDⓈ-M futures client
type Config struct {
	BaseURL      string
	Period       string
	RequestDelay time.Duration
	HTTPTimeout  time.Duration
}

// Client reads public futures market data
type Client struct {
	futuresClient *futures.Client
	pacer         *Pacer
	period        string
}

// NewClient creates a futures client. No API key is needed for public endpoints.
func NewClient(c Config) *Client {
	fc := futures.NewClient("", "")
	if c.BaseURL != "" {
		fc.BaseURL = c.BaseURL
	}
	fc.HTTPClient = &http.Client{Timeout: c.HTTPTimeout}

	return &Client{
		futuresClient: fc,
		pacer:         NewPacer(c.RequestDelay),
		period:        c.Period,
	}
}

// PerpetualSymbols returns active USDT-quoted perpetual contracts in listing order
func (c *Client) PerpetualSymbols(ctx context.Context) ([]string, error) {
	info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, types.E(types.KindTransport, "exchange info", err)
	}

	var symbols []string
	for _, s := range info.Symbols {
		if s.ContractType == contractPerpetual && s.QuoteAsset == quoteUSDT && s.Status == statusTrading {
			symbols = append(symbols, s.Symbol)
		}
	}
	log.Debugf("exchange info: %d of %d symbols are active USDT perpetuals", len(symbols), len(info.Symbols))
	return symbols, nil
}

// LatestOpenInterest returns the most recent open interest value of symbol.
// ok is false when the exchange has no sample for it.
func (c *Client) LatestOpenInterest(ctx context.Context, symbol string) (types.Sample, bool, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return types.Sample{}, false, errors.Wrap(err, "waiting for request slot")
	}

	stats, err := c.futuresClient.NewOpenInterestStatisticsService().
		Symbol(symbol).
		Period(c.period).
		Limit(1).
		Do(ctx)
	if err != nil {
		if isDecodeError(err) {
			return types.Sample{}, false, types.E(types.KindData, "open interest "+symbol, err)
		}
		return types.Sample{}, false, types.E(types.KindTransport, "open interest "+symbol, err)
	}
	if len(stats) == 0 || stats[0] == nil {
		return types.Sample{}, false, nil
	}

	value, err := decimal.NewFromString(stats[0].SumOpenInterestValue)
	if err != nil {
		return types.Sample{}, false, types.E(types.KindData, "open interest "+symbol,
			errors.Wrapf(err, "parse sumOpenInterestValue %q", stats[0].SumOpenInterestValue))
	}

	return types.Sample{
		Symbol:       symbol,
		OpenInterest: value,
		Timestamp:    stats[0].Timestamp,
	}, true, nil
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
