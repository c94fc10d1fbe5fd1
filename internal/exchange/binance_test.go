package exchange

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"oi-monitor/internal/types"
)

// rawBody is written to the response as is, bypassing the JSON encoder
type rawBody string

func newTestServer(t *testing.T, oi map[string]any) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/fapi/v1/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"timezone":   "UTC",
			"serverTime": time.Now().UnixMilli(),
			"symbols": []map[string]any{
				{"symbol": "BTCUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "TRADING"},
				{"symbol": "BTCUSDT_250926", "contractType": "CURRENT_QUARTER", "quoteAsset": "USDT", "status": "TRADING"},
				{"symbol": "ETHUSDC", "contractType": "PERPETUAL", "quoteAsset": "USDC", "status": "TRADING"},
				{"symbol": "OLDUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "SETTLING"},
				{"symbol": "1000PEPEUSDT", "contractType": "PERPETUAL", "quoteAsset": "USDT", "status": "TRADING"},
			},
		})
	})
	mux.HandleFunc("/futures/data/openInterestHist", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("period") != "5m" || q.Get("limit") != "1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		resp, found := oi[q.Get("symbol")]
		if !found {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		}
		if raw, ok := resp.(rawBody); ok {
			_, _ = w.Write([]byte(raw))
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, Period: "5m", HTTPTimeout: 5 * time.Second})
}

func TestPerpetualSymbols(t *testing.T) {
	srv := newTestServer(t, nil)
	c := newTestClient(srv.URL)

	got, err := c.PerpetualSymbols(context.Background())
	if err != nil {
		t.Fatalf("PerpetualSymbols() error: %v", err)
	}
	want := []string{"BTCUSDT", "1000PEPEUSDT"}
	if len(got) != len(want) {
		t.Fatalf("PerpetualSymbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("symbol %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestPerpetualSymbolsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code":-1000,"msg":"internal"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).PerpetualSymbols(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if types.KindOf(err) != types.KindTransport {
		t.Errorf("kind = %s, want transport", types.KindOf(err))
	}
}

func TestLatestOpenInterest(t *testing.T) {
	srv := newTestServer(t, map[string]any{
		"BTCUSDT": []map[string]any{{
			"symbol":               "BTCUSDT",
			"sumOpenInterest":      "81234.5",
			"sumOpenInterestValue": "5100000.00000000",
			"timestamp":            1700000000000,
		}},
		"EMPTYUSDT": []map[string]any{},
		"BADUSDT": []map[string]any{{
			"symbol":               "BADUSDT",
			"sumOpenInterestValue": "n/a",
			"timestamp":            1700000000000,
		}},
		"TEXTUSDT": rawBody("not json"),
		"NUMUSDT": []map[string]any{{
			"symbol":               "NUMUSDT",
			"sumOpenInterestValue": 5100000,
			"timestamp":            1700000000000,
		}},
		"OBJUSDT": map[string]any{"symbol": "OBJUSDT", "sumOpenInterestValue": "5100000"},
	})
	c := newTestClient(srv.URL)
	ctx := context.Background()

	s, ok, err := c.LatestOpenInterest(ctx, "BTCUSDT")
	if err != nil || !ok {
		t.Fatalf("LatestOpenInterest(BTCUSDT) = ok %v, err %v", ok, err)
	}
	if s.OpenInterest.String() != "5100000" {
		t.Errorf("open interest = %s, want 5100000", s.OpenInterest)
	}
	if s.Timestamp != 1700000000000 {
		t.Errorf("timestamp = %d", s.Timestamp)
	}

	_, ok, err = c.LatestOpenInterest(ctx, "EMPTYUSDT")
	if err != nil || ok {
		t.Errorf("LatestOpenInterest(EMPTYUSDT) = ok %v, err %v; want no data, no error", ok, err)
	}

	_, _, err = c.LatestOpenInterest(ctx, "BADUSDT")
	if !types.IsSkippable(err) {
		t.Errorf("LatestOpenInterest(BADUSDT) err = %v, want data error", err)
	}

	for _, symbol := range []string{"TEXTUSDT", "NUMUSDT", "OBJUSDT"} {
		_, _, err = c.LatestOpenInterest(ctx, symbol)
		if !types.IsSkippable(err) {
			t.Errorf("LatestOpenInterest(%s) err = %v (kind %s), want data error", symbol, err, types.KindOf(err))
		}
	}

	_, _, err = c.LatestOpenInterest(ctx, "NOPEUSDT")
	if err == nil || types.KindOf(err) != types.KindTransport {
		t.Errorf("LatestOpenInterest(NOPEUSDT) err = %v, want transport error", err)
	}
}

func TestPacer(t *testing.T) {
	ctx := context.Background()

	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	if time.Since(start) > time.Second {
		t.Error("zero interval pacer should not block")
	}

	p = NewPacer(20 * time.Millisecond)
	start = time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("three waits took %s, want at least ~60ms", elapsed)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := NewPacer(time.Hour).Wait(cctx); err == nil {
		t.Error("Wait() on cancelled context should fail")
	}
}

func TestPacerFirstWaitAfterIdle(t *testing.T) {
	p := NewPacer(50 * time.Millisecond)
	// discovery runs between client construction and the first metric request
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("first wait after idle took %s, want about 50ms", elapsed)
	}
}
