package finnhubclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"finboard/internal/errs"
	"finboard/pkg/httpx"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-token", BaseURL: srv.URL}, httpx.New(5*time.Second))
}

func TestFetch_TokenAndSymbol(t *testing.T) {
	var path, token, symbol string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		token = r.URL.Query().Get("token")
		symbol = r.URL.Query().Get("symbol")
		w.Write([]byte(`{"c":245.5,"pc":246.2}`))
	})

	if _, err := a.Fetch(context.Background(), "quote", "AAPL"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if path != "/quote" || token != "test-token" || symbol != "AAPL" {
		t.Fatalf("request = %s token=%s symbol=%s", path, token, symbol)
	}
}

func TestFetch_CandleWindow(t *testing.T) {
	var q map[string]string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		q = map[string]string{}
		for k := range r.URL.Query() {
			q[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(`{"c":[1,2],"o":[1,2],"s":"ok"}`))
	})
	pinned := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return pinned }

	if _, err := a.Fetch(context.Background(), "stock/candle", "AAPL"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if q["resolution"] != "D" {
		t.Fatalf("resolution = %q, want D", q["resolution"])
	}
	wantTo := strconv.FormatInt(pinned.Unix(), 10)
	wantFrom := strconv.FormatInt(pinned.AddDate(0, 0, -candleLookbackDays).Unix(), 10)
	if q["to"] != wantTo || q["from"] != wantFrom {
		t.Fatalf("window = [%s, %s], want [%s, %s]", q["from"], q["to"], wantFrom, wantTo)
	}
}

func TestFetch_MarketStatusExchange(t *testing.T) {
	var exchange string
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		exchange = r.URL.Query().Get("exchange")
		w.Write([]byte(`{"isOpen":true,"exchange":"US"}`))
	})
	if _, err := a.Fetch(context.Background(), "stock/market-status", ""); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if exchange != "US" {
		t.Fatalf("exchange = %q, want US", exchange)
	}
}

func TestFetch_ErrorBody(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Symbol not supported"}`))
	})
	_, err := a.Fetch(context.Background(), "quote", "NOPE")
	ue, ok := err.(*errs.UpstreamError)
	if !ok || ue.Transient {
		t.Fatalf("err = %T(%v), want non-transient *errs.UpstreamError", err, err)
	}
}

func TestFetch_HTTP429(t *testing.T) {
	a := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := a.Fetch(context.Background(), "quote", "AAPL")
	if _, ok := err.(*errs.RateLimitedError); !ok {
		t.Fatalf("err = %T(%v), want *errs.RateLimitedError", err, err)
	}
}
