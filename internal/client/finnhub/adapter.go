// Package finnhubclient adapts the Finnhub HTTP API to the provider
// contract used by the market service.
package finnhubclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/pkg/httpx"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// candleLookbackDays bounds the daily candle window requested from
// /stock/candle when the caller does not pick a range.
const candleLookbackDays = 30

type Config struct {
	APIKey  string
	BaseURL string
}

type Adapter struct {
	cfg    Config
	client *httpx.Client

	// swapped in tests to pin the candle window
	now func() time.Time
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Adapter{cfg: cfg, client: hc, now: time.Now}
}

func (a *Adapter) Provider() dto.Provider { return dto.ProviderFinnhub }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }

var endpoints = []dto.EndpointInfo{
	{
		ID:             "quote",
		Label:          "Quote",
		RequiresSymbol: true,
		Shape:          dto.ShapeFlatObject,
		Volatility:     dto.VolatilityQuote,
	},
	{
		ID:             "stock/profile2",
		Label:          "Company Profile",
		RequiresSymbol: true,
		Shape:          dto.ShapeFlatObject,
		Volatility:     dto.VolatilitySeries,
	},
	{
		ID:             "stock/candle",
		Label:          "Daily Candles",
		RequiresSymbol: true,
		Shape:          dto.ShapeOHLCParallelArrays,
		Volatility:     dto.VolatilitySeries,
	},
	{
		ID:             "stock/market-status",
		Label:          "Market Status (US)",
		RequiresSymbol: false,
		Shape:          dto.ShapeFlatObject,
		Volatility:     dto.VolatilityMarket,
	},
}

func (a *Adapter) Endpoints() []dto.EndpointInfo {
	out := make([]dto.EndpointInfo, len(endpoints))
	copy(out, endpoints)
	return out
}

func (a *Adapter) Fetch(ctx context.Context, endpoint, symbol string) (any, error) {
	u, err := url.Parse(a.cfg.BaseURL + "/" + endpoint)
	if err != nil {
		return nil, errs.NewConfigurationError("finnhub: invalid base URL")
	}
	q := u.Query()
	q.Set("token", a.cfg.APIKey)
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	switch endpoint {
	case "stock/candle":
		to := a.now().Unix()
		from := a.now().AddDate(0, 0, -candleLookbackDays).Unix()
		q.Set("resolution", "D")
		q.Set("from", strconv.FormatInt(from, 10))
		q.Set("to", strconv.FormatInt(to, 10))
	case "stock/market-status":
		q.Set("exchange", "US")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderFinnhub), err.Error(), false)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderFinnhub), "finnhub: "+err.Error(), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.NewRateLimitedError(string(dto.ProviderFinnhub), "finnhub: HTTP 429")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := fmt.Sprintf("finnhub: %s returned %d", endpoint, resp.StatusCode)
		return nil, errs.NewUpstreamError(string(dto.ProviderFinnhub), msg, resp.StatusCode >= 500)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderFinnhub), "finnhub: decode: "+err.Error(), false)
	}

	// Finnhub returns errors as {"error": "..."} with a 200 status.
	if m, ok := body.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok && msg != "" {
			return nil, errs.NewUpstreamError(string(dto.ProviderFinnhub), "finnhub: "+msg, false)
		}
	}
	return body, nil
}
