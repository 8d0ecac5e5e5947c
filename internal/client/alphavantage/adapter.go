// Package avclient adapts the Alpha Vantage HTTP API to the provider
// contract used by the market service.
package avclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/pkg/httpx"
)

const defaultBaseURL = "https://www.alphavantage.co/query"

// Alpha Vantage reports soft failures inside HTTP 200 bodies. "Error
// Message" marks a bad request (unknown symbol, bad function); "Note" and
// "Information" mark the free-tier rate limit.
var softRateLimitKeys = []string{"Note", "Information"}

type Config struct {
	APIKey  string
	BaseURL string
}

type Adapter struct {
	cfg    Config
	client *httpx.Client
}

func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Provider() dto.Provider { return dto.ProviderAlphaVantage }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }

var endpoints = []dto.EndpointInfo{
	{
		ID:             "GLOBAL_QUOTE",
		Label:          "Global Quote",
		RequiresSymbol: true,
		Shape:          dto.ShapeFlatObject,
		Volatility:     dto.VolatilityQuote,
	},
	{
		ID:             "TIME_SERIES_DAILY",
		Label:          "Daily Time Series",
		RequiresSymbol: true,
		Shape:          dto.ShapeTimeSeriesByDate,
		Volatility:     dto.VolatilitySeries,
	},
	{
		ID:             "TIME_SERIES_INTRADAY",
		Label:          "Intraday Time Series (5min)",
		RequiresSymbol: true,
		Shape:          dto.ShapeTimeSeriesByDate,
		Volatility:     dto.VolatilitySeries,
	},
	{
		ID:             "MARKET_STATUS",
		Label:          "Global Market Status",
		RequiresSymbol: false,
		Shape:          dto.ShapeArrayOfRecords,
		Volatility:     dto.VolatilityMarket,
	},
}

func (a *Adapter) Endpoints() []dto.EndpointInfo {
	out := make([]dto.EndpointInfo, len(endpoints))
	copy(out, endpoints)
	return out
}

func (a *Adapter) Fetch(ctx context.Context, endpoint, symbol string) (any, error) {
	u, err := url.Parse(a.cfg.BaseURL)
	if err != nil {
		return nil, errs.NewConfigurationError("alpha-vantage: invalid base URL")
	}
	q := u.Query()
	q.Set("function", endpoint)
	q.Set("apikey", a.cfg.APIKey)
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	if endpoint == "TIME_SERIES_INTRADAY" {
		q.Set("interval", "5min")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderAlphaVantage), err.Error(), false)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderAlphaVantage), "alpha-vantage: "+err.Error(), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.NewRateLimitedError(string(dto.ProviderAlphaVantage), "alpha-vantage: HTTP 429")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := fmt.Sprintf("alpha-vantage: %s returned %d", endpoint, resp.StatusCode)
		return nil, errs.NewUpstreamError(string(dto.ProviderAlphaVantage), msg, resp.StatusCode >= 500)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderAlphaVantage), "alpha-vantage: decode: "+err.Error(), false)
	}

	if err := softError(body); err != nil {
		return nil, err
	}
	return body, nil
}

func softError(body any) error {
	m, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	if msg, ok := m["Error Message"].(string); ok {
		return errs.NewUpstreamError(string(dto.ProviderAlphaVantage), "alpha-vantage: "+msg, false)
	}
	for _, key := range softRateLimitKeys {
		if msg, ok := m[key].(string); ok {
			return errs.NewRateLimitedError(string(dto.ProviderAlphaVantage), "alpha-vantage: "+msg)
		}
	}
	return nil
}
