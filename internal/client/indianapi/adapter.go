// Package indianapiclient adapts the Indian Stock Exchange API
// (stock.indianapi.in) to the provider contract used by the market service.
package indianapiclient

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

const defaultBaseURL = "https://stock.indianapi.in"

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

func (a *Adapter) Provider() dto.Provider { return dto.ProviderIndianAPI }

func (a *Adapter) IsConfigured() bool { return a.cfg.APIKey != "" }

var endpoints = []dto.EndpointInfo{
	{
		ID:             "stock",
		Label:          "Stock Details",
		RequiresSymbol: true,
		Shape:          dto.ShapeFlatObject,
		Volatility:     dto.VolatilityQuote,
	},
	{
		ID:             "trending",
		Label:          "Trending Stocks",
		RequiresSymbol: false,
		Shape:          dto.ShapeUnknown,
		Volatility:     dto.VolatilityMarket,
	},
	{
		ID:             "NSE_most_active",
		Label:          "NSE Most Active",
		RequiresSymbol: false,
		Shape:          dto.ShapeArrayOfRecords,
		Volatility:     dto.VolatilityMarket,
	},
	{
		ID:             "price_shockers",
		Label:          "Price Shockers",
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
	u, err := url.Parse(a.cfg.BaseURL + "/" + endpoint)
	if err != nil {
		return nil, errs.NewConfigurationError("indian-api: invalid base URL")
	}
	// this API takes the instrument as ?name= rather than ?symbol=
	if symbol != "" {
		q := u.Query()
		q.Set("name", symbol)
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderIndianAPI), err.Error(), false)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", a.cfg.APIKey)

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderIndianAPI), "indian-api: "+err.Error(), true)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errs.NewRateLimitedError(string(dto.ProviderIndianAPI), "indian-api: HTTP 429")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		msg := fmt.Sprintf("indian-api: %s returned %d", endpoint, resp.StatusCode)
		return nil, errs.NewUpstreamError(string(dto.ProviderIndianAPI), msg, resp.StatusCode >= 500)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, errs.NewUpstreamError(string(dto.ProviderIndianAPI), "indian-api: decode: "+err.Error(), false)
	}

	if m, ok := body.(map[string]any); ok {
		if msg, ok := m["error"].(string); ok && msg != "" {
			return nil, errs.NewUpstreamError(string(dto.ProviderIndianAPI), "indian-api: "+msg, false)
		}
	}
	return body, nil
}
