package services

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"finboard/internal/dto"
	"finboard/internal/errs"
	"finboard/internal/fields"
)

// MarketAdapter is implemented by each provider client.
type MarketAdapter interface {
	Provider() dto.Provider
	IsConfigured() bool
	Endpoints() []dto.EndpointInfo
	Fetch(ctx context.Context, endpoint, symbol string) (any, error)
}

type payloadCache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

// TTLPolicy maps volatility classes to cache lifetimes.
type TTLPolicy struct {
	Quote  time.Duration
	Market time.Duration
	Series time.Duration
}

func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Quote:  30 * time.Second,
		Market: 60 * time.Second,
		Series: 300 * time.Second,
	}
}

// fallbackTarget names the alternate provider/endpoint pair tried when the
// primary reports a rate limit. Only simple per-symbol quotes are
// interchangeable across providers.
type fallbackTarget struct {
	provider dto.Provider
	endpoint string
}

var quoteFallbacks = map[dto.Provider]map[string]fallbackTarget{
	dto.ProviderAlphaVantage: {
		"GLOBAL_QUOTE": {provider: dto.ProviderFinnhub, endpoint: "quote"},
	},
	dto.ProviderFinnhub: {
		"quote": {provider: dto.ProviderAlphaVantage, endpoint: "GLOBAL_QUOTE"},
	},
}

type marketService struct {
	adapters map[dto.Provider]MarketAdapter
	order    []dto.Provider
	cache    payloadCache
	ttl      TTLPolicy
	timeout  time.Duration
	sf       singleflight.Group
}

// NewMarketService wires the configured provider adapters behind a shared
// TTL cache. Catalog order follows the order adapters are passed in.
func NewMarketService(adapters []MarketAdapter, cache payloadCache, ttl TTLPolicy, timeout time.Duration) *marketService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &marketService{
		adapters: make(map[dto.Provider]MarketAdapter, len(adapters)),
		cache:    cache,
		ttl:      ttl,
		timeout:  timeout,
	}
	for _, a := range adapters {
		id := a.Provider()
		if _, dup := s.adapters[id]; dup {
			continue
		}
		s.adapters[id] = a
		s.order = append(s.order, id)
	}
	return s
}

// cachedPayload is what lives in the cache: the decoded body plus whether it
// was served by the fallback provider, so cache hits keep that marker.
type cachedPayload struct {
	data     any
	provider dto.Provider
	endpoint string
	shape    dto.PayloadShape
	fallback bool
}

func (s *marketService) CacheKey(provider dto.Provider, endpoint, symbol string) string {
	return string(provider) + "|" + endpoint + "|" + symbol
}

// Cached peeks at the cache without triggering any upstream call.
func (s *marketService) Cached(provider dto.Provider, endpoint, symbol string) (dto.FetchResult, bool) {
	v, ok := s.cache.Get(s.CacheKey(provider, endpoint, symbol))
	if !ok {
		return dto.FetchResult{}, false
	}
	cp := v.(cachedPayload)
	return s.toResult(cp, true), true
}

func (s *marketService) toResult(cp cachedPayload, fromCache bool) dto.FetchResult {
	return dto.FetchResult{
		Data:              cp.data,
		Provider:          cp.provider,
		Endpoint:          cp.endpoint,
		Shape:             cp.shape,
		ServedViaFallback: cp.fallback,
		FromCache:         fromCache,
	}
}

// Fetch returns data for provider/endpoint/symbol, serving from cache when a
// live entry exists. Concurrent misses for the same key share one upstream
// call. On a rate limit, per-symbol quotes fail over to the paired provider
// and the result is cached (marked as fallback-served) under the original
// key.
func (s *marketService) Fetch(ctx context.Context, provider dto.Provider, endpoint, symbol string) (dto.FetchResult, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return dto.FetchResult{}, errs.NewConfigurationError("unsupported provider: " + string(provider))
	}
	ep, ok := s.Endpoint(provider, endpoint)
	if !ok {
		return dto.FetchResult{}, errs.NewConfigurationError("unsupported endpoint " + endpoint + " for provider " + string(provider))
	}
	if !adapter.IsConfigured() {
		return dto.FetchResult{}, errs.NewConfigurationError("provider not configured: " + string(provider))
	}
	if ep.RequiresSymbol && symbol == "" {
		return dto.FetchResult{}, errs.NewSymbolRequiredError(endpoint)
	}

	key := s.CacheKey(provider, endpoint, symbol)
	if v, ok := s.cache.Get(key); ok {
		return s.toResult(v.(cachedPayload), true), nil
	}

	v, err, _ := s.sf.Do(key, func() (any, error) {
		cp, err := s.fetchWithFallback(ctx, adapter, ep, symbol)
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, cp, s.ttlFor(ep.Volatility))
		return cp, nil
	})
	if err != nil {
		return dto.FetchResult{}, err
	}
	return s.toResult(v.(cachedPayload), false), nil
}

func (s *marketService) fetchWithFallback(ctx context.Context, adapter MarketAdapter, ep dto.EndpointInfo, symbol string) (cachedPayload, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := adapter.Fetch(callCtx, ep.ID, symbol)
	if err == nil {
		return cachedPayload{
			data:     data,
			provider: adapter.Provider(),
			endpoint: ep.ID,
			shape:    ep.Shape,
		}, nil
	}

	rl, rateLimited := err.(*errs.RateLimitedError)
	if !rateLimited {
		return cachedPayload{}, err
	}
	target, ok := quoteFallbacks[adapter.Provider()][ep.ID]
	if !ok {
		return cachedPayload{}, rl
	}
	alt, ok := s.adapters[target.provider]
	if !ok || !alt.IsConfigured() {
		return cachedPayload{}, rl
	}
	altEp, ok := s.Endpoint(target.provider, target.endpoint)
	if !ok {
		return cachedPayload{}, rl
	}

	altCtx, altCancel := context.WithTimeout(ctx, s.timeout)
	defer altCancel()
	data, altErr := alt.Fetch(altCtx, altEp.ID, symbol)
	if altErr != nil {
		// the primary's rate limit is the more actionable signal
		return cachedPayload{}, rl
	}
	return cachedPayload{
		data:     data,
		provider: alt.Provider(),
		endpoint: altEp.ID,
		shape:    altEp.Shape,
		fallback: true,
	}, nil
}

func (s *marketService) ttlFor(v dto.Volatility) time.Duration {
	switch v {
	case dto.VolatilityQuote:
		return s.ttl.Quote
	case dto.VolatilityMarket:
		return s.ttl.Market
	case dto.VolatilitySeries:
		return s.ttl.Series
	default:
		return s.ttl.Quote
	}
}

// Endpoint looks up one endpoint in a provider's catalog.
func (s *marketService) Endpoint(provider dto.Provider, endpoint string) (dto.EndpointInfo, bool) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return dto.EndpointInfo{}, false
	}
	for _, ep := range adapter.Endpoints() {
		if ep.ID == endpoint {
			return ep, true
		}
	}
	return dto.EndpointInfo{}, false
}

func (s *marketService) ListProviders() []dto.ProviderInfo {
	out := make([]dto.ProviderInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, dto.ProviderInfo{
			ID:         id,
			Configured: s.adapters[id].IsConfigured(),
		})
	}
	return out
}

func (s *marketService) ListEndpoints(provider dto.Provider) ([]dto.EndpointInfo, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return nil, errs.NewNotFoundError("unknown provider: " + string(provider))
	}
	return adapter.Endpoints(), nil
}

// Preview runs TestConnection and folds the outcome into a response the
// widget-creation UI can render directly: on success the payload's field
// catalog, on failure the error message. Fetch failures are part of the
// preview flow, not transport errors, so this never returns an error.
func (s *marketService) Preview(ctx context.Context, req dto.TestConnectionRequest) dto.TestConnectionResponse {
	res, err := s.TestConnection(ctx, req)
	if err != nil {
		return dto.TestConnectionResponse{Error: err.Error()}
	}
	return dto.TestConnectionResponse{
		Success: true,
		Shape:   res.Shape,
		Fields:  fields.Extract(res.Data),
	}
}

// TestConnection performs a one-off preview fetch. When no endpoint is
// given it picks the provider's first symbol-free endpoint so a bare
// credential check needs no instrument.
func (s *marketService) TestConnection(ctx context.Context, req dto.TestConnectionRequest) (dto.FetchResult, error) {
	adapter, ok := s.adapters[req.Provider]
	if !ok {
		return dto.FetchResult{}, errs.NewNotFoundError("unknown provider: " + string(req.Provider))
	}
	endpoint := req.Endpoint
	if endpoint == "" {
		eps := adapter.Endpoints()
		for _, ep := range eps {
			if !ep.RequiresSymbol {
				endpoint = ep.ID
				break
			}
		}
		if endpoint == "" && len(eps) > 0 {
			endpoint = eps[0].ID
		}
	}
	return s.Fetch(ctx, req.Provider, endpoint, req.Symbol)
}
