package dto

// Provider identifies one upstream financial data source.
type Provider string

const (
	ProviderAlphaVantage Provider = "alpha-vantage"
	ProviderFinnhub      Provider = "finnhub"
	ProviderIndianAPI    Provider = "indian-api"
)

// PayloadShape tags the broad shape category of an endpoint's response so
// consumers don't have to sniff it. ShapeUnknown is an explicit category, not
// a fallback that synthesizes data.
type PayloadShape string

const (
	ShapeTimeSeriesByDate   PayloadShape = "timeSeriesByDate"
	ShapeOHLCParallelArrays PayloadShape = "ohlcParallelArrays"
	ShapeFlatObject         PayloadShape = "flatObject"
	ShapeArrayOfRecords     PayloadShape = "arrayOfRecords"
	ShapeUnknown            PayloadShape = "unknown"
)

// Volatility buckets endpoints by how fast their data goes stale; it selects
// the cache TTL.
type Volatility string

const (
	VolatilityQuote  Volatility = "quote"  // per-symbol quotes, ~30s
	VolatilityMarket Volatility = "market" // market-wide snapshots, ~60s
	VolatilitySeries Volatility = "series" // historical series, ~300s
)

// EndpointInfo describes one logical operation against a provider.
type EndpointInfo struct {
	ID             string       `json:"id"`
	Label          string       `json:"label"`
	RequiresSymbol bool         `json:"requiresSymbol"`
	Shape          PayloadShape `json:"shape"`
	Volatility     Volatility   `json:"-"`
}

// ProviderInfo is the catalog entry exposed to the widget-creation UI.
type ProviderInfo struct {
	ID         Provider `json:"id"`
	Configured bool     `json:"configured"`
}

// FetchResult is the uniform outcome of a provider fetch.
type FetchResult struct {
	Data              any          `json:"data"`
	Provider          Provider     `json:"provider"`
	Endpoint          string       `json:"endpoint"`
	Shape             PayloadShape `json:"shape"`
	ServedViaFallback bool         `json:"servedViaFallback"`
	FromCache         bool         `json:"fromCache"`
}

// TestConnectionRequest previews a provider/endpoint before a widget is
// committed.
type TestConnectionRequest struct {
	Provider Provider `json:"provider" validate:"required"`
	Endpoint string   `json:"endpoint"`
	Symbol   string   `json:"symbol"`
}
