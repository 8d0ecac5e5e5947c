package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port      string
	ProjectID string
	LogLevel  string

	AlphaVantageAPIKey string
	FinnhubAPIKey      string
	IndianAPIKey       string

	RequestTimeout time.Duration
	QuoteTTL       time.Duration
	MarketTTL      time.Duration
	SeriesTTL      time.Duration
}

func New() *Config {
	return &Config{
		Port:      getDefault("PORT", "8080"),
		ProjectID: os.Getenv("PROJECTID"),
		LogLevel:  os.Getenv("LOGLEVEL"),

		AlphaVantageAPIKey: os.Getenv("ALPHAVANTAGEAPIKEY"),
		FinnhubAPIKey:      os.Getenv("FINNHUBAPIKEY"),
		IndianAPIKey:       os.Getenv("INDIANAPIAPIKEY"),

		RequestTimeout: getSeconds("REQUESTTIMEOUTSEC", 10*time.Second),
		QuoteTTL:       getSeconds("QUOTETTLSEC", 30*time.Second),
		MarketTTL:      getSeconds("MARKETTTLSEC", 60*time.Second),
		SeriesTTL:      getSeconds("SERIESTTLSEC", 300*time.Second),
	}
}

func getDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
