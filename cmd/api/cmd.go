package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finboard/internal/bootstrap"
	"finboard/internal/cache"
	avclient "finboard/internal/client/alphavantage"
	finnhubclient "finboard/internal/client/finnhub"
	indianapiclient "finboard/internal/client/indianapi"
	"finboard/internal/config"
	"finboard/internal/handlers"
	"finboard/internal/refresh"
	"finboard/internal/response"
	"finboard/internal/router"
	"finboard/internal/services"
	"finboard/internal/store"
	"finboard/pkg/httpx"
	"finboard/pkg/logger"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// provider adapters share one HTTP client
	hc := httpx.New(cfg.RequestTimeout)
	adapters := []services.MarketAdapter{
		avclient.New(avclient.Config{APIKey: cfg.AlphaVantageAPIKey}, hc),
		finnhubclient.New(finnhubclient.Config{APIKey: cfg.FinnhubAPIKey}, hc),
		indianapiclient.New(indianapiclient.Config{APIKey: cfg.IndianAPIKey}, hc),
	}

	// market data plane
	ttl := services.TTLPolicy{Quote: cfg.QuoteTTL, Market: cfg.MarketTTL, Series: cfg.SeriesTTL}
	payloads := cache.New()
	mserv := services.NewMarketService(adapters, payloads, ttl, cfg.RequestTimeout)

	// deleted widgets leave entries behind that no read will evict, so
	// sweep on the longest TTL
	sweepDone := make(chan struct{})
	go func() {
		t := time.NewTicker(cfg.SeriesTTL)
		defer t.Stop()
		for {
			select {
			case <-sweepDone:
				return
			case <-t.C:
				if n := payloads.Sweep(); n > 0 {
					bs.Log.Debug("cache sweep", "evicted", n)
				}
			}
		}
	}()
	defer close(sweepDone)

	// widget persistence: Firestore when configured, in-memory otherwise
	var wstore services.WidgetStore
	if bs.Firestore != nil {
		wstore = store.NewFirestoreWidgetStore(bs.Firestore)
	} else {
		bs.Log.Warn("no PROJECTID set, widgets will not survive restarts")
		wstore = store.NewKVWidgetStore(store.NewMemoryKV())
	}

	// refresh orchestration
	states := refresh.NewStateStore()
	sched := refresh.NewScheduler(states, mserv, bs.Log)
	defer sched.Stop()

	dserv := services.NewDashboardService(wstore, sched, states, mserv)

	startCtx := logger.ToContext(context.Background(), bs.Log)
	err = dserv.Start(startCtx)
	exitOnError("loading persisted widgets failed", err, bs.Log)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.DashboardSvc = dserv
	deps.ProviderSvc = mserv
	deps.Events = states

	// router
	r := router.NewRouter(deps)
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		bs.Log.Info("server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			exitOnError("server start failed", err, bs.Log)
		}
	}()

	// SSE connections hold the server open, so shut down with a deadline
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	bs.Log.Info("shutting down")
	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		bs.Log.Error("shutdown incomplete", "error", err)
	}
}
