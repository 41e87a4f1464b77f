package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-lookup/api"
	"stock-lookup/catalog"
	"stock-lookup/config"
	"stock-lookup/logging"
	"stock-lookup/marketdata"
	"stock-lookup/resolver"
)

func main() {
	cfg := config.MustLoad()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %s", err)
	}
	defer logger.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	source, err := marketdata.New(cfg.MarketData, logger)
	if err != nil {
		logger.Fatal("init market data source", zap.Error(err))
	}
	logger.Info("market data source ready", zap.String("source", cfg.MarketData.Source))

	listings, err := catalog.Open(cfg.Catalog, logger)
	if err != nil {
		logger.Fatal("open listings catalog", zap.Error(err))
	}
	defer listings.Close()

	r := resolver.New(source, logger,
		resolver.WithDelay(cfg.Resolver.Delay),
		resolver.WithConcurrency(cfg.Resolver.Concurrency),
	)

	server, err := api.NewServer(api.ServerConfig{
		Source:     source,
		Resolver:   r,
		Catalog:    listings,
		Logger:     logger,
		CORSOrigin: cfg.HTTP.CORSOrigin,
	})
	if err != nil {
		logger.Fatal("init http server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg.HTTP.Addr, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout); err != nil {
		logger.Error("http server stopped", zap.Error(err))
	}
}
