// Package api exposes stock search and quote lookups over HTTP, both as
// JSON endpoints and as server-rendered pages.
package api

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stock-lookup/catalog"
	"stock-lookup/marketdata"
	"stock-lookup/resolver"
)

// Resolver finds the listing a bare search query refers to.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*resolver.Match, error)
}

type ServerConfig struct {
	Source     marketdata.Source
	Resolver   Resolver
	Catalog    catalog.Catalog
	Logger     *zap.Logger
	CORSOrigin string
}

type Server struct {
	R        *gin.Engine
	Source   marketdata.Source
	Resolver Resolver
	Catalog  catalog.Catalog
	Logger   *zap.Logger
}

// NewServer wires the router, middleware and templates.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Source == nil || cfg.Resolver == nil {
		return nil, errors.New("api server requires a market data source and a resolver")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.NewMemory(nil)
	}

	g := gin.New()
	g.Use(gin.Recovery(), requestID(), requestLogger(cfg.Logger), cors(cfg.CORSOrigin))

	tmpl, err := template.New("pages").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	g.SetHTMLTemplate(tmpl)

	s := &Server{
		R:        g,
		Source:   cfg.Source,
		Resolver: cfg.Resolver,
		Catalog:  cfg.Catalog,
		Logger:   cfg.Logger,
	}

	g.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	stock := g.Group("/api/stock")
	stock.GET("/search", s.Search)
	stock.GET("/suggest", s.Suggest)
	stock.GET("/:symbol", s.GetStock)
	stock.GET("/:symbol/history", s.History)

	g.GET("/", s.indexPage)
	g.GET("/stock/:symbol", s.stockPage)
	g.GET("/stock/:symbol/chart", s.chartPage)

	return s, nil
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.R,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Logger.Info("shutting down http server")
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
