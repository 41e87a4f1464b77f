package marketdata

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"stock-lookup/config"
	"stock-lookup/models"
)

var (
	// ErrNotFound means the provider has no record for the ticker.
	ErrNotFound = errors.New("symbol not found")
	// ErrUpstream covers failed, timed out or unparsable provider calls.
	ErrUpstream = errors.New("market data request failed")
	// ErrUnavailable means the source itself cannot be invoked at all.
	ErrUnavailable = errors.New("market data source unavailable")
)

// Source looks up provider records and price history by exact ticker.
type Source interface {
	Info(ctx context.Context, ticker string) (models.RawRecord, error)
	History(ctx context.Context, ticker string, period Period) ([]models.Bar, error)
}

// New builds the backend selected by cfg.Source.
func New(cfg config.MarketData, logger *zap.Logger) (Source, error) {
	switch strings.ToLower(cfg.Source) {
	case "", "yahoo":
		return NewYahoo(cfg.Yahoo, cfg.Timeout, logger)
	case "exec":
		return NewExec(cfg.Exec.Command, cfg.Exec.Args, cfg.Timeout, logger), nil
	case "financego":
		return NewFinanceGo(logger), nil
	default:
		return nil, fmt.Errorf("unknown market data source %q", cfg.Source)
	}
}

// IsMissing reports whether v is the provider's "not available" marker:
// JSON null or a non-finite float. Zero and false are real values.
func IsMissing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(t) || math.IsInf(t, 0)
	case float32:
		return math.IsNaN(float64(t)) || math.IsInf(float64(t), 0)
	}
	return false
}

// upstreamError wraps ErrUpstream with the diagnostic text of the failing step.
func upstreamError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUpstream, fmt.Sprintf(format, args...))
}
