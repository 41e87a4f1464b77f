package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"stock-lookup/models"
)

// FinanceGo is backed by piquette/finance-go. Its typed quote has no notion
// of an absent field, so zero values are passed through as real values.
type FinanceGo struct {
	logger *zap.Logger
	now    func() time.Time
}

func NewFinanceGo(logger *zap.Logger) *FinanceGo {
	return &FinanceGo{logger: logger, now: time.Now}
}

func (f *FinanceGo) Info(ctx context.Context, ticker string) (models.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError("quote %s: %v", ticker, err)
	}

	q, err := quote.Get(ticker)
	if err != nil {
		return nil, upstreamError("quote %s: %v", ticker, err)
	}
	if q == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return quoteRecord(q)
}

func (f *FinanceGo) History(ctx context.Context, ticker string, period Period) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, upstreamError("chart %s: %v", ticker, err)
	}

	end := f.now()
	start := period.window(end)
	_, interval := period.yahooParams()

	iter := chart.Get(&chart.Params{
		Symbol:   ticker,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.Interval(interval),
	})

	intraday := period.intraday()
	var bars []models.Bar
	for iter.Next() {
		b := iter.Bar()
		bars = append(bars, models.Bar{
			Date:   formatBarTime(int64(b.Timestamp), intraday),
			Open:   decimalToFloat(b.Open),
			High:   decimalToFloat(b.High),
			Low:    decimalToFloat(b.Low),
			Close:  decimalToFloat(b.Close),
			Volume: float64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, upstreamError("chart %s: %v", ticker, err)
	}
	f.logger.Debug("financego: chart", zap.String("ticker", ticker), zap.Int("bars", len(bars)))
	return bars, nil
}

// quoteRecord exposes the typed quote under Yahoo's own field names.
func quoteRecord(q *finance.Quote) (models.RawRecord, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, upstreamError("encode quote: %v", err)
	}
	record := models.RawRecord{}
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, upstreamError("decode quote: %v", err)
	}
	return record, nil
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
