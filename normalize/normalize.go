// Package normalize turns provider records into the stable, null-safe
// response shapes served by the API.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/guregu/null/v6"

	"stock-lookup/marketdata"
	"stock-lookup/models"
)

// ErrMalformed means the record does not have the expected shape.
var ErrMalformed = errors.New("malformed quote record")

// Provider field names.
const (
	fieldSymbol        = "symbol"
	fieldShortName     = "shortName"
	fieldLongName      = "longName"
	fieldExchange      = "exchange"
	fieldISIN          = "isin"
	fieldCurrency      = "currency"
	fieldQuoteType     = "quoteType"
	fieldPrice         = "regularMarketPrice"
	fieldPreviousClose = "regularMarketPreviousClose"
	fieldChange        = "regularMarketChange"
	fieldChangePercent = "regularMarketChangePercent"
	field52WeekHigh    = "fiftyTwoWeekHigh"
	field52WeekLow     = "fiftyTwoWeekLow"
	field50DayAverage  = "fiftyDayAverage"
	field200DayAverage = "twoHundredDayAverage"
	fieldOpen          = "regularMarketOpen"
	fieldDayLow        = "regularMarketDayLow"
	fieldDayHigh       = "regularMarketDayHigh"
	fieldVolume        = "regularMarketVolume"
	fieldAvgVolume     = "averageVolume"
	fieldMarketCap     = "marketCap"
	fieldSector        = "sector"
	fieldIndustry      = "industry"
	fieldWebsite       = "website"
	fieldBusiness      = "longBusinessSummary"
	fieldYTDReturn     = "ytdReturn"
	fieldFundFamily    = "fundFamily"
	fieldInception     = "fundInceptionDate"
	fieldTurnover      = "annualHoldingsTurnover"
)

// KindOf classifies a provider quote type tag.
func KindOf(quoteType string) models.Kind {
	switch strings.ToUpper(quoteType) {
	case "MUTUALFUND", "ETF":
		return models.KindFund
	case "EQUITY":
		return models.KindEquity
	}
	return models.KindOther
}

// Symbol returns the record's symbol and whether it is a non-empty string.
func Symbol(raw models.RawRecord) (string, bool) {
	s, ok := raw[fieldSymbol].(string)
	return s, ok && s != ""
}

// HasSymbolKey reports whether the record carries a symbol key at all.
func HasSymbolKey(raw models.RawRecord) bool {
	_, ok := raw[fieldSymbol]
	return ok
}

// Summary maps a record to a search result.
func Summary(raw models.RawRecord) (models.Summary, error) {
	var (
		p   parser
		out models.Summary
	)
	out.Symbol = p.str(raw, fieldSymbol).ValueOrZero()
	out.ShortName = p.str(raw, fieldShortName)
	out.LongName = p.str(raw, fieldLongName)
	out.Exchange = p.str(raw, fieldExchange)
	out.ISIN = p.str(raw, fieldISIN)
	out.Currency = p.str(raw, fieldCurrency)
	if p.err != nil {
		return models.Summary{}, p.err
	}
	return out, nil
}

// Detail maps a record to the full quote. Fund fields and their flags are
// only filled in for funds.
func Detail(raw models.RawRecord) (models.Detail, error) {
	summary, err := Summary(raw)
	if err != nil {
		return models.Detail{}, err
	}
	if !summary.LongName.Valid {
		summary.LongName = summary.ShortName
	}

	var p parser
	quoteType := strings.ToUpper(p.str(raw, fieldQuoteType).ValueOrZero())
	out := models.Detail{
		Summary:   summary,
		Symbol:    p.str(raw, fieldSymbol),
		QuoteType: quoteType,
		Kind:      KindOf(quoteType),
		Prices: models.Prices{
			LastPrice:            p.float(raw, fieldPrice),
			PreviousClose:        p.float(raw, fieldPreviousClose),
			DayChange:            p.float(raw, fieldChange),
			DayChangePercent:     p.float(raw, fieldChangePercent),
			FiftyTwoWeekHigh:     p.float(raw, field52WeekHigh),
			FiftyTwoWeekLow:      p.float(raw, field52WeekLow),
			FiftyDayAverage:      p.float(raw, field50DayAverage),
			TwoHundredDayAverage: p.float(raw, field200DayAverage),
		},
		Market: models.Market{
			Open:          p.float(raw, fieldOpen),
			DayLow:        p.float(raw, fieldDayLow),
			DayHigh:       p.float(raw, fieldDayHigh),
			Volume:        p.float(raw, fieldVolume),
			AverageVolume: p.float(raw, fieldAvgVolume),
			MarketCap:     p.float(raw, fieldMarketCap),
		},
		Profile: models.Profile{
			Sector:      p.str(raw, fieldSector),
			Industry:    p.str(raw, fieldIndustry),
			Website:     p.str(raw, fieldWebsite),
			Description: p.str(raw, fieldBusiness),
		},
		HasPrice: present(raw, fieldPrice),
	}

	if out.Kind == models.KindFund {
		out.Fund = &models.FundFields{
			YTDReturn:              p.float(raw, fieldYTDReturn),
			FundFamily:             p.str(raw, fieldFundFamily),
			FundInceptionDate:      p.float(raw, fieldInception),
			AnnualHoldingsTurnover: p.float(raw, fieldTurnover),
		}
		out.FundFlags = &models.FundCompleteness{
			HasYTDReturn:        present(raw, fieldYTDReturn),
			HasFundFamily:       notNull(raw, fieldFundFamily),
			HasInceptionDate:    present(raw, fieldInception),
			HasHoldingsTurnover: present(raw, fieldTurnover),
		}
	}

	if p.err != nil {
		return models.Detail{}, p.err
	}
	return out, nil
}

// present reports whether key exists and does not hold the missing marker.
func present(raw models.RawRecord, key string) bool {
	v, ok := raw[key]
	return ok && !marketdata.IsMissing(v)
}

func notNull(raw models.RawRecord, key string) bool {
	v, ok := raw[key]
	return ok && v != nil
}

// parser keeps the first shape error seen.
type parser struct {
	err error
}

func (p *parser) fail(key string, v any, want string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s is %T, want %s", ErrMalformed, key, v, want)
	}
}

func (p *parser) str(raw models.RawRecord, key string) null.String {
	v, ok := raw[key]
	if !ok || marketdata.IsMissing(v) {
		return null.String{}
	}
	s, ok := v.(string)
	if !ok {
		p.fail(key, v, "string")
		return null.String{}
	}
	return null.StringFrom(s)
}

func (p *parser) float(raw models.RawRecord, key string) null.Float {
	v, ok := raw[key]
	if !ok || marketdata.IsMissing(v) {
		return null.Float{}
	}
	f, ok := toFloat(v)
	if !ok {
		p.fail(key, v, "number")
		return null.Float{}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
