package normalize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-lookup/models"
)

func fundRecord() models.RawRecord {
	return models.RawRecord{
		"symbol":                     "VWCE.DE",
		"shortName":                  "Vanguard FTSE All-World",
		"longName":                   nil,
		"exchange":                   "GER",
		"currency":                   "EUR",
		"quoteType":                  "ETF",
		"regularMarketPrice":         118.42,
		"regularMarketPreviousClose": 117.9,
		"regularMarketChange":        0.52,
		"regularMarketChangePercent": math.NaN(),
		"ytdReturn":                  0.12,
		"fundFamily":                 "Vanguard",
		"fundInceptionDate":          json.Number("1559001600"),
	}
}

func TestSummaryNullsMissingValues(t *testing.T) {
	s, err := Summary(models.RawRecord{
		"symbol":    "AIR.PA",
		"shortName": "AIRBUS SE",
		"longName":  nil,
		"isin":      "NL0000235190",
	})
	require.NoError(t, err)

	assert.Equal(t, "AIR.PA", s.Symbol)
	assert.Equal(t, "AIRBUS SE", s.ShortName.ValueOrZero())
	assert.False(t, s.LongName.Valid)
	assert.False(t, s.Exchange.Valid)
	assert.Equal(t, "NL0000235190", s.ISIN.ValueOrZero())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"AIR.PA","shortName":"AIRBUS SE","longName":null,"exchange":null,"isin":"NL0000235190","currency":null}`, string(b))
}

func TestSummaryRejectsWrongTypes(t *testing.T) {
	_, err := Summary(models.RawRecord{"symbol": "AIR.PA", "shortName": 42.0})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDetailFund(t *testing.T) {
	d, err := Detail(fundRecord())
	require.NoError(t, err)

	assert.Equal(t, models.KindFund, d.Kind)
	assert.Equal(t, "ETF", d.QuoteType)
	assert.Equal(t, "Vanguard FTSE All-World", d.LongName.ValueOrZero(), "longName falls back to shortName")
	assert.True(t, d.HasPrice)
	assert.False(t, d.Prices.DayChangePercent.Valid)
	require.NotNil(t, d.Fund)
	require.NotNil(t, d.FundFlags)
	assert.Equal(t, 0.12, d.Fund.YTDReturn.ValueOrZero())
	assert.Equal(t, 1559001600.0, d.Fund.FundInceptionDate.ValueOrZero())
	assert.Equal(t, models.FundCompleteness{
		HasYTDReturn:     true,
		HasFundFamily:    true,
		HasInceptionDate: true,
	}, *d.FundFlags)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Contains(t, doc["info"], "ytdReturn")
	assert.Contains(t, doc["info"], "annualHoldingsTurnover")
	assert.Nil(t, doc["info"]["annualHoldingsTurnover"])
	assert.Nil(t, doc["info"]["dayChangePercent"])
	assert.Equal(t, "ETF", doc["metadata"]["quoteType"])
}

func TestDetailEquityOmitsFundKeys(t *testing.T) {
	d, err := Detail(models.RawRecord{
		"symbol":             "AAPL",
		"shortName":          "Apple Inc.",
		"longName":           "Apple Inc.",
		"quoteType":          "equity",
		"regularMarketPrice": 0.0,
		"ytdReturn":          0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.KindEquity, d.Kind)
	assert.Equal(t, "EQUITY", d.QuoteType)
	assert.True(t, d.HasPrice, "zero is a real price")
	assert.Nil(t, d.Fund)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.NotContains(t, doc["info"], "ytdReturn")
	assert.NotContains(t, doc["info"], "fundFamily")
	completeness := doc["metadata"]["dataCompleteness"].(map[string]any)
	assert.Equal(t, map[string]any{"hasPrice": true}, completeness)
}

func TestDetailWithoutPrice(t *testing.T) {
	d, err := Detail(models.RawRecord{"symbol": "XYZ", "quoteType": "INDEX", "regularMarketPrice": nil})
	require.NoError(t, err)
	assert.Equal(t, models.KindOther, d.Kind)
	assert.False(t, d.HasPrice)
	assert.False(t, d.LongName.Valid)
}

func TestDetailNullSymbol(t *testing.T) {
	d, err := Detail(models.RawRecord{"symbol": nil})
	require.NoError(t, err)
	assert.False(t, d.Symbol.Valid)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	assert.Contains(t, doc["info"], "symbol")
	assert.Nil(t, doc["info"]["symbol"])
}

func TestDetailMarketAndProfile(t *testing.T) {
	d, err := Detail(models.RawRecord{
		"symbol":               "AIR.PA",
		"quoteType":            "EQUITY",
		"regularMarketOpen":    141.1,
		"regularMarketDayLow":  140.2,
		"regularMarketDayHigh": 143.0,
		"regularMarketVolume":  json.Number("1523000"),
		"averageVolume":        math.Inf(1),
		"marketCap":            1.125e11,
		"sector":               "Industrials",
		"website":              nil,
		"longBusinessSummary":  "Airbus SE designs and manufactures aircraft.",
	})
	require.NoError(t, err)
	assert.Equal(t, "AIR.PA", d.Symbol.String)
	assert.Equal(t, 141.1, d.Market.Open.Float64)
	assert.Equal(t, float64(1523000), d.Market.Volume.Float64)
	assert.False(t, d.Market.AverageVolume.Valid)
	assert.Equal(t, "Industrials", d.Profile.Sector.String)
	assert.False(t, d.Profile.Industry.Valid)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	info := doc["info"]
	assert.Equal(t, "AIR.PA", info["symbol"])
	assert.Equal(t, 140.2, info["dayLow"])
	assert.Equal(t, 143.0, info["dayHigh"])
	assert.Equal(t, 1.125e11, info["marketCap"])
	assert.Equal(t, "Airbus SE designs and manufactures aircraft.", info["description"])
	for _, key := range []string{"averageVolume", "industry", "website"} {
		assert.Contains(t, info, key)
		assert.Nil(t, info[key], key)
	}
}

func TestDetailRejectsNonTextProfile(t *testing.T) {
	_, err := Detail(models.RawRecord{"symbol": "AIR.PA", "sector": 12.0})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDetailFundFamilyPresentButEmpty(t *testing.T) {
	rec := fundRecord()
	rec["fundFamily"] = ""
	delete(rec, "ytdReturn")

	d, err := Detail(rec)
	require.NoError(t, err)
	assert.True(t, d.FundFlags.HasFundFamily)
	assert.False(t, d.FundFlags.HasYTDReturn)
	assert.False(t, d.Fund.YTDReturn.Valid)
}

func TestDetailRejectsNonNumericPrice(t *testing.T) {
	_, err := Detail(models.RawRecord{"symbol": "AAPL", "regularMarketPrice": "n/a"})
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Detail(models.RawRecord{"symbol": "AAPL", "quoteType": 3.0})
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestDetailIsIdempotent(t *testing.T) {
	first, err := Detail(fundRecord())
	require.NoError(t, err)
	second, err := Detail(fundRecord())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, models.KindFund, KindOf("MUTUALFUND"))
	assert.Equal(t, models.KindFund, KindOf("etf"))
	assert.Equal(t, models.KindEquity, KindOf("EQUITY"))
	assert.Equal(t, models.KindOther, KindOf("CRYPTOCURRENCY"))
	assert.Equal(t, models.KindOther, KindOf(""))
}
