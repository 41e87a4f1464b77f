package models

import (
	"encoding/json"

	"github.com/guregu/null/v6"
)

// RawRecord is a provider record keyed by the provider's own field names.
type RawRecord map[string]any

// Kind classifies an instrument. FUND unlocks the fund-only fields.
type Kind string

const (
	KindEquity Kind = "EQUITY"
	KindFund   Kind = "FUND"
	KindOther  Kind = "OTHER"
)

// Summary is a single search result.
type Summary struct {
	Symbol    string      `json:"symbol"`
	ShortName null.String `json:"shortName"`
	LongName  null.String `json:"longName"`
	Exchange  null.String `json:"exchange"`
	ISIN      null.String `json:"isin"`
	Currency  null.String `json:"currency"`
}

type SearchResponse struct {
	Results []Summary `json:"results"`
}

// Prices holds the quote fields every instrument kind carries.
type Prices struct {
	LastPrice            null.Float `json:"lastPrice"`
	PreviousClose        null.Float `json:"previousClose"`
	DayChange            null.Float `json:"dayChange"`
	DayChangePercent     null.Float `json:"dayChangePercent"`
	FiftyTwoWeekHigh     null.Float `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      null.Float `json:"fiftyTwoWeekLow"`
	FiftyDayAverage      null.Float `json:"fiftyDayAverage"`
	TwoHundredDayAverage null.Float `json:"twoHundredDayAverage"`
}

// Market holds the session trading figures.
type Market struct {
	Open          null.Float `json:"open"`
	DayLow        null.Float `json:"dayLow"`
	DayHigh       null.Float `json:"dayHigh"`
	Volume        null.Float `json:"volume"`
	AverageVolume null.Float `json:"averageVolume"`
	MarketCap     null.Float `json:"marketCap"`
}

// Profile is the descriptive company data.
type Profile struct {
	Sector      null.String `json:"sector"`
	Industry    null.String `json:"industry"`
	Website     null.String `json:"website"`
	Description null.String `json:"description"`
}

// FundFields is only populated for KindFund.
type FundFields struct {
	YTDReturn              null.Float  `json:"ytdReturn"`
	FundFamily             null.String `json:"fundFamily"`
	FundInceptionDate      null.Float  `json:"fundInceptionDate"`
	AnnualHoldingsTurnover null.Float  `json:"annualHoldingsTurnover"`
}

// FundCompleteness mirrors FundFields with presence flags.
type FundCompleteness struct {
	HasYTDReturn        bool `json:"hasYtdReturn"`
	HasFundFamily       bool `json:"hasFundFamily"`
	HasInceptionDate    bool `json:"hasInceptionDate"`
	HasHoldingsTurnover bool `json:"hasHoldingsTurnover"`
}

// Detail is the full quote of one instrument. Fund and FundFlags are set
// iff Kind is KindFund; the JSON key set follows the kind.
//
// Symbol shadows Summary.Symbol: a detail record may carry a null symbol.
type Detail struct {
	Summary
	Symbol    null.String
	QuoteType string
	Kind      Kind
	Prices    Prices
	Market    Market
	Profile   Profile
	HasPrice  bool

	Fund      *FundFields
	FundFlags *FundCompleteness
}

type detailInfo struct {
	Summary
	Symbol    null.String `json:"symbol"`
	QuoteType string      `json:"quoteType"`
	Prices
	Market
	Profile
	*FundFields
}

type completeness struct {
	HasPrice bool `json:"hasPrice"`
	*FundCompleteness
}

type detailMetadata struct {
	QuoteType        string       `json:"quoteType"`
	DataCompleteness completeness `json:"dataCompleteness"`
}

type detailJSON struct {
	Info     detailInfo     `json:"info"`
	Metadata detailMetadata `json:"metadata"`
}

func (d Detail) MarshalJSON() ([]byte, error) {
	out := detailJSON{
		Info: detailInfo{
			Summary:   d.Summary,
			Symbol:    d.Symbol,
			QuoteType: d.QuoteType,
			Prices:    d.Prices,
			Market:    d.Market,
			Profile:   d.Profile,
		},
		Metadata: detailMetadata{
			QuoteType:        d.QuoteType,
			DataCompleteness: completeness{HasPrice: d.HasPrice},
		},
	}
	if d.Kind == KindFund {
		fund := d.Fund
		if fund == nil {
			fund = &FundFields{}
		}
		flags := d.FundFlags
		if flags == nil {
			flags = &FundCompleteness{}
		}
		out.Info.FundFields = fund
		out.Metadata.DataCompleteness.FundCompleteness = flags
	}
	return json.Marshal(out)
}

// Bar is one trading session.
type Bar struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

type HistoryResponse struct {
	Symbol  string `json:"symbol"`
	Period  string `json:"period"`
	History []Bar  `json:"history"`
}

// Listing is a catalog entry used for suggestions.
type Listing struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	ISIN     string `json:"isin"`
	Type     string `json:"type"`
}
