package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-lookup/config"
	"stock-lookup/marketdata"
	"stock-lookup/models"
)

type stubSource struct{}

func (stubSource) Info(_ context.Context, ticker string) (models.RawRecord, error) {
	switch ticker {
	case "SAP.PA", "SAP.F", "SAP.DE":
		return models.RawRecord{"symbol": ticker, "shortName": "SAP SE", "quoteType": "EQUITY", "regularMarketPrice": 180.2}, nil
	}
	return nil, fmt.Errorf("%w: %s", marketdata.ErrNotFound, ticker)
}

func (stubSource) History(_ context.Context, ticker string, _ marketdata.Period) ([]models.Bar, error) {
	return []models.Bar{{Date: "2024-01-02", Open: 1, High: 2, Low: 1, Close: 2, Volume: 10}}, nil
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{LogLevel: "error"}
	cfg.Catalog.File = "../../data/listings.csv"
	a := &app{
		cfg: cfg,
		newSource: func(config.MarketData, *zap.Logger) (marketdata.Source, error) {
			return stubSource{}, nil
		},
	}
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearchCommand(t *testing.T) {
	out, err := run(t, "search", "SAP")
	require.NoError(t, err)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "SAP.PA", resp.Results[0].Symbol)
	assert.False(t, resp.Results[0].ISIN.Valid)
}

func TestSearchCommandByISIN(t *testing.T) {
	out, err := run(t, "search", "DE0007164600")
	require.NoError(t, err)

	var resp models.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "SAP.DE", resp.Results[0].Symbol)
	assert.Equal(t, "DE0007164600", resp.Results[0].ISIN.String)
}

func TestQuoteCommand(t *testing.T) {
	out, err := run(t, "quote", "SAP.F")
	require.NoError(t, err)
	assert.Contains(t, out, `"lastPrice": 180.2`)

	_, err = run(t, "quote", "NOPE")
	assert.ErrorIs(t, err, marketdata.ErrNotFound)
}

func TestHistoryCommand(t *testing.T) {
	out, err := run(t, "history", "SAP.F", "--period", "ytd")
	require.NoError(t, err)
	assert.Contains(t, out, `"period": "YTD"`)

	_, err = run(t, "history", "SAP.F", "-p", "3Y")
	assert.Error(t, err)
}

func TestSuggestCommand(t *testing.T) {
	out, err := run(t, "suggest", "airbus", "-n", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "AIR.PA")
}
