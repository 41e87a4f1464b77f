package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stock-lookup/config"
	"stock-lookup/models"
)

const listingsCSV = `symbol,name,exchange,isin,type
AIR.PA,Airbus SE,PAR,NL0000235190,EQUITY
AI.PA,L'Air Liquide S.A.,PAR,FR0000120073,EQUITY
SAN.PA,Sanofi,PAR,FR0000120578,EQUITY
vwce.de,Vanguard FTSE All-World,GER,ie00bk5bqt80,ETF
BROKEN
,No symbol,PAR,,EQUITY
`

func testListings(t *testing.T) []models.Listing {
	t.Helper()
	listings, err := ReadListings(strings.NewReader(listingsCSV))
	require.NoError(t, err)
	return listings
}

func symbols(listings []models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Symbol
	}
	return out
}

func TestReadListings(t *testing.T) {
	listings := testListings(t)
	require.Len(t, listings, 4)
	assert.Equal(t, models.Listing{
		Symbol:   "AIR.PA",
		Name:     "Airbus SE",
		Exchange: "PAR",
		ISIN:     "NL0000235190",
		Type:     "EQUITY",
	}, listings[0])
	assert.Equal(t, "VWCE.DE", listings[3].Symbol)
	assert.Equal(t, "IE00BK5BQT80", listings[3].ISIN)
}

func TestLoadListingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.csv")
	require.NoError(t, os.WriteFile(path, []byte("AAPL,Apple Inc.\n"), 0o644))

	listings, err := LoadListings(path)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "AAPL", listings[0].Symbol)
	assert.Empty(t, listings[0].Exchange)
}

func TestMemorySuggest(t *testing.T) {
	c := NewMemory(testListings(t))

	assert.Equal(t, []string{"AI.PA", "AIR.PA"}, symbols(c.Suggest("ai", 10)))
	assert.Equal(t, []string{"AIR.PA"}, symbols(c.Suggest("air.pa", 10)))
	assert.Equal(t, []string{"SAN.PA"}, symbols(c.Suggest("FR0000120578", 10)))
	assert.Equal(t, []string{"VWCE.DE"}, symbols(c.Suggest("all-world", 10)))
	assert.Len(t, c.Suggest("a", 1), 1)
	assert.Empty(t, c.Suggest("  ", 10))
	assert.Empty(t, c.Suggest("zzz", 10))
}

func TestMemoryLookup(t *testing.T) {
	c := NewMemory(testListings(t))
	l := c.Lookup("san.pa")
	require.NotNil(t, l)
	assert.Equal(t, "Sanofi", l.Name)
	assert.Nil(t, c.Lookup("SAN"))
}

func TestBleveSuggest(t *testing.T) {
	c, err := NewBleve("", testListings(t), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	hits := c.Suggest("AI.PA", 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "AI.PA", hits[0].Symbol)

	hits = c.Suggest("NL0000235190", 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "AIR.PA", hits[0].Symbol)
	assert.Equal(t, "Airbus SE", hits[0].Name)

	hits = c.Suggest("sanofi", 5)
	require.NotEmpty(t, hits)
	assert.Equal(t, "SAN.PA", hits[0].Symbol)

	assert.Empty(t, c.Suggest("", 5))
}

func TestBleveLookup(t *testing.T) {
	c, err := NewBleve("", testListings(t), zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	l := c.Lookup("vwce.de")
	require.NotNil(t, l)
	assert.Equal(t, "VWCE.DE", l.Symbol)
	assert.Equal(t, "ETF", l.Type)
	assert.Nil(t, c.Lookup("NOPE"))
}

func TestBleveReopensOnDiskIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listings.bleve")

	c, err := NewBleve(path, testListings(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	c, err = NewBleve(path, nil, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	require.NotNil(t, c.Lookup("AIR.PA"))
}

func TestOpenMissingFile(t *testing.T) {
	c, err := Open(config.Catalog{File: filepath.Join(t.TempDir(), "missing.csv")}, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, c.Suggest("AIR", 5))
}

func TestMemorySuggestTiesKeepFileOrder(t *testing.T) {
	c := NewMemory([]models.Listing{
		{Symbol: "SAP.PA", Name: "SAP"},
		{Symbol: "SAN.PA", Name: "Sanofi"},
		{Symbol: "SA.L", Name: "Short"},
	})
	assert.Equal(t, []string{"SA.L", "SAP.PA", "SAN.PA"}, symbols(c.Suggest("sa", 10)))
}

func TestLookupISIN(t *testing.T) {
	mem := NewMemory(testListings(t))
	idx, err := NewBleve("", testListings(t), zap.NewNop())
	require.NoError(t, err)
	defer idx.Close()

	for name, c := range map[string]Catalog{"memory": mem, "bleve": idx} {
		l := c.LookupISIN("fr0000120578")
		require.NotNil(t, l, name)
		assert.Equal(t, "SAN.PA", l.Symbol, name)
		assert.Nil(t, c.LookupISIN("US0000000000"), name)
	}
}

func TestIsISIN(t *testing.T) {
	assert.True(t, IsISIN("FR0000120578"))
	assert.True(t, IsISIN(" ie00bk5bqt80 "))
	assert.False(t, IsISIN("AIR"))
	assert.False(t, IsISIN("1R0000120578"))
	assert.False(t, IsISIN("FR000012057X"))
	assert.False(t, IsISIN("FR00001205-8"))
}

func TestSymbolFor(t *testing.T) {
	c := NewMemory(testListings(t))
	assert.Equal(t, "AIR.PA", SymbolFor(c, "NL0000235190"))
	assert.Equal(t, "US0378331005", SymbolFor(c, "US0378331005"))
	assert.Equal(t, "AIR", SymbolFor(c, "AIR"))
	assert.Equal(t, "AIR", SymbolFor(nil, "AIR"))
}

func TestFillISIN(t *testing.T) {
	c := NewMemory(testListings(t))

	s := models.Summary{Symbol: "AIR.PA"}
	FillISIN(c, &s)
	assert.Equal(t, "NL0000235190", s.ISIN.ValueOrZero())

	s = models.Summary{Symbol: "AIR.PA", ISIN: null.StringFrom("XX")}
	FillISIN(c, &s)
	assert.Equal(t, "XX", s.ISIN.ValueOrZero())

	s = models.Summary{Symbol: "NOPE"}
	FillISIN(c, &s)
	assert.False(t, s.ISIN.Valid)
}
