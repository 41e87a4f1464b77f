package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"stock-lookup/models"
)

var storedFields = []string{"symbol", "name", "exchange", "isin", "type"}

// document is the indexed form of a listing. SymbolKey is the lowercased
// symbol kept as a single token so "AIR.PA" is not split on the dot.
type document struct {
	Symbol    string `json:"symbol"`
	SymbolKey string `json:"symbol_key"`
	Name      string `json:"name"`
	Exchange  string `json:"exchange"`
	ISIN      string `json:"isin"`
	Type      string `json:"type"`
}

type Bleve struct {
	index  bleve.Index
	logger *zap.Logger
}

// NewBleve opens the index at indexPath, creating and filling it from
// listings when it does not exist yet. An empty indexPath keeps the index
// in memory.
func NewBleve(indexPath string, listings []models.Listing, logger *zap.Logger) (*Bleve, error) {
	if indexPath == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create in-memory index: %w", err)
		}
		if err := indexListings(index, listings); err != nil {
			index.Close()
			return nil, err
		}
		return &Bleve{index: index, logger: logger}, nil
	}

	index, err := bleve.Open(indexPath)
	switch {
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		logger.Info("indexing listings", zap.String("path", indexPath), zap.Int("count", len(listings)))
		if err := indexListings(index, listings); err != nil {
			index.Close()
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("open index: %w", err)
	default:
		logger.Info("opened existing listings index", zap.String("path", indexPath))
	}

	return &Bleve{index: index, logger: logger}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	listingMapping := bleve.NewDocumentMapping()

	keyword := bleve.NewKeywordFieldMapping()
	listingMapping.AddFieldMappingsAt("symbol_key", keyword)
	listingMapping.AddFieldMappingsAt("isin", keyword)
	listingMapping.AddFieldMappingsAt("exchange", keyword)
	listingMapping.AddFieldMappingsAt("type", keyword)

	text := bleve.NewTextFieldMapping()
	listingMapping.AddFieldMappingsAt("symbol", text)
	listingMapping.AddFieldMappingsAt("name", text)

	indexMapping.DefaultMapping = listingMapping
	return indexMapping
}

func indexListings(index bleve.Index, listings []models.Listing) error {
	batch := index.NewBatch()
	for _, l := range listings {
		doc := document{
			Symbol:    l.Symbol,
			SymbolKey: strings.ToLower(l.Symbol),
			Name:      l.Name,
			Exchange:  l.Exchange,
			ISIN:      strings.ToUpper(l.ISIN),
			Type:      l.Type,
		}
		if err := batch.Index(l.Symbol, doc); err != nil {
			return fmt.Errorf("add %s to batch: %w", l.Symbol, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return fmt.Errorf("index listings: %w", err)
	}
	return nil
}

// Suggest combines boosted exact, prefix and name queries and returns hits
// in score order.
func (b *Bleve) Suggest(q string, limit int) []models.Listing {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.Listing{}
	}
	lower := strings.ToLower(q)

	exact := bleve.NewTermQuery(lower)
	exact.SetField("symbol_key")
	exact.SetBoost(10.0)

	isin := bleve.NewTermQuery(strings.ToUpper(q))
	isin.SetField("isin")
	isin.SetBoost(10.0)

	prefix := bleve.NewPrefixQuery(lower)
	prefix.SetField("symbol_key")
	prefix.SetBoost(5.0)

	name := bleve.NewMatchQuery(q)
	name.SetField("name")
	name.SetBoost(3.0)

	wildcardName := bleve.NewWildcardQuery("*" + lower + "*")
	wildcardName.SetField("name")
	wildcardName.SetBoost(1.5)

	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(exact, isin, prefix, name, wildcardName))
	req.Fields = storedFields
	req.Size = clampLimit(limit)

	return b.search(req)
}

func (b *Bleve) Lookup(symbol string) *models.Listing {
	term := bleve.NewTermQuery(strings.ToLower(symbol))
	term.SetField("symbol_key")

	req := bleve.NewSearchRequest(term)
	req.Fields = storedFields
	req.Size = 1

	hits := b.search(req)
	if len(hits) == 0 {
		return nil
	}
	return &hits[0]
}

func (b *Bleve) LookupISIN(isin string) *models.Listing {
	term := bleve.NewTermQuery(strings.ToUpper(strings.TrimSpace(isin)))
	term.SetField("isin")

	req := bleve.NewSearchRequest(term)
	req.Fields = storedFields
	req.Size = 1

	hits := b.search(req)
	if len(hits) == 0 {
		return nil
	}
	return &hits[0]
}

func (b *Bleve) Close() error {
	return b.index.Close()
}

func (b *Bleve) search(req *bleve.SearchRequest) []models.Listing {
	res, err := b.index.Search(req)
	if err != nil {
		b.logger.Error("catalog search failed", zap.Error(err))
		return []models.Listing{}
	}

	getString := func(fields map[string]interface{}, key string) string {
		if val, ok := fields[key].(string); ok {
			return val
		}
		return ""
	}

	listings := make([]models.Listing, 0, len(res.Hits))
	for _, hit := range res.Hits {
		listings = append(listings, models.Listing{
			Symbol:   getString(hit.Fields, "symbol"),
			Name:     getString(hit.Fields, "name"),
			Exchange: getString(hit.Fields, "exchange"),
			ISIN:     getString(hit.Fields, "isin"),
			Type:     getString(hit.Fields, "type"),
		})
	}
	return listings
}
