// Package catalog serves ticker suggestions from a static list of
// exchange listings. It holds reference data only, never quotes.
package catalog

import (
	"errors"
	"io/fs"
	"sort"
	"strings"

	"go.uber.org/zap"

	"stock-lookup/config"
	"stock-lookup/models"
)

const DefaultLimit = 10

type Catalog interface {
	Suggest(query string, limit int) []models.Listing
	Lookup(symbol string) *models.Listing
	LookupISIN(isin string) *models.Listing
	Close() error
}

// Open loads cfg.File and indexes it with bleve. A missing file yields an
// empty in-memory catalog so the service still starts.
func Open(cfg config.Catalog, logger *zap.Logger) (Catalog, error) {
	if cfg.File == "" {
		return NewMemory(nil), nil
	}
	listings, err := LoadListings(cfg.File)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("listings file not found, suggestions disabled", zap.String("file", cfg.File))
		return NewMemory(nil), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Info("loaded listings", zap.String("file", cfg.File), zap.Int("count", len(listings)))
	return NewBleve(cfg.IndexPath, listings, logger)
}

// Memory is a linear-scan catalog for small lists and tests.
type Memory struct {
	listings []models.Listing
}

func NewMemory(listings []models.Listing) *Memory {
	return &Memory{listings: listings}
}

// Suggest ranks exact symbol or ISIN matches first, then symbol prefixes,
// then name substrings. Within a tier shorter symbols come first, then
// file order.
func (m *Memory) Suggest(query string, limit int) []models.Listing {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Listing{}
	}
	limit = clampLimit(limit)

	type ranked struct {
		listing models.Listing
		rank    int
	}
	var hits []ranked
	for _, l := range m.listings {
		symbol := strings.ToLower(l.Symbol)
		switch {
		case symbol == q || strings.ToLower(l.ISIN) == q:
			hits = append(hits, ranked{l, 0})
		case strings.HasPrefix(symbol, q):
			hits = append(hits, ranked{l, 1})
		case strings.Contains(strings.ToLower(l.Name), q):
			hits = append(hits, ranked{l, 2})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].rank != hits[j].rank {
			return hits[i].rank < hits[j].rank
		}
		return len(hits[i].listing.Symbol) < len(hits[j].listing.Symbol)
	})

	results := make([]models.Listing, 0, min(limit, len(hits)))
	for _, h := range hits {
		if len(results) == limit {
			break
		}
		results = append(results, h.listing)
	}
	return results
}

func (m *Memory) Lookup(symbol string) *models.Listing {
	for _, l := range m.listings {
		if strings.EqualFold(l.Symbol, symbol) {
			return &l
		}
	}
	return nil
}

func (m *Memory) LookupISIN(isin string) *models.Listing {
	for _, l := range m.listings {
		if l.ISIN != "" && strings.EqualFold(l.ISIN, isin) {
			return &l
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, 100)
}
