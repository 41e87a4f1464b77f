package catalog

import (
	"strings"

	"github.com/guregu/null/v6"

	"stock-lookup/models"
)

// IsISIN reports whether s has the shape of an ISIN: a two-letter country
// code, nine alphanumerics and a check digit. The check digit itself is not
// verified.
func IsISIN(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 12 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		letter := ch >= 'A' && ch <= 'Z'
		digit := ch >= '0' && ch <= '9'
		switch {
		case i < 2 && !letter:
			return false
		case i == 11 && !digit:
			return false
		case !letter && !digit:
			return false
		}
	}
	return true
}

// SymbolFor maps an ISIN query to the listed symbol. Anything else, or an
// ISIN the catalog does not know, is returned unchanged.
func SymbolFor(c Catalog, query string) string {
	if c == nil || !IsISIN(query) {
		return query
	}
	if l := c.LookupISIN(query); l != nil && l.Symbol != "" {
		return l.Symbol
	}
	return query
}

// FillISIN sets s.ISIN from the catalog when the source did not provide one.
func FillISIN(c Catalog, s *models.Summary) {
	if c == nil || s.ISIN.Valid {
		return
	}
	if l := c.Lookup(s.Symbol); l != nil && l.ISIN != "" {
		s.ISIN = null.StringFrom(l.ISIN)
	}
}
