package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"stock-lookup/models"
)

// LoadListings reads a listings CSV with columns
// symbol,name,exchange,isin,type. Only symbol and name are required.
func LoadListings(filePath string) ([]models.Listing, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadListings(f)
}

func ReadListings(r io.Reader) ([]models.Listing, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}

	if len(records) > 0 && len(records[0]) > 0 && strings.EqualFold(records[0][0], "symbol") {
		records = records[1:]
	}

	listings := make([]models.Listing, 0, len(records))
	for _, record := range records {
		if len(record) < 2 || strings.TrimSpace(record[0]) == "" {
			continue
		}
		listings = append(listings, models.Listing{
			Symbol:   strings.ToUpper(strings.TrimSpace(record[0])),
			Name:     strings.TrimSpace(record[1]),
			Exchange: column(record, 2),
			ISIN:     strings.ToUpper(column(record, 3)),
			Type:     column(record, 4),
		})
	}
	return listings, nil
}

func column(record []string, i int) string {
	if i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
