package sources

import (
	"fmt"

	"github.com/roamly/trip-service/internal/httpclient/ratelimit"
	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/csv"
	"github.com/roamly/trip-service/internal/importer/xlsx"
)

// ljubljanaColumnMapping is the primary column mapping for the Ljubljana
// tourist-points dataset (Slovenian headers)
var ljubljanaColumnMapping = csv.CsvColumnMapping{
	ExternalID:   importer.StringPtr("ID"),
	Name:         "IME",
	Description:  importer.StringPtr("OPIS"),
	Categories:   importer.StringPtr("TIP"),
	Lat:          "LAT",
	Lng:          "LON",
	CostIndex:    importer.StringPtr("CENOVNI_RAZRED"),
	Website:      importer.StringPtr("SPLETNA_STRAN"),
	OpeningHours: importer.StringPtr("ODPIRALNI_CAS"),
}

// ljubljanaXlsxMapping covers the spreadsheet variant of the same dataset
var ljubljanaXlsxMapping = func() *xlsx.XlsxColumnMapping {
	m := &xlsx.XlsxColumnMapping{
		Name: xlsx.NewHeaderIndex("IME"),
		Lat:  xlsx.NewHeaderIndex("LAT"),
		Lng:  xlsx.NewHeaderIndex("LON"),
	}
	ext := xlsx.NewHeaderIndex("ID")
	m.ExternalID = &ext
	cat := xlsx.NewHeaderIndex("TIP")
	m.Categories = &cat
	hours := xlsx.NewHeaderIndex("ODPIRALNI_CAS")
	m.OpeningHours = &hours
	return m
}()

// LjubljanaAdapter is the source adapter for the Ljubljana OPSI portal
type LjubljanaAdapter struct {
	*BaseSourceAdapter
}

// NewLjubljanaAdapter creates a new Ljubljana adapter. The portal throttles
// hard, so the request rate is halved.
func NewLjubljanaAdapter() (*LjubljanaAdapter, error) {
	sourceConfig := SourceConfigs[SourceLjubljana]

	rps := 2
	base, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug:           string(SourceLjubljana),
		Name:           sourceConfig.Name,
		SupportedTypes: sourceConfig.SupportedTypes,
		SourceConfig:   sourceConfig,
		CsvMapping:     &ljubljanaColumnMapping,
		XlsxMapping:    ljubljanaXlsxMapping,
		RateLimitOverrides: &ratelimit.PartialConfig{
			RequestsPerSecond: &rps,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create base adapter: %w", err)
	}

	return &LjubljanaAdapter{BaseSourceAdapter: base}, nil
}
