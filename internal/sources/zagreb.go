package sources

import (
	"fmt"

	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/csv"
)

// zagrebColumnMapping is the primary column mapping for the Zagreb tourism
// dataset (Croatian headers)
var zagrebColumnMapping = csv.CsvColumnMapping{
	ExternalID:   importer.StringPtr("ŠIFRA"),
	Name:         "NAZIV",
	Description:  importer.StringPtr("OPIS"),
	Categories:   importer.StringPtr("KATEGORIJA"),
	Lat:          "GEO_ŠIRINA",
	Lng:          "GEO_DUŽINA",
	Rating:       importer.StringPtr("OCJENA"),
	Website:      importer.StringPtr("WEB"),
	OpeningHours: importer.StringPtr("RADNO_VRIJEME"),
}

// zagrebColumnMappingEN is the alternative mapping for the English exports
var zagrebColumnMappingEN = csv.CsvColumnMapping{
	ExternalID:   importer.StringPtr("Code"),
	Name:         "Name",
	Description:  importer.StringPtr("Description"),
	Categories:   importer.StringPtr("Category"),
	Lat:          "Latitude",
	Lng:          "Longitude",
	Rating:       importer.StringPtr("Rating"),
	Website:      importer.StringPtr("Website"),
	OpeningHours: importer.StringPtr("Opening Hours"),
}

// ZagrebAdapter is the source adapter for the Zagreb open-data portal
type ZagrebAdapter struct {
	*BaseSourceAdapter
}

// NewZagrebAdapter creates a new Zagreb adapter
func NewZagrebAdapter() (*ZagrebAdapter, error) {
	sourceConfig := SourceConfigs[SourceZagreb]

	base, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug:           string(SourceZagreb),
		Name:           sourceConfig.Name,
		SupportedTypes: sourceConfig.SupportedTypes,
		SourceConfig:   sourceConfig,
		CsvMapping:     &zagrebColumnMapping,
		CsvAltMapping:  &zagrebColumnMappingEN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create base adapter: %w", err)
	}

	return &ZagrebAdapter{BaseSourceAdapter: base}, nil
}
