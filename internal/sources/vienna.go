package sources

import (
	"fmt"

	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/csv"
	"github.com/roamly/trip-service/internal/importer/xlsx"
)

// viennaXlsxMapping is the primary mapping for the Vienna sights workbook
// (German headers)
var viennaXlsxMapping = func() *xlsx.XlsxColumnMapping {
	m := &xlsx.XlsxColumnMapping{
		Name: xlsx.NewHeaderIndex("BEZEICHNUNG"),
		Lat:  xlsx.NewHeaderIndex("BREITENGRAD"),
		Lng:  xlsx.NewHeaderIndex("LAENGENGRAD"),
	}
	desc := xlsx.NewHeaderIndex("BESCHREIBUNG")
	m.Description = &desc
	cat := xlsx.NewHeaderIndex("KATEGORIE")
	m.Categories = &cat
	web := xlsx.NewHeaderIndex("WEBLINK")
	m.Website = &web
	hours := xlsx.NewHeaderIndex("OEFFNUNGSZEITEN")
	m.OpeningHours = &hours
	return m
}()

// viennaCsvMapping covers the CSV export of the same dataset
var viennaCsvMapping = csv.CsvColumnMapping{
	Name:         "BEZEICHNUNG",
	Description:  importer.StringPtr("BESCHREIBUNG"),
	Categories:   importer.StringPtr("KATEGORIE"),
	Lat:          "BREITENGRAD",
	Lng:          "LAENGENGRAD",
	Website:      importer.StringPtr("WEBLINK"),
	OpeningHours: importer.StringPtr("OEFFNUNGSZEITEN"),
}

// ViennaAdapter is the source adapter for the Vienna open-government portal
type ViennaAdapter struct {
	*BaseSourceAdapter
}

// NewViennaAdapter creates a new Vienna adapter
func NewViennaAdapter() (*ViennaAdapter, error) {
	sourceConfig := SourceConfigs[SourceVienna]

	base, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug:           string(SourceVienna),
		Name:           sourceConfig.Name,
		SupportedTypes: sourceConfig.SupportedTypes,
		SourceConfig:   sourceConfig,
		CsvMapping:     &viennaCsvMapping,
		XlsxMapping:    viennaXlsxMapping,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create base adapter: %w", err)
	}

	return &ViennaAdapter{BaseSourceAdapter: base}, nil
}
