package sources

import (
	"time"

	"github.com/roamly/trip-service/internal/importer/csv"
	"github.com/roamly/trip-service/internal/importer/xlsx"
)

// FileType represents a dataset file format
type FileType string

const (
	FileTypeCSV  FileType = "csv"
	FileTypeXLSX FileType = "xlsx"
)

// SourceID represents a unique identifier for each POI dataset source
type SourceID string

const (
	SourceZagreb    SourceID = "zagreb"
	SourceLjubljana SourceID = "ljubljana"
	SourceVienna    SourceID = "vienna"
)

// SourceIDs contains all valid source IDs
var SourceIDs = []SourceID{
	SourceZagreb,
	SourceLjubljana,
	SourceVienna,
}

// DiscoveredFile is a dataset file found on a source's portal page
type DiscoveredFile struct {
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Type     FileType          `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// FetchedFile is a downloaded dataset file plus its content checksum
type FetchedFile struct {
	DiscoveredFile
	Content   []byte    `json:"-"`
	Sha256    string    `json:"sha256"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// SourceConfig contains configuration for a POI dataset source
type SourceConfig struct {
	ID               SourceID               `json:"id"`
	Name             string                 `json:"name"`
	BaseURL          string                 `json:"baseUrl"`
	PrimaryFileType  FileType               `json:"primaryFileType"`
	SupportedTypes   []FileType             `json:"supportedFileTypes"`
	CsvOptions       *csv.CsvParserOptions  `json:"csv,omitempty"`
	XlsxMapping      *xlsx.XlsxColumnMapping `json:"xlsxMapping,omitempty"`
	Metadata         map[string]string      `json:"metadata,omitempty"`
}

// SourceConfigs contains all source configurations
var SourceConfigs = map[SourceID]SourceConfig{
	SourceZagreb: {
		ID:              SourceZagreb,
		Name:            "Zagreb Open Data",
		BaseURL:         "https://data.zagreb.hr/turizam/lokacije",
		PrimaryFileType: FileTypeCSV,
		SupportedTypes:  []FileType{FileTypeCSV},
		CsvOptions: &csv.CsvParserOptions{
			Delimiter: csv.DelimiterSemicolon,
			HasHeader: true,
		},
	},
	SourceLjubljana: {
		ID:              SourceLjubljana,
		Name:            "Ljubljana OPSI",
		BaseURL:         "https://podatki.ljubljana.si/turisticne-tocke",
		PrimaryFileType: FileTypeCSV,
		SupportedTypes:  []FileType{FileTypeCSV, FileTypeXLSX},
		CsvOptions: &csv.CsvParserOptions{
			HasHeader: true,
		},
	},
	SourceVienna: {
		ID:              SourceVienna,
		Name:            "Vienna Open Government",
		BaseURL:         "https://data.wien.gv.at/sehenswuerdigkeiten",
		PrimaryFileType: FileTypeXLSX,
		SupportedTypes:  []FileType{FileTypeXLSX, FileTypeCSV},
	},
}

// ValidSources returns the list of supported source slugs
func ValidSources() []string {
	slugs := make([]string, 0, len(SourceIDs))
	for _, id := range SourceIDs {
		slugs = append(slugs, string(id))
	}
	return slugs
}

// IsValidSource checks if a source slug is valid
func IsValidSource(sourceID string) bool {
	for _, id := range SourceIDs {
		if string(id) == sourceID {
			return true
		}
	}
	return false
}
