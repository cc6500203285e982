package csv

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// CsvEncoding represents supported encodings
type CsvEncoding string

const (
	EncodingUTF8        CsvEncoding = "utf-8"
	EncodingWindows1250 CsvEncoding = "windows-1250"
	EncodingISO88592    CsvEncoding = "iso-8859-2"
)

// CsvColumnMapping maps NormalizedPOI field names to CSV column indices or
// header names. Values holding digits are treated as 0-based positions,
// anything else as a header name.
type CsvColumnMapping struct {
	ExternalID   *string `json:"externalId,omitempty"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Categories   *string `json:"categories,omitempty"`
	Lat          string  `json:"lat"`
	Lng          string  `json:"lng"`
	Rating       *string `json:"rating,omitempty"`
	CostIndex    *string `json:"costIndex,omitempty"`
	Website      *string `json:"website,omitempty"`
	OpeningHours *string `json:"openingHours,omitempty"`
}

// CsvParserOptions represents CSV parser options
type CsvParserOptions struct {
	Delimiter     CsvDelimiter      `json:"delimiter,omitempty"`
	Encoding      CsvEncoding       `json:"encoding,omitempty"`
	HasHeader     bool              `json:"hasHeader,omitempty"`
	ColumnMapping *CsvColumnMapping `json:"columnMapping,omitempty"`
	SkipEmptyRows bool              `json:"skipEmptyRows,omitempty"`
	QuoteChar     rune              `json:"quoteChar,omitempty"`
}

// DefaultOptions returns default CSV parser options
func DefaultOptions() CsvParserOptions {
	return CsvParserOptions{
		Delimiter:     DelimiterComma,
		Encoding:      EncodingUTF8,
		HasHeader:     true,
		SkipEmptyRows: true,
		QuoteChar:     '"',
	}
}
