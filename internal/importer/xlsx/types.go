package xlsx

// XlsxColumnIndex represents a column index that can be either numeric or a header name
type XlsxColumnIndex struct {
	// Index is the numeric column index (0-based)
	Index *int
	// Header is the header name to match
	Header *string
}

// NewNumericIndex creates a column index from a numeric position
func NewNumericIndex(index int) XlsxColumnIndex {
	return XlsxColumnIndex{Index: &index}
}

// NewHeaderIndex creates a column index from a header name
func NewHeaderIndex(header string) XlsxColumnIndex {
	return XlsxColumnIndex{Header: &header}
}

// IsNumeric returns true if this is a numeric index
func (c XlsxColumnIndex) IsNumeric() bool {
	return c.Index != nil
}

// IsHeader returns true if this is a header-based index
func (c XlsxColumnIndex) IsHeader() bool {
	return c.Header != nil
}

// XlsxColumnMapping maps NormalizedPOI field names to XLSX column indices or header names
type XlsxColumnMapping struct {
	ExternalID   *XlsxColumnIndex `json:"externalId,omitempty"`
	Name         XlsxColumnIndex  `json:"name"` // Required
	Description  *XlsxColumnIndex `json:"description,omitempty"`
	Categories   *XlsxColumnIndex `json:"categories,omitempty"`
	Lat          XlsxColumnIndex  `json:"lat"` // Required
	Lng          XlsxColumnIndex  `json:"lng"` // Required
	Rating       *XlsxColumnIndex `json:"rating,omitempty"`
	CostIndex    *XlsxColumnIndex `json:"costIndex,omitempty"`
	Website      *XlsxColumnIndex `json:"website,omitempty"`
	OpeningHours *XlsxColumnIndex `json:"openingHours,omitempty"`
}

// XlsxParserOptions represents XLSX parser options
type XlsxParserOptions struct {
	// ColumnMapping is the mapping configuration
	ColumnMapping *XlsxColumnMapping `json:"columnMapping,omitempty"`
	// HasHeader indicates whether the first data row is a header
	HasHeader bool `json:"hasHeader,omitempty"`
	// HeaderRowCount is the number of rows to skip before data starts (default: 0, or 1 if hasHeader is true)
	HeaderRowCount int `json:"headerRowCount,omitempty"`
	// SkipEmptyRows indicates whether to skip empty rows
	SkipEmptyRows bool `json:"skipEmptyRows,omitempty"`
	// SheetNameOrIndex specifies which sheet to parse (default: first sheet)
	// Can be a string (sheet name) or int (sheet index, 0-based)
	SheetNameOrIndex interface{} `json:"sheetNameOrIndex,omitempty"`
}

// DefaultOptions returns default XLSX parser options
func DefaultOptions() XlsxParserOptions {
	return XlsxParserOptions{
		HasHeader:      true,
		HeaderRowCount: 0,
		SkipEmptyRows:  true,
	}
}

// ResolvedColumnIndices contains resolved numeric column indices
type ResolvedColumnIndices struct {
	ExternalID   int
	Name         int
	Description  int
	Categories   int
	Lat          int
	Lng          int
	Rating       int
	CostIndex    int
	Website      int
	OpeningHours int
}

// InvalidIndex indicates a column was not found or not specified
const InvalidIndex = -1

// NewResolvedColumnIndices creates a new ResolvedColumnIndices with all invalid indices
func NewResolvedColumnIndices() ResolvedColumnIndices {
	return ResolvedColumnIndices{
		ExternalID:   InvalidIndex,
		Name:         InvalidIndex,
		Description:  InvalidIndex,
		Categories:   InvalidIndex,
		Lat:          InvalidIndex,
		Lng:          InvalidIndex,
		Rating:       InvalidIndex,
		CostIndex:    InvalidIndex,
		Website:      InvalidIndex,
		OpeningHours: InvalidIndex,
	}
}
