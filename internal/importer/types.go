package importer

// NormalizedPOI is a single point of interest extracted from a dataset file,
// normalized to the catalog's field set regardless of the source format.
type NormalizedPOI struct {
	ExternalID  *string  `json:"externalId,omitempty"`
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Categories  []string `json:"categories"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	// Rating is on the 0-5 scale; CostIndex on 0-1. Both stay nil when the
	// source does not publish them so the scorer applies its defaults.
	Rating       *float64 `json:"rating,omitempty"`
	CostIndex    *float64 `json:"costIndex,omitempty"`
	Website      *string  `json:"website,omitempty"`
	OpeningHours *string  `json:"openingHours,omitempty"`
	RowNumber    int      `json:"rowNumber"`
	RawData      string   `json:"rawData"`
}

// ParseError describes a row or file level problem found while parsing.
type ParseError struct {
	RowNumber     *int    `json:"rowNumber,omitempty"`
	Field         *string `json:"field,omitempty"`
	Message       string  `json:"message"`
	OriginalValue *string `json:"originalValue,omitempty"`
}

// ParseWarning describes a recoverable problem; the row is still imported.
type ParseWarning struct {
	RowNumber *int    `json:"rowNumber,omitempty"`
	Field     *string `json:"field,omitempty"`
	Message   string  `json:"message"`
}

// ParseResult is the outcome of parsing one dataset file.
type ParseResult struct {
	TotalRows int             `json:"totalRows"`
	ValidRows int             `json:"validRows"`
	Rows      []NormalizedPOI `json:"rows"`
	Errors    []ParseError    `json:"errors,omitempty"`
	Warnings  []ParseWarning  `json:"warnings,omitempty"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// FloatPtr returns a pointer to the given float64
func FloatPtr(f float64) *float64 {
	return &f
}
