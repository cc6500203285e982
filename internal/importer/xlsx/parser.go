package xlsx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/roamly/trip-service/internal/importer"
	csvparser "github.com/roamly/trip-service/internal/importer/csv"
)

// Parser is an XLSX parser implementation
type Parser struct {
	options    XlsxParserOptions
	altMapping *XlsxColumnMapping
}

// NewParser creates a new XLSX parser
func NewParser(options XlsxParserOptions) *Parser {
	opts := DefaultOptions()

	if options.ColumnMapping != nil {
		opts.ColumnMapping = options.ColumnMapping
	}
	opts.HasHeader = options.HasHeader
	opts.HeaderRowCount = options.HeaderRowCount
	if !options.SkipEmptyRows && options.ColumnMapping != nil {
		opts.SkipEmptyRows = options.SkipEmptyRows
	}
	if options.SheetNameOrIndex != nil {
		opts.SheetNameOrIndex = options.SheetNameOrIndex
	}

	return &Parser{
		options: opts,
	}
}

// SetAlternativeMapping sets an alternative column mapping to try if primary fails
func (p *Parser) SetAlternativeMapping(mapping *XlsxColumnMapping) {
	p.altMapping = mapping
}

// Parse parses XLSX content into normalized POIs
func (p *Parser) Parse(content []byte) (*importer.ParseResult, error) {
	result, err := p.parseWithMapping(content, p.options.ColumnMapping)
	if err != nil {
		return nil, err
	}

	// If no valid rows and we have an alternative mapping, try it
	if result.ValidRows == 0 && p.altMapping != nil {
		altResult, altErr := p.parseWithMapping(content, p.altMapping)
		if altErr == nil && altResult.ValidRows > 0 {
			return altResult, nil
		}
	}

	return result, nil
}

// parseWithMapping parses content using the specified column mapping
func (p *Parser) parseWithMapping(content []byte, mapping *XlsxColumnMapping) (*importer.ParseResult, error) {
	result := &importer.ParseResult{
		Rows:     make([]importer.NormalizedPOI, 0),
		Errors:   make([]importer.ParseError, 0),
		Warnings: make([]importer.ParseWarning, 0),
	}

	// Open workbook from bytes
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		result.Errors = append(result.Errors, importer.ParseError{
			Message: fmt.Sprintf("Failed to parse Excel file: %v", err),
		})
		return result, nil
	}
	defer f.Close()

	// Select sheet
	sheetName, err := p.selectSheet(f)
	if err != nil {
		result.Errors = append(result.Errors, importer.ParseError{
			Message: err.Error(),
		})
		return result, nil
	}

	// Get all rows
	rows, err := f.GetRows(sheetName)
	if err != nil {
		result.Errors = append(result.Errors, importer.ParseError{
			Message: fmt.Sprintf("Failed to read worksheet: %v", err),
		})
		return result, nil
	}

	if len(rows) == 0 {
		result.Warnings = append(result.Warnings, importer.ParseWarning{
			Message: "Excel file is empty",
		})
		return result, nil
	}

	// Extract headers if present
	var headers []string
	dataStartRow := p.options.HeaderRowCount

	if p.options.HasHeader {
		headers = make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			headers[i] = strings.TrimSpace(cell)
		}
		if dataStartRow == 0 {
			dataStartRow = 1
		}
	}

	if len(rows) > dataStartRow {
		result.TotalRows = len(rows) - dataStartRow
	}

	// Build column indices
	if mapping == nil {
		result.Errors = append(result.Errors, importer.ParseError{
			Message: "No column mapping provided. Cannot map Excel columns to normalized fields.",
		})
		return result, nil
	}

	indices, err := p.buildColumnIndices(headers, mapping)
	if err != nil {
		result.Errors = append(result.Errors, importer.ParseError{
			Message: err.Error(),
		})
		return result, nil
	}

	// Parse data rows
	for i := dataStartRow; i < len(rows); i++ {
		rawRow := rows[i]
		rowNumber := i + 1 // 1-based for user-facing

		// Skip empty rows
		if p.options.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}

		poi, rowErrors, rowWarnings := p.mapRowToNormalized(rawRow, rowNumber, indices)
		result.Errors = append(result.Errors, rowErrors...)
		result.Warnings = append(result.Warnings, rowWarnings...)

		if poi != nil {
			result.Rows = append(result.Rows, *poi)
		}
	}

	result.ValidRows = len(result.Rows)
	return result, nil
}

// selectSheet selects the appropriate sheet from the workbook
func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if p.options.SheetNameOrIndex == nil {
		return sheetList[0], nil
	}

	switch v := p.options.SheetNameOrIndex.(type) {
	case int:
		if v >= len(sheetList) {
			return "", fmt.Errorf("sheet index %d not found. Workbook has %d sheets", v, len(sheetList))
		}
		return sheetList[v], nil
	case string:
		for _, name := range sheetList {
			if name == v {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found. Available sheets: %s", v, strings.Join(sheetList, ", "))
	default:
		return sheetList[0], nil
	}
}

// buildColumnIndices builds resolved column indices from the mapping
func (p *Parser) buildColumnIndices(headers []string, mapping *XlsxColumnMapping) (*ResolvedColumnIndices, error) {
	indices := NewResolvedColumnIndices()

	resolveIndex := func(col *XlsxColumnIndex) int {
		if col == nil {
			return InvalidIndex
		}

		if col.IsNumeric() {
			return *col.Index
		}

		if col.IsHeader() {
			headerLower := strings.ToLower(strings.TrimSpace(*col.Header))
			for i, h := range headers {
				if strings.ToLower(strings.TrimSpace(h)) == headerLower {
					return i
				}
			}
		}

		return InvalidIndex
	}

	// Required fields
	indices.Name = resolveIndex(&mapping.Name)
	if indices.Name == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: name")
	}
	indices.Lat = resolveIndex(&mapping.Lat)
	if indices.Lat == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: lat")
	}
	indices.Lng = resolveIndex(&mapping.Lng)
	if indices.Lng == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: lng")
	}

	// Optional fields
	indices.ExternalID = resolveIndex(mapping.ExternalID)
	indices.Description = resolveIndex(mapping.Description)
	indices.Categories = resolveIndex(mapping.Categories)
	indices.Rating = resolveIndex(mapping.Rating)
	indices.CostIndex = resolveIndex(mapping.CostIndex)
	indices.Website = resolveIndex(mapping.Website)
	indices.OpeningHours = resolveIndex(mapping.OpeningHours)

	return &indices, nil
}

// mapRowToNormalized maps a raw Excel row to NormalizedPOI
func (p *Parser) mapRowToNormalized(rawRow []string, rowNumber int, indices *ResolvedColumnIndices) (*importer.NormalizedPOI, []importer.ParseError, []importer.ParseWarning) {
	var errors []importer.ParseError
	var warnings []importer.ParseWarning

	getValue := func(idx int) string {
		if idx == InvalidIndex || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	getStringPtr := func(idx int) *string {
		val := getValue(idx)
		if val == "" {
			return nil
		}
		return &val
	}

	rowError := func(field, message string, original string) {
		e := importer.ParseError{
			RowNumber: importer.IntPtr(rowNumber),
			Field:     importer.StringPtr(field),
			Message:   message,
		}
		if original != "" {
			e.OriginalValue = importer.StringPtr(original)
		}
		errors = append(errors, e)
	}
	rowWarning := func(field, message string) {
		warnings = append(warnings, importer.ParseWarning{
			RowNumber: importer.IntPtr(rowNumber),
			Field:     importer.StringPtr(field),
			Message:   message,
		})
	}

	name := getValue(indices.Name)
	if name == "" {
		rowError("name", "Missing place name", "")
	}

	var lat, lng float64
	latStr := getValue(indices.Lat)
	if parsed, err := csvparser.ParseCoordinate(latStr); err != nil || parsed < -90 || parsed > 90 {
		rowError("lat", "Invalid latitude value", latStr)
	} else {
		lat = parsed
	}
	lngStr := getValue(indices.Lng)
	if parsed, err := csvparser.ParseCoordinate(lngStr); err != nil || parsed < -180 || parsed > 180 {
		rowError("lng", "Invalid longitude value", lngStr)
	} else {
		lng = parsed
	}

	var rating *float64
	if ratingStr := getValue(indices.Rating); ratingStr != "" {
		parsed, err := csvparser.ParseRating(ratingStr)
		if err != nil {
			rowWarning("rating", "Invalid rating value, ignoring")
		} else {
			rating = &parsed
		}
	}

	var costIndex *float64
	if costStr := getValue(indices.CostIndex); costStr != "" {
		parsed, err := csvparser.ParseCostIndex(costStr)
		if err != nil {
			rowWarning("costIndex", "Invalid cost value, ignoring")
		} else {
			costIndex = &parsed
		}
	}

	categories := make([]string, 0)
	if catStr := getValue(indices.Categories); catStr != "" {
		categories = csvparser.ParseCategories(catStr)
	}

	if len(errors) > 0 {
		return nil, errors, warnings
	}

	rawData, _ := json.Marshal(rawRow)

	poi := &importer.NormalizedPOI{
		ExternalID:   getStringPtr(indices.ExternalID),
		Name:         name,
		Description:  getStringPtr(indices.Description),
		Categories:   categories,
		Lat:          lat,
		Lng:          lng,
		Rating:       rating,
		CostIndex:    costIndex,
		Website:      getStringPtr(indices.Website),
		OpeningHours: getStringPtr(indices.OpeningHours),
		RowNumber:    rowNumber,
		RawData:      string(rawData),
	}

	return poi, errors, warnings
}

// isEmptyRow checks if a row is empty
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
