package csv

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/charset"
)

// Parser implements CSV parsing with encoding detection and column mapping
type Parser struct {
	options CsvParserOptions

	// Alternative mapping for fallback
	alternativeMapping *CsvColumnMapping
}

// NewParser creates a new CSV parser with the given options
func NewParser(options CsvParserOptions) *Parser {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Parser{
		options: options,
	}
}

// SetAlternativeMapping sets an alternative column mapping to try if the primary fails
func (p *Parser) SetAlternativeMapping(mapping *CsvColumnMapping) {
	p.alternativeMapping = mapping
}

// Parse parses CSV content into normalized POIs
func (p *Parser) Parse(content []byte) (*importer.ParseResult, error) {
	opts := p.resolveOptions()

	// Detect encoding if not set
	if opts.Encoding == "" {
		detected := charset.DetectEncoding(content)
		opts.Encoding = CsvEncoding(detected)
	}

	// Decode content to UTF-8
	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	// Detect delimiter if not set
	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	rawRows := p.parseCSV(decoded, opts)

	if len(rawRows) == 0 {
		return &importer.ParseResult{
			Rows: make([]importer.NormalizedPOI, 0),
		}, nil
	}

	// Extract headers if present
	headers := make([]string, 0)
	dataStartRow := 0
	if opts.HasHeader && len(rawRows) > 0 {
		headers = rawRows[0]
		dataStartRow = 1
	}

	// Build column indices
	columnIndices, err := p.buildColumnIndices(headers, opts.ColumnMapping)
	if err != nil {
		return &importer.ParseResult{
			Rows: make([]importer.NormalizedPOI, 0),
			Errors: []importer.ParseError{
				{Message: err.Error()},
			},
			TotalRows: len(rawRows) - dataStartRow,
		}, nil
	}

	result := &importer.ParseResult{
		Rows:     make([]importer.NormalizedPOI, 0),
		Errors:   make([]importer.ParseError, 0),
		Warnings: make([]importer.ParseWarning, 0),
	}

	for i := dataStartRow; i < len(rawRows); i++ {
		rawRow := rawRows[i]
		rowNumber := i + 1

		// Skip empty rows
		if opts.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}

		result.TotalRows++

		poi, errs, warns := p.mapRowToNormalized(rawRow, rowNumber, columnIndices)
		result.Warnings = append(result.Warnings, warns...)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}

		result.Rows = append(result.Rows, *poi)
		result.ValidRows++
	}

	// If no valid rows and we have an alternative mapping, try it
	if result.ValidRows == 0 && p.alternativeMapping != nil {
		altOpts := p.options
		altOpts.ColumnMapping = p.alternativeMapping
		altParser := NewParser(altOpts)
		return altParser.Parse(content)
	}

	return result, nil
}

// parseCSV parses CSV content into raw rows
func (p *Parser) parseCSV(content string, opts CsvParserOptions) [][]string {
	lines := splitLines(content)
	rows := make([][]string, 0, len(lines))

	delimRune := rune(opts.Delimiter[0])

	for _, line := range lines {
		if line == "" {
			rows = append(rows, []string{})
			continue
		}

		fields := SplitCSVLine(line, delimRune, opts.QuoteChar)

		// Trim whitespace from each field
		trimmed := make([]string, len(fields))
		for i, f := range fields {
			trimmed[i] = strings.TrimSpace(f)
		}

		rows = append(rows, trimmed)
	}

	return rows
}

// buildColumnIndices builds a map of field names to column indices
func (p *Parser) buildColumnIndices(headers []string, mapping *CsvColumnMapping) (map[string]int, error) {
	if mapping == nil {
		return nil, fmt.Errorf("no column mapping provided")
	}

	indices := make(map[string]int)

	// Fuzzy header matching: remove diacritics for comparison
	normalizeHeader := func(h string) string {
		return strings.ToLower(
			strings.Map(func(r rune) rune {
				switch r {
				case 'š', 'Š':
					return 's'
				case 'č', 'ć', 'Č', 'Ć':
					return 'c'
				case 'ž', 'Ž':
					return 'z'
				case 'đ', 'Đ':
					return 'd'
				default:
					return r
				}
			}, strings.TrimSpace(h)))
	}

	resolveIndex := func(field string, value *string, required bool) error {
		if value == nil {
			if required {
				return fmt.Errorf("required field %s not in mapping", field)
			}
			return nil
		}

		// Check if it's a numeric index (column position)
		if idx, err := strconv.Atoi(strings.TrimSpace(*value)); err == nil {
			if idx < 0 {
				return fmt.Errorf("invalid column index for %s: %s", field, *value)
			}
			indices[field] = idx
			return nil
		}

		// Try exact case-insensitive match first
		idx := -1
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(*value)) {
				idx = i
				break
			}
		}

		// Fallback: fuzzy match (diacritic-insensitive)
		if idx == -1 {
			normalizedMapping := normalizeHeader(*value)
			for i, h := range headers {
				if normalizeHeader(h) == normalizedMapping {
					log.Warn().Str("mapping", *value).Str("header", h).Msg("Fuzzy header match")
					idx = i
					break
				}
			}
		}

		if idx == -1 {
			if required {
				return fmt.Errorf("column '%s' for field '%s' not found in headers", *value, field)
			}
			// Optional field not found - that's ok
			return nil
		}

		indices[field] = idx
		return nil
	}

	if err := resolveIndex("name", &mapping.Name, true); err != nil {
		return nil, err
	}
	if err := resolveIndex("lat", &mapping.Lat, true); err != nil {
		return nil, err
	}
	if err := resolveIndex("lng", &mapping.Lng, true); err != nil {
		return nil, err
	}

	// Optional fields
	resolveIndex("externalId", mapping.ExternalID, false)
	resolveIndex("description", mapping.Description, false)
	resolveIndex("categories", mapping.Categories, false)
	resolveIndex("rating", mapping.Rating, false)
	resolveIndex("costIndex", mapping.CostIndex, false)
	resolveIndex("website", mapping.Website, false)
	resolveIndex("openingHours", mapping.OpeningHours, false)

	return indices, nil
}

// mapRowToNormalized maps a raw CSV row to NormalizedPOI
func (p *Parser) mapRowToNormalized(rawRow []string, rowNumber int, indices map[string]int) (*importer.NormalizedPOI, []importer.ParseError, []importer.ParseWarning) {
	var errors []importer.ParseError
	var warnings []importer.ParseWarning

	getValue := func(field string) *string {
		idx, ok := indices[field]
		if !ok || idx >= len(rawRow) {
			return nil
		}
		val := strings.TrimSpace(rawRow[idx])
		if val == "" {
			return nil
		}
		return &val
	}

	rowError := func(field, message string, original *string) {
		errors = append(errors, importer.ParseError{
			RowNumber:     importer.IntPtr(rowNumber),
			Field:         importer.StringPtr(field),
			Message:       message,
			OriginalValue: original,
		})
	}
	rowWarning := func(field, message string) {
		warnings = append(warnings, importer.ParseWarning{
			RowNumber: importer.IntPtr(rowNumber),
			Field:     importer.StringPtr(field),
			Message:   message,
		})
	}

	// Name is required
	name := ""
	if nameVal := getValue("name"); nameVal != nil {
		name = *nameVal
	}
	if name == "" {
		rowError("name", "Name is required", nil)
	}

	// Coordinates are required
	var lat, lng float64
	if latStr := getValue("lat"); latStr != nil {
		parsed, err := ParseCoordinate(*latStr)
		if err != nil || parsed < -90 || parsed > 90 {
			rowError("lat", "Invalid latitude value", latStr)
		} else {
			lat = parsed
		}
	} else {
		rowError("lat", "Latitude is required", nil)
	}
	if lngStr := getValue("lng"); lngStr != nil {
		parsed, err := ParseCoordinate(*lngStr)
		if err != nil || parsed < -180 || parsed > 180 {
			rowError("lng", "Invalid longitude value", lngStr)
		} else {
			lng = parsed
		}
	} else {
		rowError("lng", "Longitude is required", nil)
	}

	// Optional fields degrade to nil with a warning, the row still imports
	var rating *float64
	if ratingStr := getValue("rating"); ratingStr != nil {
		parsed, err := ParseRating(*ratingStr)
		if err != nil {
			rowWarning("rating", "Invalid rating value, ignoring")
		} else {
			rating = &parsed
		}
	}

	var costIndex *float64
	if costStr := getValue("costIndex"); costStr != nil {
		parsed, err := ParseCostIndex(*costStr)
		if err != nil {
			rowWarning("costIndex", "Invalid cost value, ignoring")
		} else {
			costIndex = &parsed
		}
	}

	categories := make([]string, 0)
	if catStr := getValue("categories"); catStr != nil {
		categories = ParseCategories(*catStr)
	}

	if len(errors) > 0 {
		return nil, errors, warnings
	}

	// Build raw data JSON
	rawDataJSON, _ := json.Marshal(rawRow)

	poi := &importer.NormalizedPOI{
		ExternalID:   getValue("externalId"),
		Name:         name,
		Description:  getValue("description"),
		Categories:   categories,
		Lat:          lat,
		Lng:          lng,
		Rating:       rating,
		CostIndex:    costIndex,
		Website:      getValue("website"),
		OpeningHours: getValue("openingHours"),
		RowNumber:    rowNumber,
		RawData:      string(rawDataJSON),
	}

	return poi, nil, warnings
}

// resolveOptions returns options with defaults filled in. The delimiter is
// left empty so Parse can auto-detect it from the decoded content.
func (p *Parser) resolveOptions() CsvParserOptions {
	opts := p.options
	if opts.QuoteChar == 0 {
		opts.QuoteChar = '"'
	}
	return opts
}

// splitLines splits content into lines handling different line endings
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
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
