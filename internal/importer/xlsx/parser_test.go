package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, sheet string, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

// TestParseHeaderBasedMapping tests parsing with header-name column resolution
func TestParseHeaderBasedMapping(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"ID", "Name", "Lat", "Lng", "Category"},
		{"vie-001", "Stephansdom", 48.2086, 16.3731, "Culture"},
		{"vie-002", "Prater", 48.2167, 16.3975, "Leisure; Park"},
	})

	mapping := &XlsxColumnMapping{
		ExternalID: columnIndexPtr(NewHeaderIndex("ID")),
		Name:       NewHeaderIndex("Name"),
		Lat:        NewHeaderIndex("Lat"),
		Lng:        NewHeaderIndex("Lng"),
		Categories: columnIndexPtr(NewHeaderIndex("Category")),
	}

	parser := NewParser(XlsxParserOptions{
		HasHeader:     true,
		ColumnMapping: mapping,
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)

	first := result.Rows[0]
	assert.Equal(t, "vie-001", *first.ExternalID)
	assert.Equal(t, "Stephansdom", first.Name)
	assert.InDelta(t, 48.2086, first.Lat, 1e-4)
	assert.InDelta(t, 16.3731, first.Lng, 1e-4)
	assert.Equal(t, []string{"culture"}, first.Categories)

	assert.Equal(t, []string{"leisure", "park"}, result.Rows[1].Categories)
}

// TestParseNumericIndices tests position-based column resolution
func TestParseNumericIndices(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"Stephansdom", 48.2086, 16.3731},
		{"Prater", 48.2167, 16.3975},
	})

	parser := NewParser(XlsxParserOptions{
		ColumnMapping: &XlsxColumnMapping{
			Name: NewNumericIndex(0),
			Lat:  NewNumericIndex(1),
			Lng:  NewNumericIndex(2),
		},
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ValidRows)
	assert.Equal(t, "Prater", result.Rows[1].Name)
}

// TestParseNamedSheet tests selecting a sheet by name
func TestParseNamedSheet(t *testing.T) {
	content := buildWorkbook(t, "Sehenswuerdigkeiten", [][]interface{}{
		{"Name", "Lat", "Lng"},
		{"Belvedere", 48.1916, 16.3809},
	})

	var sheet interface{} = "Sehenswuerdigkeiten"
	parser := NewParser(XlsxParserOptions{
		HasHeader:        true,
		SheetNameOrIndex: sheet,
		ColumnMapping: &XlsxColumnMapping{
			Name: NewHeaderIndex("Name"),
			Lat:  NewHeaderIndex("Lat"),
			Lng:  NewHeaderIndex("Lng"),
		},
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidRows)
	assert.Equal(t, "Belvedere", result.Rows[0].Name)
}

// TestParseInvalidRowsRecorded tests that bad rows produce errors, not failures
func TestParseInvalidRowsRecorded(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"Name", "Lat", "Lng"},
		{"Good", 48.2086, 16.3731},
		{"", 48.2, 16.3},
		{"BadLat", 123.4, 16.3},
	})

	parser := NewParser(XlsxParserOptions{
		HasHeader: true,
		ColumnMapping: &XlsxColumnMapping{
			Name: NewHeaderIndex("Name"),
			Lat:  NewHeaderIndex("Lat"),
			Lng:  NewHeaderIndex("Lng"),
		},
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ValidRows)
	assert.NotEmpty(t, result.Errors)
}

// TestParseAlternativeMapping tests the fallback mapping path
func TestParseAlternativeMapping(t *testing.T) {
	content := buildWorkbook(t, "Sheet1", [][]interface{}{
		{"Bezeichnung", "Breite", "Laenge"},
		{"Stephansdom", 48.2086, 16.3731},
	})

	parser := NewParser(XlsxParserOptions{
		HasHeader: true,
		ColumnMapping: &XlsxColumnMapping{
			Name: NewHeaderIndex("Name"),
			Lat:  NewHeaderIndex("Lat"),
			Lng:  NewHeaderIndex("Lng"),
		},
	})
	parser.SetAlternativeMapping(&XlsxColumnMapping{
		Name: NewHeaderIndex("Bezeichnung"),
		Lat:  NewHeaderIndex("Breite"),
		Lng:  NewHeaderIndex("Laenge"),
	})

	result, err := parser.Parse(content)
	require.NoError(t, err)
	require.Equal(t, 1, result.ValidRows)
	assert.Equal(t, "Stephansdom", result.Rows[0].Name)
}

// TestParseCorruptContent tests that non-XLSX bytes yield a file-level error
func TestParseCorruptContent(t *testing.T) {
	parser := NewParser(XlsxParserOptions{
		ColumnMapping: &XlsxColumnMapping{
			Name: NewNumericIndex(0),
			Lat:  NewNumericIndex(1),
			Lng:  NewNumericIndex(2),
		},
	})

	result, err := parser.Parse([]byte("this is not a workbook"))
	require.NoError(t, err)
	assert.Zero(t, result.ValidRows)
	assert.NotEmpty(t, result.Errors)
}

func columnIndexPtr(c XlsxColumnIndex) *XlsxColumnIndex {
	return &c
}
