package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamly/trip-service/internal/httpclient"
	"github.com/roamly/trip-service/internal/httpclient/ratelimit"
	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/csv"
	"github.com/roamly/trip-service/internal/importer/xlsx"
)

var testCsvMapping = csv.CsvColumnMapping{
	Name: "Name",
	Lat:  "Latitude",
	Lng:  "Longitude",
}

// newTestAdapter builds an adapter pointed at a test server's portal page.
// Rate limiting is raised far above the defaults so tests don't throttle.
func newTestAdapter(t *testing.T, baseURL string, types []FileType) *BaseSourceAdapter {
	t.Helper()

	adapter, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug:           "testcity",
		Name:           "Test City Open Data",
		SupportedTypes: types,
		SourceConfig: SourceConfig{
			ID:      "testcity",
			BaseURL: baseURL,
			CsvOptions: &csv.CsvParserOptions{
				HasHeader: true,
			},
		},
		CsvMapping: &testCsvMapping,
		RateLimitOverrides: &ratelimit.PartialConfig{
			RequestsPerSecond: importer.IntPtr(1000),
			MaxRetries:        importer.IntPtr(0),
		},
	})
	require.NoError(t, err)
	return adapter
}

func TestNewBaseSourceAdapterRequiresTypes(t *testing.T) {
	_, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug: "empty",
		Name: "Empty",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SupportedTypes cannot be empty")
}

func TestDiscoverPortalLinks(t *testing.T) {
	portalHTML := `<html><body>
		<a href="/downloads/pois_2026.csv">City POIs (CSV)</a>
		<a href='attractions.xlsx'>Attractions workbook</a>
		<a href="https://cdn.example.org/data/museums.CSV?rev=3">Museums</a>
		<a href="/downloads/pois_2026.csv">duplicate link</a>
		<a href="/about.html">About this portal</a>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, portalHTML)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL+"/portal/index.html", []FileType{FileTypeCSV, FileTypeXLSX})

	files, err := adapter.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 3)

	byFilename := make(map[string]DiscoveredFile)
	for _, f := range files {
		byFilename[f.Filename] = f
	}

	rootRelative, ok := byFilename["pois_2026.csv"]
	require.True(t, ok)
	assert.Equal(t, server.URL+"/downloads/pois_2026.csv", rootRelative.URL)
	assert.Equal(t, FileTypeCSV, rootRelative.Type)
	assert.Equal(t, "testcity_portal", rootRelative.Metadata["source"])

	relative, ok := byFilename["attractions.xlsx"]
	require.True(t, ok)
	assert.Equal(t, server.URL+"/portal/attractions.xlsx", relative.URL)
	assert.Equal(t, FileTypeXLSX, relative.Type)

	absolute, ok := byFilename["museums.CSV"]
	require.True(t, ok)
	assert.Equal(t, "https://cdn.example.org/data/museums.CSV?rev=3", absolute.URL)
	assert.Equal(t, FileTypeCSV, absolute.Type)
}

func TestDiscoverFiltersUnsupportedTypes(t *testing.T) {
	portalHTML := `<html><body>
		<a href="/pois.csv">CSV</a>
		<a href="/pois.xlsx">Excel</a>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, portalHTML)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, []FileType{FileTypeCSV})

	files, err := adapter.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "pois.csv", files[0].Filename)
}

func TestDiscoverPortalUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, []FileType{FileTypeCSV})

	_, err := adapter.Discover(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch Test City Open Data portal")
}

func TestFetchComputesChecksum(t *testing.T) {
	content := []byte("Name,Latitude,Longitude\nCathedral,45.814,15.979\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, []FileType{FileTypeCSV})

	fetched, err := adapter.Fetch(context.Background(), DiscoveredFile{
		URL:      server.URL + "/pois.csv",
		Filename: "pois.csv",
		Type:     FileTypeCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, content, fetched.Content)
	assert.Equal(t, httpclient.ComputeSha256(content), fetched.Sha256)
	assert.False(t, fetched.FetchedAt.IsZero())
	assert.Equal(t, "pois.csv", fetched.Filename)
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := newTestAdapter(t, server.URL, []FileType{FileTypeCSV})

	_, err := adapter.Fetch(context.Background(), DiscoveredFile{
		URL:      server.URL + "/missing.csv",
		Filename: "missing.csv",
		Type:     FileTypeCSV,
	})
	require.Error(t, err)
}

func TestParseDispatchesCsv(t *testing.T) {
	adapter := newTestAdapter(t, "http://example.invalid", []FileType{FileTypeCSV})

	content := []byte("Name,Latitude,Longitude\nCathedral,45.814,15.979\nFunicular,45.813,15.973\n")
	result, err := adapter.Parse(content, "pois.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Cathedral", result.Rows[0].Name)
	assert.InDelta(t, 45.814, result.Rows[0].Lat, 0.0001)
}

func TestParseXlsxWithoutMapping(t *testing.T) {
	adapter := newTestAdapter(t, "http://example.invalid", []FileType{FileTypeCSV, FileTypeXLSX})

	_, err := adapter.Parse([]byte("not a workbook"), "pois.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no xlsx column mapping configured")
}

func TestParseDispatchesXlsx(t *testing.T) {
	adapter, err := NewBaseSourceAdapter(BaseAdapterConfig{
		Slug:           "testcity",
		Name:           "Test City Open Data",
		SupportedTypes: []FileType{FileTypeXLSX},
		SourceConfig:   SourceConfig{ID: "testcity", BaseURL: "http://example.invalid"},
		XlsxMapping: &xlsx.XlsxColumnMapping{
			Name: xlsx.NewHeaderIndex("Name"),
			Lat:  xlsx.NewHeaderIndex("Latitude"),
			Lng:  xlsx.NewHeaderIndex("Longitude"),
		},
	})
	require.NoError(t, err)

	// Corrupt content should surface as a file-level parse error, not a Go error
	result, err := adapter.Parse([]byte("not a workbook"), "pois.xlsx")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Errors)
	assert.Empty(t, result.Rows)
}
