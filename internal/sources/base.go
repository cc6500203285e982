package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/roamly/trip-service/internal/httpclient"
	"github.com/roamly/trip-service/internal/httpclient/ratelimit"
	"github.com/roamly/trip-service/internal/importer"
	"github.com/roamly/trip-service/internal/importer/csv"
	"github.com/roamly/trip-service/internal/importer/xlsx"
)

// SourceAdapter is the contract every dataset source implements
type SourceAdapter interface {
	Slug() string
	Name() string
	SupportedTypes() []FileType
	Discover(ctx context.Context) ([]DiscoveredFile, error)
	Fetch(ctx context.Context, file DiscoveredFile) (*FetchedFile, error)
	Parse(content []byte, filename string) (*importer.ParseResult, error)
}

// BaseAdapterConfig contains configuration for a base source adapter
type BaseAdapterConfig struct {
	Slug               string
	Name               string
	SupportedTypes     []FileType
	SourceConfig       SourceConfig
	CsvMapping         *csv.CsvColumnMapping
	CsvAltMapping      *csv.CsvColumnMapping
	XlsxMapping        *xlsx.XlsxColumnMapping
	RateLimitOverrides *ratelimit.PartialConfig
}

// BaseSourceAdapter provides the common discovery/fetch/parse machinery for
// portal-style sources: a page of links to downloadable dataset files.
type BaseSourceAdapter struct {
	slug           string
	name           string
	supportedTypes []FileType
	config         SourceConfig
	csvMapping     *csv.CsvColumnMapping
	csvAltMapping  *csv.CsvColumnMapping
	xlsxMapping    *xlsx.XlsxColumnMapping
	httpClient     *httpclient.Client
}

// NewBaseSourceAdapter creates a new base source adapter
func NewBaseSourceAdapter(cfg BaseAdapterConfig) (*BaseSourceAdapter, error) {
	if len(cfg.SupportedTypes) == 0 {
		return nil, fmt.Errorf("%s: SupportedTypes cannot be empty", cfg.Slug)
	}

	var rateLimitConfig ratelimit.Config
	if cfg.RateLimitOverrides != nil {
		rateLimitConfig = ratelimit.WithOverrides(*cfg.RateLimitOverrides)
	} else {
		rateLimitConfig = ratelimit.DefaultConfig()
	}

	return &BaseSourceAdapter{
		slug:           cfg.Slug,
		name:           cfg.Name,
		supportedTypes: cfg.SupportedTypes,
		config:         cfg.SourceConfig,
		csvMapping:     cfg.CsvMapping,
		csvAltMapping:  cfg.CsvAltMapping,
		xlsxMapping:    cfg.XlsxMapping,
		httpClient:     httpclient.NewClient(rateLimitConfig),
	}, nil
}

// Slug returns the source slug
func (a *BaseSourceAdapter) Slug() string {
	return a.slug
}

// Name returns the source name
func (a *BaseSourceAdapter) Name() string {
	return a.name
}

// SupportedTypes returns supported file types
func (a *BaseSourceAdapter) SupportedTypes() []FileType {
	return a.supportedTypes
}

// BaseURL returns the base URL for the source's portal
func (a *BaseSourceAdapter) BaseURL() string {
	return a.config.BaseURL
}

// HTTPClient returns the HTTP client for making requests
func (a *BaseSourceAdapter) HTTPClient() *httpclient.Client {
	return a.httpClient
}

// Discover scrapes the portal page for links to dataset files of the
// supported types.
func (a *BaseSourceAdapter) Discover(ctx context.Context) ([]DiscoveredFile, error) {
	body, err := a.httpClient.GetBytes(ctx, a.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s portal: %w", a.name, err)
	}

	html := string(body)

	extensions := a.discoverableExtensions()
	extensionPattern := strings.Join(extensions, "|")
	linkPattern := regexp.MustCompile(`(?i)href=["']([^"']*\.(` + extensionPattern + `)(?:\?[^"']*)?)["']`)

	discoveredFiles := make([]DiscoveredFile, 0)
	seenURLs := make(map[string]bool)

	for _, match := range linkPattern.FindAllStringSubmatch(html, -1) {
		if len(match) < 2 {
			continue
		}

		href := match[1]
		if seenURLs[href] {
			continue
		}
		seenURLs[href] = true

		fileURL := a.resolveLink(href)
		filename := a.extractFilenameFromURL(fileURL)

		discoveredFiles = append(discoveredFiles, DiscoveredFile{
			URL:      fileURL,
			Filename: filename,
			Type:     a.detectFileType(filename),
			Metadata: map[string]string{
				"source":       fmt.Sprintf("%s_portal", a.slug),
				"discoveredAt": time.Now().Format(time.RFC3339),
			},
		})
	}

	return discoveredFiles, nil
}

// Fetch downloads a discovered file and computes its checksum
func (a *BaseSourceAdapter) Fetch(ctx context.Context, file DiscoveredFile) (*FetchedFile, error) {
	content, err := a.httpClient.GetBytes(ctx, file.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", file.URL, err)
	}

	return &FetchedFile{
		DiscoveredFile: file,
		Content:        content,
		Sha256:         httpclient.ComputeSha256(content),
		FetchedAt:      time.Now(),
	}, nil
}

// Parse parses file content into normalized POIs, dispatching on file type
func (a *BaseSourceAdapter) Parse(content []byte, filename string) (*importer.ParseResult, error) {
	switch a.detectFileType(filename) {
	case FileTypeXLSX:
		if a.xlsxMapping == nil {
			return nil, fmt.Errorf("%s: no xlsx column mapping configured", a.slug)
		}
		parser := xlsx.NewParser(xlsx.XlsxParserOptions{
			ColumnMapping: a.xlsxMapping,
			HasHeader:     true,
			SkipEmptyRows: true,
		})
		return parser.Parse(content)
	default:
		opts := csv.DefaultOptions()
		if a.config.CsvOptions != nil {
			opts = *a.config.CsvOptions
		}
		opts.ColumnMapping = a.csvMapping
		parser := csv.NewParser(opts)
		if a.csvAltMapping != nil {
			parser.SetAlternativeMapping(a.csvAltMapping)
		}
		return parser.Parse(content)
	}
}

// resolveLink resolves a possibly relative href against the portal base URL
func (a *BaseSourceAdapter) resolveLink(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}

	parsedURL, err := url.Parse(a.config.BaseURL)
	if err != nil {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return fmt.Sprintf("%s://%s%s", parsedURL.Scheme, parsedURL.Host, href)
	}
	basePath := parsedURL.Path
	if idx := strings.LastIndex(basePath, "/"); idx >= 0 {
		return fmt.Sprintf("%s://%s%s%s", parsedURL.Scheme, parsedURL.Host, basePath[:idx+1], href)
	}
	return fmt.Sprintf("%s://%s/%s", parsedURL.Scheme, parsedURL.Host, href)
}

// discoverableExtensions returns file extensions to look for during discovery
func (a *BaseSourceAdapter) discoverableExtensions() []string {
	extensions := make([]string, 0)
	for _, fileType := range a.supportedTypes {
		switch fileType {
		case FileTypeCSV:
			extensions = append(extensions, "csv")
		case FileTypeXLSX:
			extensions = append(extensions, "xlsx", "xls")
		}
	}
	return extensions
}

// extractFilenameFromURL extracts the filename from a URL
func (a *BaseSourceAdapter) extractFilenameFromURL(urlStr string) string {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Sprintf("unknown.%s", a.supportedTypes[0])
	}

	parts := strings.Split(parsedURL.Path, "/")
	filename := parts[len(parts)-1]
	if filename == "" {
		return fmt.Sprintf("unknown.%s", a.supportedTypes[0])
	}

	return strings.Split(filename, "?")[0]
}

// detectFileType detects file type from filename
func (a *BaseSourceAdapter) detectFileType(filename string) FileType {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		return FileTypeXLSX
	}
	return FileTypeCSV
}
