package csv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseCoordinate parses a latitude or longitude string to a float64.
// Handles various formats: "45.815", "45,815", "45.815°", leading plus signs
func ParseCoordinate(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty coordinate value")
	}

	cleaned := strings.TrimSpace(value)
	cleaned = strings.Map(func(r rune) rune {
		// Strip degree marks and stray whitespace some exports carry
		if r == '°' || r == ' ' || r == ' ' {
			return -1
		}
		return r
	}, cleaned)
	cleaned = strings.TrimPrefix(cleaned, "+")

	// Decimal comma exports: a single comma acting as the decimal separator
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid coordinate format: %w", err)
	}
	return parsed, nil
}

// ParseRating parses a rating string to the 0-5 scale. Ratings published on
// a 0-10 or percentage scale are rescaled.
func ParseRating(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty rating value")
	}

	cleaned := strings.TrimSpace(value)
	percent := strings.HasSuffix(cleaned, "%")
	cleaned = strings.TrimSuffix(cleaned, "%")
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rating format: %w", err)
	}

	switch {
	case percent:
		parsed = parsed / 100 * 5
	case parsed > 5 && parsed <= 10:
		parsed = parsed / 2
	}

	if parsed < 0 || parsed > 5 {
		return 0, fmt.Errorf("rating %v out of range", parsed)
	}
	return parsed, nil
}

// ParseCostIndex parses a cost index to the 0-1 scale. Accepts fractions
// ("0.35"), percentages ("35%") and price-tier markers ("$$$", max 4).
func ParseCostIndex(value string) (float64, error) {
	if value == "" {
		return 0, fmt.Errorf("empty cost value")
	}

	cleaned := strings.TrimSpace(value)

	if tier := strings.Count(cleaned, "$") + strings.Count(cleaned, "€"); tier > 0 && tier == len([]rune(cleaned)) {
		if tier > 4 {
			tier = 4
		}
		return float64(tier) / 4, nil
	}

	percent := strings.HasSuffix(cleaned, "%")
	cleaned = strings.TrimSuffix(cleaned, "%")
	if strings.Count(cleaned, ",") == 1 && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(cleaned), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cost format: %w", err)
	}
	if percent {
		parsed /= 100
	}
	if parsed < 0 || parsed > 1 {
		return 0, fmt.Errorf("cost index %v out of range", parsed)
	}
	return parsed, nil
}

var categorySeparator = regexp.MustCompile(`[,;|]`)

// ParseCategories splits a category cell on comma, semicolon or pipe and
// lowercases the labels so affinity lookups match.
func ParseCategories(value string) []string {
	categories := make([]string, 0, 4)
	for _, part := range categorySeparator.Split(value, -1) {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			categories = append(categories, trimmed)
		}
	}
	return categories
}
