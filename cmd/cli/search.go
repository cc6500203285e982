package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roamly/trip-service/internal/adapters/places"
)

var (
	searchLimit  int
	searchOutput string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for places by free-text query",
	Long: `Search the public geocoding service for places matching a free-text
query. Results can be used as candidate stops for trip planning.`,
	Example: `  trip-service search "zagreb cathedral"
  trip-service search "museum vienna" --limit 5 --output json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
	searchCmd.Flags().StringVar(&searchOutput, "output", "table", "Output format: table or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	var placesCfg *places.Config
	if cfg != nil {
		placesCfg = &cfg.Places
	}
	client := places.NewClient(placesCfg)

	results, err := client.Search(context.Background(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	switch strings.ToLower(searchOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "table":
		outputSearchTable(query, results)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", searchOutput)
	}

	return nil
}

func outputSearchTable(query string, results []places.Place) {
	if len(results) == 0 {
		fmt.Printf("No places found for: %s\n", query)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tLAT\tLNG\tCATEGORY")
	fmt.Fprintln(w, "----\t---\t---\t--------")

	for _, p := range results {
		category := p.Category
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s\t%.5f\t%.5f\t%s\n", p.Name, p.Lat, p.Lng, category)
	}

	w.Flush()
}
