package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roamly/trip-service/internal/sources"
)

var discoverOutput string

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover <source>",
	Short: "Discover available dataset files from a source's portal",
	Long: `Discover available dataset files from an open-data portal. This command
scans the source's portal page and returns information about available files
including URL, filename, and file type.

Output can be formatted as a human-readable table (default) or JSON.`,
	Example: `  trip-service discover zagreb
  trip-service discover vienna --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runDiscover,
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringVar(&discoverOutput, "output", "table", "Output format: table or json")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	sourceSlug := args[0]

	if !sources.IsValidSource(sourceSlug) {
		return fmt.Errorf("invalid source: %s\nValid sources: %s", sourceSlug, strings.Join(sources.ValidSources(), ", "))
	}

	if err := sources.InitializeDefaultAdapters(); err != nil {
		return fmt.Errorf("failed to initialize source registry: %w", err)
	}

	adapter, err := sources.GetAdapter(sources.SourceID(sourceSlug))
	if err != nil {
		return fmt.Errorf("failed to get adapter for %s: %w", sourceSlug, err)
	}

	logger.Info().Str("source", sourceSlug).Msg("Starting discovery")

	files, err := adapter.Discover(context.Background())
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}

	logger.Info().Str("source", sourceSlug).Msgf("Found %d files", len(files))

	switch strings.ToLower(discoverOutput) {
	case "json":
		return outputDiscoverJSON(files)
	case "table":
		outputDiscoverTable(sourceSlug, files)
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", discoverOutput)
	}

	return nil
}

func outputDiscoverTable(sourceSlug string, files []sources.DiscoveredFile) {
	if len(files) == 0 {
		fmt.Printf("No files discovered for source: %s\n", sourceSlug)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "FILENAME\tTYPE\tURL")
	fmt.Fprintln(w, "--------\t----\t---")

	for _, f := range files {
		fmt.Fprintf(w, "%s\t%s\t%s\n", f.Filename, f.Type, f.URL)
	}

	w.Flush()
}

func outputDiscoverJSON(files []sources.DiscoveredFile) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(files)
}
