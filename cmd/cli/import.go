package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roamly/trip-service/internal/pipeline"
	"github.com/roamly/trip-service/internal/sources"
)

var importAll bool

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <source>",
	Short: "Run the full import flow for a source",
	Long: `Run the complete import flow (discover, fetch, parse, persist) for an
open-data source. The flow discovers available dataset files, downloads them,
parses the content, and upserts the normalized points of interest into the
catalog. Files whose checksum matches a previously completed run are skipped.

Use --all to import every source at once.`,
	Example: `  trip-service import zagreb
  trip-service import --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runImportCmd,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().BoolVar(&importAll, "all", false, "Import all sources")
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	var slugs []string
	if importAll {
		slugs = sources.ValidSources()
		logger.Info().Msgf("Importing all %d sources", len(slugs))
	} else {
		if len(args) == 0 {
			return fmt.Errorf("either specify <source> or use --all flag")
		}
		slug := args[0]
		if !sources.IsValidSource(slug) {
			return fmt.Errorf("invalid source: %s\nValid sources: %s", slug, strings.Join(sources.ValidSources(), ", "))
		}
		slugs = []string{slug}
	}

	if err := sources.InitializeDefaultAdapters(); err != nil {
		return fmt.Errorf("failed to initialize source registry: %w", err)
	}

	runner := pipeline.NewRunner()
	results := make([]*pipeline.RunResult, 0, len(slugs))
	failed := 0

	for _, slug := range slugs {
		result, err := runner.RunImport(ctx, slug, "cli")
		if err != nil {
			logger.Error().Err(err).Str("source", slug).Msg("Import failed to start")
			failed++
			continue
		}
		results = append(results, result)
		if len(result.Errors) > 0 {
			failed++
		}
	}

	outputImportSummary(results)

	if failed > 0 {
		return fmt.Errorf("%d of %d imports finished with errors", failed, len(slugs))
	}
	return nil
}

func outputImportSummary(results []*pipeline.RunResult) {
	if len(results) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tRUN\tSTATUS\tFILES\tSKIPPED\tROWS\tERRORS")
	fmt.Fprintln(w, "------\t---\t------\t-----\t-------\t----\t------")

	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.Run.SourceSlug, r.Run.ID, r.Run.Status,
			r.FilesTotal, r.FilesSkipped, r.RowsImported, len(r.Errors))
	}

	w.Flush()
}
