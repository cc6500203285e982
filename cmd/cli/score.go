package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roamly/trip-service/internal/planner"
)

var scoreTopN int

// scoreCandidateInput is one candidate of a score input file
type scoreCandidateInput struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Categories []string `json:"categories,omitempty"`
	Rating     *float64 `json:"rating,omitempty"`
	CostIndex  *float64 `json:"costIndex,omitempty"`
}

// scoreInput is the score input file format
type scoreInput struct {
	Anchor     *scoreCandidateInput      `json:"anchor,omitempty"`
	Candidates []scoreCandidateInput     `json:"candidates"`
	Weights    planner.PreferenceWeights `json:"weights"`
	Crowd      float64                   `json:"crowdLevel,omitempty"`
	Weather    float64                   `json:"weatherPenalty,omitempty"`
}

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score <candidates.json>",
	Short: "Rank candidate stops by preference-weighted desirability",
	Long: `Read a JSON file of candidate stops and rank them against an optional
anchor using the preference weights from the file.

The input file holds a "candidates" array plus optional "anchor", "weights",
"crowdLevel" and "weatherPenalty" fields.`,
	Example: `  trip-service score candidates.json
  trip-service score candidates.json --top 10`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().IntVar(&scoreTopN, "top", 0, "Show only the N best candidates (0 = all)")
}

func runScore(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read candidates file: %w", err)
	}

	var input scoreInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse candidates file: %w", err)
	}

	var anchor *planner.Anchor
	if input.Anchor != nil {
		anchor = &planner.Anchor{
			ID:   input.Anchor.ID,
			Name: input.Anchor.Name,
			Lat:  input.Anchor.Lat,
			Lng:  input.Anchor.Lng,
		}
	}

	candidates := make([]planner.CandidateStop, len(input.Candidates))
	byID := make(map[string]string, len(input.Candidates))
	for i, c := range input.Candidates {
		candidates[i] = planner.CandidateStop{
			ID:         c.ID,
			Name:       c.Name,
			Lat:        c.Lat,
			Lng:        c.Lng,
			Categories: c.Categories,
			Rating:     c.Rating,
			CostIndex:  c.CostIndex,
		}
		byID[c.ID] = c.Name
	}

	var plannerCfg *planner.Config
	if cfg != nil {
		plannerCfg = &cfg.Planner
	}
	p := planner.New(plannerCfg)

	scores, err := p.ScoreCandidates(context.Background(), anchor, candidates, input.Weights, planner.Conditions{
		Now:            time.Now(),
		CrowdLevel:     input.Crowd,
		WeatherPenalty: input.Weather,
	})
	if err != nil {
		return fmt.Errorf("scoring failed: %w", err)
	}

	if scoreTopN > 0 && scoreTopN < len(scores) {
		scores = scores[:scoreTopN]
	}

	outputScoreTable(scores, byID)
	return nil
}

func outputScoreTable(scores []planner.ScoreBreakdown, names map[string]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tCANDIDATE\tTOTAL\tTERMS")
	fmt.Fprintln(w, "-\t---------\t-----\t-----")

	for i, s := range scores {
		terms := make([]string, 0, len(s.Terms))
		for name, value := range s.Terms {
			if value != 0 {
				terms = append(terms, fmt.Sprintf("%s=%.3f", name, value))
			}
		}
		sort.Strings(terms)

		total := fmt.Sprintf("%.3f", s.Total)
		if s.Degenerate {
			total = "degenerate"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\n", i+1, names[s.CandidateID], total, terms)
	}

	w.Flush()
}
