package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roamly/trip-service/internal/planner"
)

var (
	planStart  string
	planSeed   int64
	planStrict bool
)

// planStopInput is one stop of a plan input file
type planStopInput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Lat          float64  `json:"lat"`
	Lng          float64  `json:"lng"`
	Anchor       bool     `json:"anchor"`
	DwellMinutes int      `json:"dwellMinutes"`
	WindowStart  *string  `json:"windowStart,omitempty"` // HH:MM
	WindowEnd    *string  `json:"windowEnd,omitempty"`   // HH:MM
	Rating       *float64 `json:"rating,omitempty"`
	CostIndex    *float64 `json:"costIndex,omitempty"`
}

// planInput is the plan input file format
type planInput struct {
	Stops   []planStopInput            `json:"stops"`
	Weights planner.PreferenceWeights  `json:"weights"`
}

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan <stops.json>",
	Short: "Order a set of stops into an itinerary",
	Long: `Read a JSON file describing trip stops and produce an ordered itinerary.
Small stop sets are solved exactly; larger ones use simulated annealing with
the given seed for reproducible orderings.

The input file holds a "stops" array and an optional "weights" object.`,
	Example: `  trip-service plan day-trip.json
  trip-service plan day-trip.json --start 2026-09-05T09:00 --seed 42`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planStart, "start", "", "Itinerary start time (format: 2006-01-02T15:04, defaults to now)")
	planCmd.Flags().Int64Var(&planSeed, "seed", 0, "Seed for the annealing solver")
	planCmd.Flags().BoolVar(&planStrict, "strict", false, "Fail instead of degrading when windows cannot be met")
}

func runPlan(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read plan file: %w", err)
	}

	var input planInput
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("failed to parse plan file: %w", err)
	}

	startTime := time.Now()
	if planStart != "" {
		startTime, err = time.ParseInLocation("2006-01-02T15:04", planStart, time.Local)
		if err != nil {
			return fmt.Errorf("invalid start time: %w", err)
		}
	}

	stops := make([]planner.Stop, len(input.Stops))
	for i, s := range input.Stops {
		window, err := parseWindow(s.WindowStart, s.WindowEnd, startTime)
		if err != nil {
			return fmt.Errorf("stop %q: %w", s.Name, err)
		}
		stops[i] = planner.Stop{
			ID:        s.ID,
			Name:      s.Name,
			Lat:       s.Lat,
			Lng:       s.Lng,
			Anchor:    s.Anchor,
			Window:    window,
			Dwell:     time.Duration(s.DwellMinutes) * time.Minute,
			Rating:    s.Rating,
			CostIndex: s.CostIndex,
		}
	}

	var plannerCfg *planner.Config
	if cfg != nil {
		plannerCfg = &cfg.Planner
	}
	p := planner.New(plannerCfg)

	route, err := p.OptimizeRoute(context.Background(), stops, planner.RouteOptions{
		StartTime: startTime,
		Weights:   input.Weights,
		Seed:      planSeed,
		Strict:    planStrict,
	})
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	outputRouteTable(route)
	return nil
}

func parseWindow(start, end *string, day time.Time) (*planner.TimeWindow, error) {
	if start == nil || end == nil {
		return nil, nil
	}
	openAt, err := time.ParseInLocation("15:04", *start, day.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid window start %q", *start)
	}
	closeAt, err := time.ParseInLocation("15:04", *end, day.Location())
	if err != nil {
		return nil, fmt.Errorf("invalid window end %q", *end)
	}
	base := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return &planner.TimeWindow{
		Start: base.Add(time.Duration(openAt.Hour())*time.Hour + time.Duration(openAt.Minute())*time.Minute),
		End:   base.Add(time.Duration(closeAt.Hour())*time.Hour + time.Duration(closeAt.Minute())*time.Minute),
	}, nil
}

func outputRouteTable(route planner.Route) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tSTOP\tARRIVAL\tDEPARTURE\tTRAVEL KM\tLATE BY")
	fmt.Fprintln(w, "-\t----\t-------\t---------\t---------\t-------")

	for i, s := range route.Stops {
		lateBy := "-"
		if s.WindowViolation > 0 {
			lateBy = s.WindowViolation.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%.1f\t%s\n",
			i+1, s.Name,
			s.Arrival.Format("15:04"), s.Departure.Format("15:04"),
			s.TravelKm, lateBy)
	}

	w.Flush()

	fmt.Printf("\nSolver: %s  Objective: %.3f  Total: %.1f km  Feasible: %v\n",
		route.Solver, route.Objective, route.TotalKm, route.Feasible)
}
