package discovery

import "sort"

// CachedPOI is the in-memory form of a catalog entry, trimmed to the fields
// the planner and search endpoints read.
type CachedPOI struct {
	ID           string
	ExternalID   string
	Name         string
	Categories   []string
	Lat          float64
	Lng          float64
	Rating       *float64
	CostIndex    *float64
	OpeningHours string
}

// POIWithDistance pairs a cached entry with its distance from a query point.
type POIWithDistance struct {
	POI        CachedPOI
	DistanceKm float64
}

// CacheFreshness describes the state of one source's snapshot.
type CacheFreshness struct {
	LoadedAt    int64
	IsStale     bool
	EstimatedMB int64
	POICount    int
}

// SortByDistance orders results nearest first. The sort is stable so entries
// at the same distance keep their snapshot order.
func SortByDistance(results []POIWithDistance) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
}
