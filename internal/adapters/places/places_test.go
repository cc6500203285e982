package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "zagreb cathedral", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name":"Zagrebačka katedrala, Kaptol, Zagreb, Croatia","lat":"45.8144","lon":"15.9790","class":"amenity","type":"place_of_worship"},
			{"display_name":"Broken Coordinates","lat":"not-a-number","lon":"15.0","class":"amenity","type":"museum"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, MaxResults: 10})

	results, err := client.Search(context.Background(), "zagreb cathedral", 5)
	require.NoError(t, err)
	require.Len(t, results, 1, "Unparseable coordinates should be skipped")

	assert.Equal(t, "Zagrebačka katedrala", results[0].Name)
	assert.InDelta(t, 45.8144, results[0].Lat, 1e-9)
	assert.InDelta(t, 15.9790, results[0].Lng, 1e-9)
	assert.Equal(t, "place_of_worship", results[0].Category)
}

func TestSearchEmptyQuery(t *testing.T) {
	client := NewClient(nil)

	_, err := client.Search(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestToCandidate(t *testing.T) {
	place := Place{Name: "Dolac", Lat: 45.8147, Lng: 15.9770, Category: "marketplace"}

	cand := ToCandidate(place)
	assert.Equal(t, "Dolac", cand.Name)
	assert.Equal(t, []string{"marketplace"}, cand.Categories)
	assert.Nil(t, cand.Rating, "Remote results carry no rating; planner defaults apply")
	assert.Nil(t, cand.CostIndex)

	// No category stays nil rather than an empty label
	cand = ToCandidate(Place{Name: "X", Lat: 1, Lng: 2})
	assert.Nil(t, cand.Categories)
}
