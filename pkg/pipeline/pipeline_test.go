package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geolit/geolit/pkg/models"
	"github.com/geolit/geolit/pkg/resolver"
)

var (
	parisURI = "http://fr.dbpedia.org/resource/Paris"
	lyonURI  = "http://fr.dbpedia.org/resource/Lyon"

	parisCoord = models.Coordinate{Lat: 48.8566, Long: 2.3522}
	lyonCoord  = models.Coordinate{Lat: 45.76, Long: 4.84}
)

// countingSearcher and countingGeocoder drive the resolution service from
// in-memory fixtures while counting upstream calls.
type countingSearcher struct {
	mu         sync.Mutex
	candidates map[string]string
	failures   map[string]error
	calls      int
}

func (f *countingSearcher) Lookup(_ context.Context, toponym string) ([]models.EntityCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failures[toponym]; err != nil {
		return nil, err
	}
	resource, ok := f.candidates[toponym]
	if !ok {
		return nil, nil
	}
	return []models.EntityCandidate{{Resource: resource}}, nil
}

func (f *countingSearcher) Top1(ctx context.Context, toponym string) (*models.EntityCandidate, error) {
	candidates, err := f.Lookup(ctx, toponym)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}

type countingGeocoder struct {
	mu       sync.Mutex
	coords   map[string]*models.Coordinate
	failures map[string]error
	calls    int
}

func (f *countingGeocoder) Geocode(_ context.Context, resource string) (*models.Coordinate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failures[resource]; err != nil {
		return nil, err
	}
	return f.coords[resource], nil
}

func newFixturePipeline(workers int) (*Pipeline, *countingSearcher, *countingGeocoder) {
	searcher := &countingSearcher{
		candidates: map[string]string{"Paris": parisURI, "Lyon": lyonURI},
		failures:   map[string]error{},
	}
	geocoder := &countingGeocoder{
		coords: map[string]*models.Coordinate{
			parisURI: &parisCoord,
			lyonURI:  &lyonCoord,
		},
		failures: map[string]error{},
	}
	svc := resolver.NewInMemoryService(searcher, geocoder)
	return New(svc, workers), searcher, geocoder
}

// staticExtractor emits one LOC entity per listed toponym, with one match
// per mention.
func staticExtractor(toponyms ...string) models.Extractor {
	return models.ExtractorFunc(func(_ context.Context, _ string) ([]models.Entity, error) {
		counts := map[string]int{}
		var order []string
		for _, toponym := range toponyms {
			if counts[toponym] == 0 {
				order = append(order, toponym)
			}
			counts[toponym]++
		}
		var entities []models.Entity
		for _, name := range order {
			matches := make([]models.EntityMatch, counts[name])
			for i := range matches {
				matches[i] = models.EntityMatch{Text: name}
			}
			entities = append(entities, models.Entity{
				Name:    name,
				Label:   models.LocationLabel,
				Matches: matches,
			})
		}
		return entities, nil
	})
}

func TestAggregateRanking(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	rows, err := p.Aggregate(context.Background(),
		[]string{"Paris", "Paris", "Lyon", "Paris", "Lyon"})
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Paris", rows[0].Toponym)
	assert.Equal(t, 3, rows[0].Count)
	assert.Equal(t, parisURI, rows[0].Resource)
	assert.Equal(t, parisCoord, rows[0].Coordinate)
	assert.Equal(t, "Lyon", rows[1].Toponym)
	assert.Equal(t, 2, rows[1].Count)
}

func TestAggregateUnresolvableYieldsEmptyTable(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	rows, err := p.Aggregate(context.Background(), []string{"Atlantide"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregateEmptyInput(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	rows, err := p.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAggregateResolvesDistinctToponymsOnce(t *testing.T) {
	p, searcher, geocoder := newFixturePipeline(4)

	_, err := p.Aggregate(context.Background(),
		[]string{"Paris", "Paris", "Lyon", "Paris", "Lyon"})
	require.NoError(t, err)

	assert.Equal(t, 2, searcher.calls)
	assert.Equal(t, 2, geocoder.calls)
}

func TestAggregateTieBreakIsDeterministic(t *testing.T) {
	p, _, _ := newFixturePipeline(4)

	for i := 0; i < 5; i++ {
		rows, err := p.Aggregate(context.Background(), []string{"Lyon", "Paris"})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Lyon", rows[0].Toponym, "equal counts keep first-appearance order")
		assert.Equal(t, "Paris", rows[1].Toponym)
	}
}

func TestAggregateIsolatesFailures(t *testing.T) {
	p, _, geocoder := newFixturePipeline(2)
	geocoder.failures[lyonURI] = errors.New("bad gateway")

	rows, err := p.Aggregate(context.Background(), []string{"Lyon", "Paris", "Lyon"})
	require.NoError(t, err, "one toponym's failure must not abort the batch")

	require.Len(t, rows, 1)
	assert.Equal(t, "Paris", rows[0].Toponym)
}

func TestRun(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	result, err := p.Run(context.Background(), "ignored",
		staticExtractor("Paris", "Paris", "Lyon", "Paris", "Lyon"))
	require.NoError(t, err)

	// The coordinate list keeps one entry per mention for density
	// weighting.
	assert.Equal(t, []models.Coordinate{
		parisCoord, parisCoord, parisCoord, lyonCoord, lyonCoord,
	}, result.Coordinates)

	require.Len(t, result.Table, 2)
	assert.Equal(t, "Paris", result.Table[0].Toponym)
	assert.Equal(t, 3, result.Table[0].Count)
	assert.Equal(t, "Lyon", result.Table[1].Toponym)
	assert.Equal(t, 2, result.Table[1].Count)
}

func TestRunFiltersNonLocationSpans(t *testing.T) {
	p, searcher, _ := newFixturePipeline(1)

	extractor := models.ExtractorFunc(func(_ context.Context, _ string) ([]models.Entity, error) {
		return []models.Entity{
			{Name: "Victor Hugo", Label: "PER", Matches: []models.EntityMatch{{Text: "Victor Hugo"}}},
			{Name: "Paris", Label: "LOC", Matches: []models.EntityMatch{{Text: "Paris"}}},
		}, nil
	})

	result, err := p.Run(context.Background(), "ignored", extractor)
	require.NoError(t, err)

	require.Len(t, result.Table, 1)
	assert.Equal(t, "Paris", result.Table[0].Toponym)
	assert.Equal(t, 1, searcher.calls, "non-LOC spans must not be resolved")
}

func TestRunUnresolvableToponymDropsFromBothOutputs(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	result, err := p.Run(context.Background(), "ignored", staticExtractor("Atlantide"))
	require.NoError(t, err)
	assert.Empty(t, result.Coordinates)
	assert.Empty(t, result.Table)
}

func TestRunExtractorFailureIsFatal(t *testing.T) {
	p, _, _ := newFixturePipeline(1)

	failing := models.ExtractorFunc(func(_ context.Context, _ string) ([]models.Entity, error) {
		return nil, errors.New("ner service unreachable")
	})

	_, err := p.Run(context.Background(), "ignored", failing)
	assert.Error(t, err)
}

func TestRunIdempotentWithSingleUpstreamCall(t *testing.T) {
	p, searcher, geocoder := newFixturePipeline(4)
	extractor := staticExtractor("Paris", "Lyon", "Paris")

	first, err := p.Run(context.Background(), "ignored", extractor)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), "ignored", extractor)
	require.NoError(t, err)

	assert.Equal(t, first.Coordinates, second.Coordinates)
	assert.Equal(t, first.Table, second.Table)
	assert.Equal(t, 2, searcher.calls, "second run must be served from cache")
	assert.Equal(t, 2, geocoder.calls)
}

func TestRunConcurrentFanOut(t *testing.T) {
	// A large batch across several workers still resolves each distinct
	// toponym exactly once and produces a fully ordered table.
	p, searcher, _ := newFixturePipeline(8)

	var occurrences []string
	for i := 0; i < 30; i++ {
		occurrences = append(occurrences, "Paris")
	}
	for i := 0; i < 20; i++ {
		occurrences = append(occurrences, "Lyon")
	}
	for i := 0; i < 10; i++ {
		occurrences = append(occurrences, "Atlantide")
	}

	result, err := p.Run(context.Background(), "ignored", staticExtractor(occurrences...))
	require.NoError(t, err)

	assert.Len(t, result.Coordinates, 50)
	require.Len(t, result.Table, 2)
	assert.Equal(t, 30, result.Table[0].Count)
	assert.Equal(t, 20, result.Table[1].Count)
	assert.Equal(t, 3, searcher.calls)
}
