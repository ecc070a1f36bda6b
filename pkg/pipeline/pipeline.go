// Package pipeline orchestrates the full run: entity extraction, toponym
// resolution and aggregation. Failures are isolated per toponym; a toponym
// that cannot be resolved drops out of the outputs without aborting the
// batch.
package pipeline

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.PipelineRunner = &Pipeline{}

// Pipeline wires the resolution service into the two-output run contract.
type Pipeline struct {
	resolver models.Resolver
	workers  int
}

// New creates a Pipeline. workers bounds the resolution fan-out; values
// below 1 mean sequential resolution.
func New(resolver models.Resolver, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		resolver: resolver,
		workers:  workers,
	}
}

// Run extracts location mentions from text and produces the per-occurrence
// coordinate list and the count-ranked aggregate table. Both outputs derive
// from the same occurrence list; the coordinate list keeps one entry per
// mention for density weighting while the table deduplicates. The shared
// cache guarantees no entity is looked up twice between the two.
func (p *Pipeline) Run(
	ctx context.Context,
	text string,
	extractor models.Extractor,
) (*models.PipelineResult, error) {
	entities, err := extractor.Extract(ctx, text)
	if err != nil {
		return nil, err
	}

	occurrences := locationOccurrences(entities)
	log.Infof("pipeline: %d location mentions, %d distinct toponyms",
		len(occurrences), len(distinct(occurrences)))

	resolutions := p.resolveAll(ctx, distinct(occurrences))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	coordinates := make([]models.Coordinate, 0, len(occurrences))
	for _, toponym := range occurrences {
		if res := resolutions[toponym]; res.Resolved() {
			coordinates = append(coordinates, *res.Coordinate)
		}
	}

	// The table is derived independently from the same occurrence list;
	// the shared cache makes the second pass free of network calls.
	table, err := p.Aggregate(ctx, occurrences)
	if err != nil {
		return nil, err
	}

	return &models.PipelineResult{
		RunID:       uuid.New(),
		Coordinates: coordinates,
		Table:       table,
	}, nil
}

// Aggregate deduplicates the occurrence list with counts, resolves each
// distinct toponym once and returns only fully resolved rows, sorted by
// descending occurrence count. Empty input yields an empty table.
func (p *Pipeline) Aggregate(ctx context.Context, occurrences []string) ([]models.AggregateRow, error) {
	resolutions := p.resolveAll(ctx, distinct(occurrences))
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return buildTable(occurrences, resolutions), nil
}

// locationOccurrences flattens entity spans into one toponym occurrence per
// location mention, in document order of the extractor output.
func locationOccurrences(entities []models.Entity) []string {
	var occurrences []string
	for _, entity := range entities {
		if entity.Label != models.LocationLabel {
			continue
		}
		if len(entity.Matches) == 0 {
			occurrences = append(occurrences, entity.Name)
			continue
		}
		for range entity.Matches {
			occurrences = append(occurrences, entity.Name)
		}
	}
	return occurrences
}

// distinct returns the unique toponyms in first-appearance order.
func distinct(occurrences []string) []string {
	seen := make(map[string]struct{}, len(occurrences))
	var toponyms []string
	for _, toponym := range occurrences {
		if _, ok := seen[toponym]; ok {
			continue
		}
		seen[toponym] = struct{}{}
		toponyms = append(toponyms, toponym)
	}
	return toponyms
}

// resolveAll fans the resolution of independent toponyms out over the worker
// budget. Per-toponym failures are logged and recorded as unresolved; they
// never cancel the remaining toponyms.
func (p *Pipeline) resolveAll(ctx context.Context, toponyms []string) map[string]*models.Resolution {
	results := make([]*models.Resolution, len(toponyms))

	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, toponym := range toponyms {
		i, toponym := i, toponym
		g.Go(func() error {
			res, err := p.resolver.Resolve(ctx, toponym)
			if err != nil {
				log.Warnf("pipeline: dropping %q: %v", toponym, err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	// Goroutines never return errors; Wait is a pure barrier so the
	// aggregate ordering is only computed once every resolution finished.
	_ = g.Wait()

	resolutions := make(map[string]*models.Resolution, len(toponyms))
	for i, toponym := range toponyms {
		resolutions[toponym] = results[i]
	}
	return resolutions
}

// buildTable counts occurrences per distinct toponym and keeps only fully
// resolved rows, sorted by count descending.
func buildTable(occurrences []string, resolutions map[string]*models.Resolution) []models.AggregateRow {
	counts := make(map[string]int, len(occurrences))
	for _, toponym := range occurrences {
		counts[toponym]++
	}

	rows := make([]models.AggregateRow, 0, len(counts))
	for _, toponym := range distinct(occurrences) {
		res := resolutions[toponym]
		if !res.Resolved() {
			continue
		}
		rows = append(rows, models.AggregateRow{
			Toponym:    toponym,
			Count:      counts[toponym],
			Resource:   res.Resource,
			Coordinate: *res.Coordinate,
		})
	}

	// Stable sort: equal counts keep their first-appearance order, which
	// makes the table deterministic for identical input.
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	return rows
}
