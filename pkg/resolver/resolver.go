// Package resolver composes entity search and geocoding into the toponym
// resolution service. Both upstream calls are memoized: a toponym's top-1
// entity and an entity's coordinate are each fetched at most once per cache
// lifetime, regardless of how many occurrences or callers ask.
package resolver

import (
	"context"
	"fmt"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/cache"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.Resolver = &Service{}

// Service resolves toponyms to entity references and coordinates.
type Service struct {
	searcher  models.EntitySearcher
	geocoder  models.Geocoder
	resources cache.Cache[string]
	coords    cache.Cache[*models.Coordinate]
}

// NewService builds a resolution service over the given searcher and
// geocoder. The caches are passed in rather than created here so the caller
// controls their lifetime: per run, per process, or persistent.
func NewService(
	searcher models.EntitySearcher,
	geocoder models.Geocoder,
	resources cache.Cache[string],
	coords cache.Cache[*models.Coordinate],
) *Service {
	return &Service{
		searcher:  searcher,
		geocoder:  geocoder,
		resources: resources,
		coords:    coords,
	}
}

// NewInMemoryService is a convenience for the common case of caches scoped
// to the service's own lifetime.
func NewInMemoryService(searcher models.EntitySearcher, geocoder models.Geocoder) *Service {
	return NewService(
		searcher,
		geocoder,
		cache.NewMemory[string](),
		cache.NewMemory[*models.Coordinate](),
	)
}

// Resolve maps a toponym to its top-1 entity and that entity's coordinate.
// It returns nil when the entity search knows no match; a Resolution with a
// nil Coordinate when the entity cannot be geocoded. There is no fallback to
// lower-ranked candidates.
func (s *Service) Resolve(ctx context.Context, toponym string) (*models.Resolution, error) {
	resource, err := s.resources.GetOrCompute(ctx, toponym, func(ctx context.Context) (string, error) {
		candidate, err := s.searcher.Top1(ctx, toponym)
		if err != nil {
			return "", err
		}
		if candidate == nil {
			// "No such entity" is a successful answer and is cached
			// as the empty reference.
			return "", nil
		}
		return candidate.Resource, nil
	})
	if err != nil {
		return nil, fmt.Errorf("entity lookup for %q failed: %w", toponym, err)
	}

	if resource == "" {
		log.Debugf("resolve %q => no entity", toponym)
		return nil, nil
	}

	coord, err := s.coords.GetOrCompute(ctx, resource, func(ctx context.Context) (*models.Coordinate, error) {
		return s.geocoder.Geocode(ctx, resource)
	})
	if err != nil {
		return nil, fmt.Errorf("geocoding of %s failed: %w", resource, err)
	}

	if coord == nil {
		log.Debugf("resolve %q => %s => no coordinate", toponym, resource)
	} else {
		log.Debugf("resolve %q => %s => %s", toponym, resource, coord)
	}

	return &models.Resolution{
		Toponym:    toponym,
		Resource:   resource,
		Coordinate: coord,
	}, nil
}
