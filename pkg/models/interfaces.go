package models

import "context"

// Extractor is the injected entity-extraction capability. The pipeline only
// consumes spans labeled as location mentions; the extraction technology
// behind the interface is irrelevant to it.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
}

// ExtractorFunc adapts a plain function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, text string) ([]Entity, error)

func (f ExtractorFunc) Extract(ctx context.Context, text string) ([]Entity, error) {
	return f(ctx, text)
}

// EntitySearcher queries a full-text entity search service.
type EntitySearcher interface {
	// Lookup returns candidates in service-provided rank order. An empty
	// slice means no known entity; transport failures return an error.
	Lookup(ctx context.Context, toponym string) ([]EntityCandidate, error)
	// Top1 returns the first-ranked candidate, or nil when there is none.
	Top1(ctx context.Context, toponym string) (*EntityCandidate, error)
}

// Geocoder resolves an entity reference to a coordinate.
type Geocoder interface {
	// Geocode returns nil when the entity carries no latitude/longitude
	// attributes. Transport failures return an error, never nil.
	Geocode(ctx context.Context, resource string) (*Coordinate, error)
}

// Resolver composes entity search and geocoding behind the lookup cache.
type Resolver interface {
	// Resolve returns nil when the toponym matches no known entity. A
	// non-nil Resolution with a nil Coordinate means the entity exists but
	// could not be geocoded.
	Resolve(ctx context.Context, toponym string) (*Resolution, error)
}

// DocumentFetcher retrieves a document and reduces it to plain text.
type DocumentFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// PipelineRunner is the core's exported contract, consumed by the HTTP API
// and the CLI.
type PipelineRunner interface {
	Run(ctx context.Context, text string, extractor Extractor) (*PipelineResult, error)
	Aggregate(ctx context.Context, occurrences []string) ([]AggregateRow, error)
}
