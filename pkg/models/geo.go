package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Coordinate is a WGS84 latitude/longitude pair. A missing coordinate is
// represented by a nil *Coordinate, never by a zero value: (0.0, 0.0) is a
// legitimate reading at the equator/prime meridian intersection.
type Coordinate struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%f, %f)", c.Lat, c.Long)
}

// EntityCandidate is a single result of an entity search. Rank is implicit in
// the position within the returned slice.
type EntityCandidate struct {
	// Resource is an opaque entity reference (URI) in the knowledge base.
	Resource string `json:"resource"`
	Label    string `json:"label,omitempty"`
}

// Resolution is the outcome of resolving one toponym. Resource is always set;
// Coordinate is nil when the entity carries no geocodable position.
type Resolution struct {
	Toponym    string      `json:"toponym"`
	Resource   string      `json:"resource"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
}

// Resolved reports whether both the entity reference and the coordinate are
// present.
func (r *Resolution) Resolved() bool {
	return r != nil && r.Resource != "" && r.Coordinate != nil
}

// AggregateRow is one line of the ranked toponym table. Rows are only built
// for fully resolved toponyms.
type AggregateRow struct {
	Toponym    string     `json:"toponym"`
	Count      int        `json:"count"`
	Resource   string     `json:"resource"`
	Coordinate Coordinate `json:"coordinate"`
}

// PipelineResult carries both outputs of a pipeline run: the per-occurrence
// coordinate list (duplicates retained, for density rendering) and the
// deduplicated count-ranked table.
type PipelineResult struct {
	RunID       uuid.UUID      `json:"run_id"`
	Coordinates []Coordinate   `json:"coordinates"`
	Table       []AggregateRow `json:"table"`
}
