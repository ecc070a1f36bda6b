// Package spatial turns the per-occurrence coordinate list into a density
// grid for heat-map rendering, using H3 cells as the binning unit.
package spatial

import (
	"fmt"
	"sort"

	"github.com/uber/h3-go/v4"

	"github.com/geolit/geolit/pkg/models"
)

// CellDensity is the weight of one H3 cell: how many location mentions fall
// inside it. Center is the cell centroid, ready for plotting.
type CellDensity struct {
	Cell   string            `json:"cell"`
	Count  int               `json:"count"`
	Center models.Coordinate `json:"center"`
}

// BinCoordinates buckets coordinates into H3 cells at the given resolution
// and returns the cells sorted by descending count, ties by cell identifier.
// Duplicate coordinates are intentional input: each one weighs its cell.
func BinCoordinates(coordinates []models.Coordinate, resolution int) ([]CellDensity, error) {
	counts := make(map[h3.Cell]int)
	for _, coordinate := range coordinates {
		cell, err := h3.LatLngToCell(h3.NewLatLng(coordinate.Lat, coordinate.Long), resolution)
		if err != nil {
			return nil, fmt.Errorf("failed to bin %s at resolution %d: %w",
				coordinate, resolution, err)
		}
		counts[cell]++
	}

	cells := make([]CellDensity, 0, len(counts))
	for cell, count := range counts {
		center, err := h3.CellToLatLng(cell)
		if err != nil {
			return nil, fmt.Errorf("failed to compute centroid of %s: %w", cell, err)
		}
		cells = append(cells, CellDensity{
			Cell:   cell.String(),
			Count:  count,
			Center: models.Coordinate{Lat: center.Lat, Long: center.Lng},
		})
	}

	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Count != cells[j].Count {
			return cells[i].Count > cells[j].Count
		}
		return cells[i].Cell < cells[j].Cell
	})

	return cells, nil
}
