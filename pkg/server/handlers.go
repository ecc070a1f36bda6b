package server

import (
	"net/http"

	"github.com/geolit/geolit/pkg/models"
	"github.com/geolit/geolit/pkg/spatial"
)

// GeocodeTextRequest asks for a full pipeline run. Exactly one of URL and
// Text must be set; URL wins when both are present.
type GeocodeTextRequest struct {
	URL  string `json:"url,omitempty"`
	Text string `json:"text,omitempty"`
}

// GeocodeTextResponse carries both pipeline outputs plus the H3 density
// cells derived from the coordinate list.
type GeocodeTextResponse struct {
	RunID       string                `json:"run_id"`
	Coordinates []models.Coordinate   `json:"coordinates"`
	Cells       []spatial.CellDensity `json:"cells"`
	Table       []models.AggregateRow `json:"table"`
}

// GeocodeTextHandler runs the extraction/resolution/aggregation pipeline
// over a document URL or raw text.
func GeocodeTextHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request GeocodeTextRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if request.URL == "" && request.Text == "" {
			renderError(w, models.NewBadRequestError("either url or text is required"),
				http.StatusBadRequest)
			return
		}

		text := request.Text
		if request.URL != "" {
			fetched, err := appState.Fetcher.FetchText(r.Context(), request.URL)
			if err != nil {
				renderError(w, err, http.StatusBadGateway)
				return
			}
			text = fetched
		}

		result, err := appState.Pipeline.Run(r.Context(), text, appState.Extractor)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		cells, err := spatial.BinCoordinates(result.Coordinates, appState.Config.Pipeline.H3Resolution)
		if err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}

		response := GeocodeTextResponse{
			RunID:       result.RunID.String(),
			Coordinates: result.Coordinates,
			Cells:       cells,
			Table:       result.Table,
		}
		if err := encodeJSON(w, response); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

type ResolveToponymRequest struct {
	Toponym string `json:"toponym"`
}

// ResolveToponymHandler resolves a single toponym to its entity reference
// and coordinate. Unknown toponyms yield 404.
func ResolveToponymHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request ResolveToponymRequest
		if err := decodeJSON(r, &request); err != nil {
			renderError(w, err, http.StatusBadRequest)
			return
		}
		if request.Toponym == "" {
			renderError(w, models.NewBadRequestError("toponym is required"),
				http.StatusBadRequest)
			return
		}

		resolution, err := appState.Resolver.Resolve(r.Context(), request.Toponym)
		if err != nil {
			renderError(w, err, http.StatusBadGateway)
			return
		}
		if resolution == nil {
			renderError(w, models.NewNotFoundError(request.Toponym), http.StatusNotFound)
			return
		}

		if err := encodeJSON(w, resolution); err != nil {
			renderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
