package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/geolit/geolit/pkg/models"
)

// APIError represents an error response body.
type APIError struct {
	Message string `json:"message"`
}

// encodeJSON encodes data into JSON and writes it to the response writer.
func encodeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON decodes a JSON request body into the provided data struct.
func decodeJSON(r *http.Request, data interface{}) error {
	return json.NewDecoder(r.Body).Decode(&data)
}

// renderError renders an error response, mapping the model error taxonomy to
// HTTP status codes.
func renderError(w http.ResponseWriter, err error, status int) {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	}
	if status != http.StatusNotFound {
		// Don't log not found errors
		log.Error(err)
	}
	http.Error(w, err.Error(), status)
}
