// Package sparql implements the coordinate resolver: a structured query
// against a DBpedia SPARQL endpoint extracting the WGS84 latitude/longitude
// attached to an entity reference.
package sparql

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.Geocoder = &Client{}

// The entity URI is substituted for %s. The query stays fixed otherwise.
const geoQueryTemplate = `PREFIX geo: <http://www.w3.org/2003/01/geo/wgs84_pos#> SELECT ?lat ?long WHERE {<%s> (geo:lat) ?lat ; (geo:long) ?long. }`

// Client geocodes entity references through a SPARQL endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

type sparqlValue struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []map[string]sparqlValue `json:"bindings"`
	} `json:"results"`
}

// Geocode queries the latitude/longitude attributes of the given entity
// reference. It returns nil when the endpoint has no coordinates for the
// entity; absence is decided by the presence of the fields in the first
// binding, never by the parsed numeric value, so a legitimate (0.0, 0.0)
// reading survives. Transport and HTTP failures are returned as errors.
func (c *Client) Geocode(ctx context.Context, resource string) (*models.Coordinate, error) {
	if resource == "" {
		return nil, models.NewBadRequestError("entity reference must not be empty")
	}
	// The URI is interpolated into the query verbatim; refuse anything
	// that could escape the angle brackets.
	if strings.ContainsAny(resource, "<> \t\n") {
		return nil, models.NewBadRequestError("entity reference contains invalid characters")
	}

	query := fmt.Sprintf(geoQueryTemplate, resource)

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.endpoint,
		strings.NewReader(query),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read sparql response: %w", err)
	}

	var parsed sparqlResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sparql response: %w", err)
	}

	if len(parsed.Results.Bindings) == 0 {
		return nil, nil
	}

	binding := parsed.Results.Bindings[0]
	latValue, latOK := binding["lat"]
	longValue, longOK := binding["long"]
	if !latOK || !longOK {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latValue.Value, 64)
	if err != nil {
		log.Warnf("sparql: unparseable latitude %q for %s", latValue.Value, resource)
		return nil, nil
	}
	long, err := strconv.ParseFloat(longValue.Value, 64)
	if err != nil {
		log.Warnf("sparql: unparseable longitude %q for %s", longValue.Value, resource)
		return nil, nil
	}

	return &models.Coordinate{Lat: lat, Long: long}, nil
}
