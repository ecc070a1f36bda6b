// Package lookup implements the entity-search client for a DBpedia Lookup
// endpoint. A full-text query over a toponym returns ranked candidate
// entities; the first-ranked one drives the rest of the resolution chain.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.EntitySearcher = &Client{}

// Client queries a DBpedia Lookup search endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a Lookup client for the given search endpoint, e.g.
// https://fr.dbpedia.org/lookup/api/search.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: httpClient,
	}
}

// The Lookup API returns field-keyed documents whose fields are all string
// arrays, including single-valued ones like resource.
type searchDoc struct {
	Resource []string `json:"resource"`
	Label    []string `json:"label"`
}

type searchResponse struct {
	Docs []searchDoc `json:"docs"`
}

// Lookup runs a full-text entity search for the toponym and returns the
// candidates in service-provided rank order. An empty slice means the service
// knows no matching entity; transport and HTTP errors are returned as errors.
func (c *Client) Lookup(ctx context.Context, toponym string) ([]models.EntityCandidate, error) {
	if toponym == "" {
		return nil, models.NewBadRequestError("toponym must not be empty")
	}

	query := url.Values{}
	query.Set("query", toponym)
	query.Set("format", "JSON")

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.endpoint+"?"+query.Encode(),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("entity lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("entity lookup returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup response: %w", err)
	}

	candidates := make([]models.EntityCandidate, 0, len(parsed.Docs))
	for _, doc := range parsed.Docs {
		if len(doc.Resource) == 0 {
			// Documents without an entity reference are useless
			// downstream.
			continue
		}
		candidate := models.EntityCandidate{Resource: doc.Resource[0]}
		if len(doc.Label) > 0 {
			candidate.Label = doc.Label[0]
		}
		candidates = append(candidates, candidate)
	}

	log.Debugf("entity lookup for %q returned %d candidates", toponym, len(candidates))
	return candidates, nil
}

// Top1 returns the first-ranked candidate for the toponym, or nil when the
// search yields nothing. No confidence check is applied: top-1 disambiguation
// is a deliberate simplification.
func (c *Client) Top1(ctx context.Context, toponym string) (*models.EntityCandidate, error) {
	candidates, err := c.Lookup(ctx, toponym)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return &candidates[0], nil
}
