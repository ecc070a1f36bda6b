// Package extractors adapts the external NER service into the entity
// extraction capability consumed by the pipeline. The pipeline itself never
// depends on this package; it receives the capability as an interface.
package extractors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.Extractor = &NERExtractor{}

// NERExtractor calls an HTTP NER service exposing an /entities endpoint and
// returns the labeled entity spans it finds in a text.
type NERExtractor struct {
	serverURL  string
	language   string
	httpClient *http.Client
}

func NewNERExtractor(serverURL, language string, httpClient *http.Client) *NERExtractor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NERExtractor{
		serverURL:  serverURL,
		language:   language,
		httpClient: httpClient,
	}
}

func (e *NERExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	response, err := e.callNERService(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("entity extraction call failed: %w", err)
	}

	if len(response.Texts) == 0 {
		return nil, nil
	}

	entities := response.Texts[0].Entities
	log.Debugf("NER service returned %d entities", len(entities))
	return entities, nil
}

func (e *NERExtractor) callNERService(ctx context.Context, text string) (models.EntityResponse, error) {
	url := e.serverURL + "/entities"

	requestBody := models.EntityRequest{
		Texts: []models.EntityRequestRecord{
			{
				UUID:     uuid.New().String(),
				Text:     text,
				Language: e.language,
			},
		},
	}
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return models.EntityResponse{}, err
	}

	var response models.EntityResponse

	// Retry the POST to the NER service 3 times with a 1 second delay.
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(
				ctx,
				http.MethodPost,
				url,
				bytes.NewBuffer(jsonBody),
			)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := e.httpClient.Do(req)
			if err != nil {
				log.Error("Error making POST request:", err)
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("NER service returned status %d", resp.StatusCode)
			}

			bodyBytes, err := io.ReadAll(resp.Body)
			if err != nil {
				log.Error("Error reading response body:", err)
				return err
			}

			if err := json.Unmarshal(bodyBytes, &response); err != nil {
				log.Error("Error unmarshaling response body:", err)
				return err
			}
			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.Context(ctx),
	)
	if err != nil {
		return models.EntityResponse{}, err
	}

	return response, nil
}
