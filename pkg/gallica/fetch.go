// Package gallica fetches a document from the Gallica digital library (or
// any URL serving HTML) and reduces it to plain text suitable for entity
// extraction.
package gallica

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"

	"github.com/geolit/geolit/internal"
	"github.com/geolit/geolit/pkg/models"
)

var log = internal.GetLogger()

var _ models.DocumentFetcher = &Fetcher{}

// Responses are untrusted; cap what we are willing to parse.
const maxBodySize = 10 * 1024 * 1024

// Fetcher downloads documents and extracts their readable text.
type Fetcher struct {
	httpClient *http.Client
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{httpClient: httpClient}
}

// FetchText downloads rawURL and returns its plain-text content. Gallica
// serves a raw-text rendition of a scan under the .texteBrut suffix; the
// suffix is appended when missing. Everything before the first <hr> is the
// Gallica-added header and is discarded.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", models.NewBadRequestError("url must not be empty")
	}
	if !strings.HasSuffix(rawURL, ".texteBrut") {
		rawURL += ".texteBrut"
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", models.NewBadRequestError(fmt.Sprintf("invalid url: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build document request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("document fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	html := string(body)
	if i := strings.Index(html, "<hr"); i >= 0 {
		html = html[i:]
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract document text: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	log.Debugf("fetched %s: %d chars of text", rawURL, len(text))
	return text, nil
}
