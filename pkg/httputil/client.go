// Package httputil builds the HTTP clients used for outbound calls to the
// upstream lookup, SPARQL and NER services.
package httputil

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/geolit/geolit/internal"
)

var log = internal.GetLogger()

// NewRetryableHTTPClient returns an HTTP client with the given retryMax and
// per-call timeout. Upstream services are untrusted third parties, so every
// request carries a timeout; retries only re-issue transport-level failures
// and do not change empty-result semantics.
func NewRetryableHTTPClient(retryMax int, timeout time.Duration) *http.Client {
	retryableHTTPClient := retryablehttp.NewClient()
	retryableHTTPClient.RetryMax = retryMax
	retryableHTTPClient.HTTPClient.Timeout = timeout
	retryableHTTPClient.Logger = internal.NewLeveledLogrus(log)
	retryableHTTPClient.Backoff = retryablehttp.DefaultBackoff
	retryableHTTPClient.CheckRetry = retryablehttp.DefaultRetryPolicy

	return retryableHTTPClient.StandardClient()
}
