package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// httpRetryAttempts and httpRetryDelay bound the fetch retry loop.
// Upstream boundary-detection services can be slow AI passes, so transient
// failures are expected and retried; persistent failure is the caller's
// problem.
const (
	httpRetryAttempts = 5
	httpRetryDelay    = 2 * time.Second
)

// HTTPSource fetches one batch envelope from an upstream detection
// service endpoint.
type HTTPSource struct {
	name   string
	url    string
	client *http.Client
	delay  time.Duration
}

// NewHTTPSource returns a source fetching the given URL. A nil client
// uses a default with a 30s timeout.
func NewHTTPSource(name, url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{name: name, url: url, client: client, delay: httpRetryDelay}
}

// Name returns the configured source name.
func (s *HTTPSource) Name() string {
	return s.name
}

// Fetch retrieves and decodes the batch, retrying transient failures with
// the run context so cancellation stops the loop.
func (s *HTTPSource) Fetch(ctx context.Context) (*Batch, error) {
	var batch *Batch

	err := retry.Do(
		func() error {
			body, err := s.get(ctx)
			if err != nil {
				return err
			}
			b, err := DecodeBatch(body)
			if err != nil {
				// A malformed envelope will not fix itself.
				return retry.Unrecoverable(err)
			}
			batch = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(httpRetryAttempts),
		retry.Delay(s.delay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch batch %s from %s: %w", s.name, s.url, err)
	}
	return batch, nil
}

func (s *HTTPSource) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
