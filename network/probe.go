package network

import (
	"context"
	"fmt"
	"net/http"
	"time"

	syncq "github.com/chescoreloaded/SistemaExamenes-sub001"
)

// HTTPProbe returns a probe that sends a HEAD request to url. Any response
// below 500 counts as online. A nil client gets a five second timeout.
func HTTPProbe(client *http.Client, url string) Probe {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return fmt.Errorf("build probe request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %w", syncq.ErrProbeFailed, err)
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s responded %d", syncq.ErrProbeFailed, url, resp.StatusCode)
		}
		return nil
	}
}
