package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/mydehq/mediasort/internal/types"
)

const requestTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// doWithRetry executes an HTTP request with exponential backoff for 429
// and 503 responses. Failures are classified into the provider error
// taxonomy so the resolver can contain them per file.
func doWithRetry(ctx context.Context, client *http.Client, req *http.Request, service string) (*http.Response, error) {
	const maxRetries = 3
	for i := 0; i <= maxRetries; i++ {
		resp, err := client.Do(req.WithContext(ctx))
		if err != nil {
			return nil, classifyTransportError(service, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable {
			_ = resp.Body.Close()
			if i == maxRetries {
				return nil, types.ErrProvider{
					Provider: service,
					Kind:     types.ProviderErrRateLimited,
					Err:      fmt.Errorf("HTTP %d after %d retries", resp.StatusCode, maxRetries),
				}
			}

			// Default wait 2s, or respect Retry-After
			wait := 2 * time.Second
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					wait = time.Duration(seconds) * time.Second
				}
			}

			// Exponential backoff: 2s, 4s, 8s...
			select {
			case <-time.After(wait * time.Duration(1<<i)):
			case <-ctx.Done():
				return nil, classifyTransportError(service, ctx.Err())
			}
			continue
		}

		return resp, nil
	}
	return nil, types.ErrProvider{Provider: service, Kind: types.ProviderErrHTTP, Err: errors.New("request failed after retries")}
}

// getJSON performs a GET against url and decodes the JSON body into v.
// notFoundOK treats a 404 as an empty (nil-error) result, which TVMaze
// uses to signal "no show matched".
func getJSON(ctx context.Context, client *http.Client, service, url string, v any, notFoundOK bool) (found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, types.ErrProvider{Provider: service, Kind: types.ProviderErrHTTP, Err: err}
	}

	resp, err := doWithRetry(ctx, client, req, service)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFoundOK {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, types.ErrProvider{
			Provider: service,
			Kind:     types.ProviderErrHTTP,
			Err:      fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, types.ErrProvider{Provider: service, Kind: types.ProviderErrMalformed, Err: err}
	}
	return true, nil
}

func classifyTransportError(service string, err error) error {
	kind := types.ProviderErrHTTP
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = types.ProviderErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = types.ProviderErrTimeout
	}
	return types.ErrProvider{Provider: service, Kind: kind, Err: err}
}
