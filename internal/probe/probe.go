package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"whatip/internal/logger"
	"whatip/internal/registry"
	"whatip/internal/utils"
	"whatip/internal/version"
)

// maxBodySize bounds how much of a response body is read. The expected
// payload is a single address string.
const maxBodySize = 4 << 10

// Client issues one HTTP GET per service entry and classifies failures.
// It performs no retries; retry policy belongs to the detector.
type Client struct {
	http   *http.Client
	logger logger.Logger
}

// NewClient creates a probe client. Per-call deadlines come from each
// entry's timeout, so the underlying client carries none of its own.
func NewClient(log logger.Logger) *Client {
	return &Client{
		http:   &http.Client{},
		logger: log,
	}
}

// Fetch queries one service and returns the trimmed response body as the
// candidate address. No address validation happens here.
func (c *Client) Fetch(ctx context.Context, entry registry.Entry) (string, error) {
	timeout := entry.Timeout
	if timeout <= 0 {
		timeout = registry.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debug("querying service",
		logger.String("service", entry.Name),
		logger.String("url", entry.URL),
		logger.Duration("timeout", timeout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return "", c.fail(entry.Name, Unclassified, err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.fail(entry.Name, Classify(err), err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.fail(entry.Name, Protocol,
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", c.fail(entry.Name, Classify(err), err)
	}

	addr := strings.TrimSpace(string(body))
	if addr == "" {
		return "", c.fail(entry.Name, Protocol,
			fmt.Errorf("empty response body"))
	}

	c.logger.Debug("service answered",
		logger.String("service", entry.Name),
		logger.String("address", addr))
	return addr, nil
}

func (c *Client) fail(service string, kind Kind, err error) error {
	c.logger.Debug("probe failed",
		logger.String("service", service),
		logger.String("kind", kind.String()),
		logger.Error(err))
	return &Error{Service: service, Kind: kind, Err: err}
}
