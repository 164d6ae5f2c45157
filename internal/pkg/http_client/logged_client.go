package http_client

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LoggedClient logs every request it performs. Secrets passed to
// NewLoggedClient are masked in the logged URLs.
type LoggedClient struct {
	*http.Client
	secrets []string
	logger  *slog.Logger
}

func NewLoggedClient(timeout time.Duration, secrets ...string) *LoggedClient {
	return &LoggedClient{
		Client: &http.Client{
			Timeout: timeout,
		},
		secrets: secrets,
		logger:  slog.Default().With("component", "http"),
	}
}

func (c *LoggedClient) Do(req *http.Request) (*http.Response, error) {
	startTime := time.Now()
	requestID := uuid.NewString()

	resp, err := c.Client.Do(req)

	attrs := []any{
		"id", requestID,
		"method", req.Method,
		"url", c.redact(req.URL.String()),
		"duration_ms", time.Since(startTime).Milliseconds(),
	}

	if err != nil {
		c.logger.Warn("http request failed", append(attrs, "error", c.redact(err.Error()))...)
		return nil, err
	}

	attrs = append(attrs, "status", resp.StatusCode)
	if resp.StatusCode >= http.StatusBadRequest {
		c.logger.Warn("http request", attrs...)
	} else {
		c.logger.Debug("http request", attrs...)
	}
	return resp, nil
}

func (c *LoggedClient) redact(s string) string {
	for _, secret := range c.secrets {
		if secret != "" {
			s = strings.ReplaceAll(s, secret, "<redacted>")
		}
	}
	return s
}
