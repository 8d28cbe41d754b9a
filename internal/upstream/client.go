package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/userhub/apiserver/config"
	"github.com/userhub/apiserver/types"
)

const defaultTimeout = 10 * time.Second

// ErrNoPayload is returned when the upstream answers successfully without a
// user payload.
var ErrNoPayload = errors.New("upstream returned no payload")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
}

// ErrTooLarge is returned by Download when the body exceeds the limit.
var ErrTooLarge = errors.New("upstream response too large")

// Client talks to the upstream user API and downloads avatar images.
type Client struct {
	httpClient *http.Client
	userURL    string
}

// NewClient constructs a Client from config.
func NewClient(cfg config.UpstreamConfig) (*Client, error) {
	if !strings.Contains(cfg.UserURL, "%d") {
		return nil, errors.New("upstream user url must contain %d")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userURL:    cfg.UserURL,
	}, nil
}

type userEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// GetUser fetches the user with the given id and returns the nested `data`
// payload.
func (c *Client) GetUser(ctx context.Context, id int) (types.Profile, error) {
	url := fmt.Sprintf(c.userURL, id)
	body, err := c.get(ctx, url, 0)
	if err != nil {
		return types.Profile{}, err
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return types.Profile{}, ErrNoPayload
	}

	var env userEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return types.Profile{}, fmt.Errorf("decode upstream user: %w", err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return types.Profile{}, ErrNoPayload
	}

	var profile types.Profile
	if err := json.Unmarshal(env.Data, &profile); err != nil {
		return types.Profile{}, fmt.Errorf("decode upstream user: %w", err)
	}
	return profile, nil
}

// Download fetches url and returns the raw body bytes. A positive limit caps
// the body size.
func (c *Client) Download(ctx context.Context, url string, limit int64) ([]byte, error) {
	return c.get(ctx, url, limit)
}

func (c *Client) get(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if limit <= 0 {
		return io.ReadAll(resp.Body)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
