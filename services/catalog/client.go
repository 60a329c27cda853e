package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const maxErrorBody = 64 << 10

// Client performs GET requests against the upstream catalog API. It never
// retries; every failure is surfaced to the caller as is.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient builds a client for baseURL. A nil httpc gets a client with the
// given timeout.
func NewClient(baseURL string, timeout time.Duration, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// BaseURL returns the upstream root, without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// get fetches endpoint and returns the unwrapped payload.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (json.RawMessage, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build upstream request")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		log.Printf("[catalog] GET %s failed after %s: %v", endpoint, time.Since(start).Round(time.Millisecond), err)
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Printf("[catalog] GET %s -> %d", endpoint, resp.StatusCode)
		return nil, newStatusError(resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Status: resp.StatusCode, Err: errors.Wrap(err, "read upstream body")}
	}

	// Some deployments answer 200 with an error status in the body.
	var status struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &status) == nil && status.Status >= 400 {
		log.Printf("[catalog] GET %s -> 200 with embedded status %d", endpoint, status.Status)
		return nil, newStatusError(status.Status, body)
	}

	data, err := unwrapData(body)
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "invalid upstream response", Err: err}
	}
	return data, nil
}

func newStatusError(status int, body []byte) *UpstreamError {
	ue := &UpstreamError{Status: status}
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	trimmed := bytes.TrimSpace(body)
	if json.Valid(trimmed) && len(trimmed) > 0 {
		ue.Details = json.RawMessage(trimmed)
		if json.Unmarshal(trimmed, &parsed) == nil {
			ue.Message = parsed.Message
			if ue.Message == "" {
				ue.Message = parsed.Error
			}
		}
	}
	if ue.Message == "" {
		ue.Message = http.StatusText(status)
	}
	return ue
}

// unwrapData strips the upstream envelope. Bodies come as {status, data: X},
// as {data: {data: X}} or as a bare X.
func unwrapData(body []byte) (json.RawMessage, error) {
	raw := json.RawMessage(bytes.TrimSpace(body))
	if len(raw) == 0 {
		return nil, errors.New("empty upstream body")
	}
	if !json.Valid(raw) {
		return nil, errors.New("upstream body is not json")
	}
	for depth := 0; depth < 2; depth++ {
		if raw[0] != '{' {
			break
		}
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, errors.Wrap(err, "decode upstream envelope")
		}
		if len(env.Data) == 0 {
			break
		}
		raw = bytes.TrimSpace(env.Data)
	}
	return raw, nil
}

// isEmpty reports payloads that carry no entity: null, {} or [].
func isEmpty(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]":
		return true
	}
	return false
}
