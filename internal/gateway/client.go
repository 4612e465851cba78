package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"
)

const maxResponseBody = 32 << 20

// forwardedHeaders are copied from the client request to the server.
var forwardedHeaders = []string{
	models.HeaderUserID,
	"Content-Type",
	"Accept",
}

// relayedHeaders are copied from the server response back to the client.
var relayedHeaders = []string{
	"Content-Type",
	"Content-Disposition",
}

// upstreamResponse is a fully read server reply.
type upstreamResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// serverClient calls the business server on behalf of validated requests.
type serverClient struct {
	baseURL string
	http    *http.Client
	auth    config.APIAuthConfig
}

func newServerClient(baseURL string, timeout time.Duration, auth config.APIAuthConfig) *serverClient {
	return &serverClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		auth:    auth,
	}
}

// Forward replays r against the server with body and returns its reply.
func (c *serverClient) Forward(ctx context.Context, r *http.Request, body []byte, requestID string) (*upstreamResponse, error) {
	target := c.baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}
	if c.auth.Enabled {
		req.Header.Set(headerOr(c.auth.HeaderAPIKey, "X-API-Key"), c.auth.Key)
		if c.auth.Extra != "" {
			req.Header.Set(headerOr(c.auth.HeaderExtra, "X-API-Extra"), c.auth.Extra)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read server response: %w", err)
	}

	header := make(http.Header)
	for _, name := range relayedHeaders {
		if v := resp.Header.Get(name); v != "" {
			header.Set(name, v)
		}
	}
	return &upstreamResponse{Status: resp.StatusCode, Header: header, Body: data}, nil
}

// Ping checks the server health endpoint.
func (c *serverClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server health returned %d", resp.StatusCode)
	}
	return nil
}

func headerOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
