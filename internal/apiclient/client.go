package apiclient

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

	"github.com/dockhand/dockhand/internal/limits"
)

// Client talks to a running dockhand server over plain HTTP.
type Client struct {
	http    *http.Client
	baseURL string
}

func New(baseURL string) *Client {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		IdleConnTimeout:       60 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Client{
		http:    &http.Client{Transport: tr}, // no Timeout; use ctx per-request
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type APIError struct {
	StatusCode int
	Body       []byte
	Message    string // parsed from {"error": "..."} if present
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, string(e.Body))
}

func decodeAPIError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, limits.ErrorBody))
	var m struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(b, &m)
	return &APIError{StatusCode: resp.StatusCode, Body: b, Message: m.Error}
}

func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return c.wrapConnErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return decodeAPIError(resp)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, limits.JSON)).Decode(out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return c.wrapConnErr(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(io.LimitReader(resp.Body, limits.JSON)).Decode(out)
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var api *APIError
	return errors.As(err, &api) && api.StatusCode == http.StatusNotFound
}

// Friendly hint when the server isn't reachable.
func (c *Client) wrapConnErr(err error) error {
	if strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host") {
		return fmt.Errorf("cannot connect to dockhand at %s; is it running? try `dockhand serve` (%w)", c.baseURL, err)
	}
	return err
}
