// Package xpipe is an HTTP client for the local XPipe daemon API.
//
// The daemon owns all connection state and the actual remote sessions; this
// client only performs the one-time ApiKey handshake, queries the connection
// catalogue, and asks the daemon to open terminal sessions. All calls are
// synchronous and carry the bearer token obtained from the handshake.
package xpipe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Filter narrows a connection query. Zero-value fields mean "match all".
type Filter struct {
	Category   string `json:"categoryFilter"`
	Connection string `json:"connectionFilter"`
	Type       string `json:"typeFilter"`
}

// RawData is the optional connection payload attached to an info entry.
// Only the container name is of interest to the browser.
type RawData struct {
	ContainerName string `json:"containerName,omitempty"`
}

// ConnectionInfo is one entry of a /connection/info response.
type ConnectionInfo struct {
	Connection string   `json:"connection"`
	Name       []string `json:"name"`
	RawData    *RawData `json:"rawData,omitempty"`
}

type handshakeResponse struct {
	SessionToken string `json:"sessionToken"`
}

type queryResponse struct {
	Found []string `json:"found"`
}

type infoResponse struct {
	Infos []ConnectionInfo `json:"infos"`
}

// Client talks to one daemon instance. It is not safe for concurrent use;
// the browser's single control loop is its only caller.
type Client struct {
	baseURL    string
	clientName string
	http       *http.Client
	token      string
}

// New creates a client for the daemon at baseURL, identifying itself with
// clientName during the handshake. No outbound timeout is set: a hung daemon
// blocks the browser, matching its single synchronous control flow.
func New(baseURL, clientName string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		clientName: clientName,
		http:       &http.Client{},
	}
}

// Authenticated reports whether a handshake has succeeded.
func (c *Client) Authenticated() bool { return c.token != "" }

// Authenticate performs the one-shot ApiKey handshake and stores the session
// token for the lifetime of the client.
func (c *Client) Authenticate(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return &AuthError{Reason: "empty api key"}
	}
	body := map[string]any{
		"auth": map[string]string{
			"type": "ApiKey",
			"key":  apiKey,
		},
		"client": map[string]string{
			"type": "Api",
			"name": c.clientName,
		},
	}
	var resp handshakeResponse
	if err := c.postJSON(ctx, "/handshake", body, &resp); err != nil {
		return &AuthError{Reason: "request", Err: err}
	}
	if strings.TrimSpace(resp.SessionToken) == "" {
		return &AuthError{Reason: "response carried no session token"}
	}
	c.token = resp.SessionToken
	return nil
}

// QueryConnections returns the identifiers of connections matching the
// filter, in the daemon's order.
func (c *Client) QueryConnections(ctx context.Context, f Filter) ([]string, error) {
	if !c.Authenticated() {
		return nil, &FetchError{Step: "query", Err: errNotAuthenticated}
	}
	if f.Category == "" {
		f.Category = "*"
	}
	if f.Connection == "" {
		f.Connection = "*"
	}
	if f.Type == "" {
		f.Type = "*"
	}
	var resp queryResponse
	if err := c.postJSON(ctx, "/connection/query", f, &resp); err != nil {
		return nil, &FetchError{Step: "query", Err: err}
	}
	return resp.Found, nil
}

// ConnectionInfos resolves identifiers to display metadata. The daemon
// returns one entry per requested identifier, in request order.
func (c *Client) ConnectionInfos(ctx context.Context, ids []string) ([]ConnectionInfo, error) {
	if !c.Authenticated() {
		return nil, &FetchError{Step: "info", Err: errNotAuthenticated}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	body := map[string]any{"connections": ids}
	var resp infoResponse
	if err := c.postJSON(ctx, "/connection/info", body, &resp); err != nil {
		return nil, &FetchError{Step: "info", Err: err}
	}
	return resp.Infos, nil
}

// OpenTerminal asks the daemon to open a terminal session against the given
// connection identifier. Any 2xx is success; otherwise the response body is
// carried verbatim in the returned LaunchError.
func (c *Client) OpenTerminal(ctx context.Context, id, directory string) error {
	if !c.Authenticated() {
		return &LaunchError{Err: errNotAuthenticated}
	}
	if strings.TrimSpace(directory) == "" {
		directory = "/"
	}
	body := map[string]string{
		"connection": id,
		"directory":  directory,
	}
	req, err := c.newRequest(ctx, "/connection/terminal", body)
	if err != nil {
		return &LaunchError{Err: err}
	}
	res, err := c.http.Do(req)
	if err != nil {
		return &LaunchError{Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(res.Body)
		return &LaunchError{Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

var errNotAuthenticated = fmt.Errorf("not authenticated")

func (c *Client) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, path, body)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(res.Body)
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = res.Status
		}
		return fmt.Errorf("%s: %s", path, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
