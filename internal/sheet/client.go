// Package sheet formats normalized events into display rows and appends them
// to a Google Sheets spreadsheet through the values:append REST endpoint.
package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// TokenSource yields a bearer token for the Sheets API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns ts verbatim; used in tests and with
// pre-provisioned tokens.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) { return string(s), nil }

// Client is a minimal Google Sheets API client covering the one call this
// service makes.
type Client struct {
	tokens     TokenSource
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(tokens TokenSource, opts ...ClientOption) *Client {
	c := &Client{
		tokens:     tokens,
		baseURL:    "https://sheets.googleapis.com",
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type appendRequest struct {
	Values [][]string `json:"values"`
}

type appendResponse struct {
	Updates struct {
		UpdatedRange string `json:"updatedRange"`
		UpdatedRows  int    `json:"updatedRows"`
	} `json:"updates"`
}

// Append issues one values:append call and returns the updated range
// reported by the API.
func (c *Client) Append(ctx context.Context, spreadsheetID, rangeA1 string, rows [][]string) (string, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("get access token: %w", err)
	}

	body, err := json.Marshal(appendRequest{Values: rows})
	if err != nil {
		return "", fmt.Errorf("marshal append request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED&insertDataOption=INSERT_ROWS",
		c.baseURL, url.PathEscape(spreadsheetID), url.PathEscape(rangeA1))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sheets append request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("sheets API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var apiResp appendResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode append response: %w", err)
	}
	return apiResp.Updates.UpdatedRange, nil
}
