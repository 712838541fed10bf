// Package extract calls a vision-capable model through an OpenAI-compatible
// chat-completions endpoint and parses structured event records out of a
// flyer image.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mhersey/flyerdrop/internal/model"
)

const extractionPrompt = `You are given a photo of an event flyer. Extract every distinct event on it.

Respond with JSON only, shaped as {"events": [...]}. Each event has:
  "title": string, the event name
  "address": string, street address if shown, else ""
  "location": one of "Downtown", "Northside", "Southside", "Eastside", "Westside", "Out of Town", or "" if unclear
  "type": one of "Music", "Art", "Food", "Market", "Community", "Sports", "Theater", "Other"
  "startDay": "YYYY-MM-DD" or null if the flyer shows no date
  "startTime": 24-hour "HH:mm" or null
  "endDay": "YYYY-MM-DD" or null
  "endTime": 24-hour "HH:mm" or null
  "description": one-sentence summary of the event, "" if nothing to say
  "cost": the cost exactly as printed (e.g. "$25", "Free") or null if not shown

If the image contains no events, respond with {"events": []}.`

// Client extracts events from flyer images.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey, modelName string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      modelName,
		baseURL:    "https://api.openai.com",
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
	if c.model == "" {
		c.model = "gpt-4o-mini"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type extractionResult struct {
	Events []model.RawEvent `json:"events"`
}

// Extract sends one image to the model and returns the raw events it found.
// Zero events with a nil error means the flyer held nothing extractable.
func (c *Client) Extract(ctx context.Context, image []byte, mimeType string) ([]model.RawEvent, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("extraction client not configured: missing API key")
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: extractionPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
			},
		}},
		MaxTokens: 2048,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("extraction API returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("extraction response has no choices")
	}

	content := stripCodeFences(apiResp.Choices[0].Message.Content)
	var result extractionResult
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("parse extracted events: %w", err)
	}
	return result.Events, nil
}

// stripCodeFences removes a surrounding markdown code fence, which some
// models wrap JSON output in despite instructions.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
