package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatReply(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestExtract(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(chatReply(`{"events":[{"title":"Open Mic","location":"Downtown","type":"Music","startDay":"2026-04-10","startTime":"19:00","cost":null}]}`))
	}))
	defer server.Close()

	c := NewClient("key-1", "", WithBaseURL(server.URL))
	events, err := c.Extract(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Title != "Open Mic" {
		t.Errorf("title = %q, want Open Mic", ev.Title)
	}
	if ev.StartDay == nil || *ev.StartDay != "2026-04-10" {
		t.Errorf("start day = %v, want 2026-04-10", ev.StartDay)
	}
	if ev.Cost != nil {
		t.Errorf("cost = %v, want nil", *ev.Cost)
	}

	if gotAuth != "Bearer key-1" {
		t.Errorf("authorization = %q, want Bearer key-1", gotAuth)
	}
	if len(gotReq.Messages) != 1 || len(gotReq.Messages[0].Content) != 2 {
		t.Fatalf("request shape: %+v", gotReq.Messages)
	}
	img := gotReq.Messages[0].Content[1]
	if img.ImageURL == nil || !strings.HasPrefix(img.ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("image part = %+v, want base64 data URL", img)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReply("```json\n{\"events\":[{\"title\":\"Gallery Night\"}]}\n```"))
	}))
	defer server.Close()

	c := NewClient("key", "", WithBaseURL(server.URL))
	events, err := c.Extract(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(events) != 1 || events[0].Title != "Gallery Night" {
		t.Errorf("events = %+v, want single Gallery Night", events)
	}
}

func TestExtractNoEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReply(`{"events":[]}`))
	}))
	defer server.Close()

	c := NewClient("key", "", WithBaseURL(server.URL))
	events, err := c.Extract(context.Background(), []byte{1}, "image/png")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("events = %d, want 0", len(events))
	}
}

func TestExtractAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient("key", "", WithBaseURL(server.URL))
	if _, err := c.Extract(context.Background(), []byte{1}, "image/png"); err == nil {
		t.Fatal("expected error on 429 response")
	}
}

func TestExtractUnparseableContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatReply("I could not read this image, sorry."))
	}))
	defer server.Close()

	c := NewClient("key", "", WithBaseURL(server.URL))
	if _, err := c.Extract(context.Background(), []byte{1}, "image/png"); err == nil {
		t.Fatal("expected error for non-JSON model output")
	}
}

func TestExtractNotConfigured(t *testing.T) {
	c := NewClient("", "")
	if c.Configured() {
		t.Error("client without API key should not report configured")
	}
	if _, err := c.Extract(context.Background(), []byte{1}, "image/png"); err == nil {
		t.Fatal("expected error when not configured")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"events":[]}`, `{"events":[]}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
