package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// LLMReply is the canned answer of a FakeLLM: a status code and the assistant
// content. Status 0 means 200.
type LLMReply struct {
	Status  int
	Content string
}

// LLMRequest is a recorded chat completion request.
type LLMRequest struct {
	Model          string
	System         string
	User           string
	ResponseFormat string
}

// FakeLLM is an httptest OpenAI-compatible chat completion endpoint.
type FakeLLM struct {
	Server *httptest.Server

	mu       sync.Mutex
	respond  func(LLMRequest) LLMReply
	requests []LLMRequest
}

// NewFakeLLM starts a fake completion server answering with respond.
func NewFakeLLM(t testing.TB, respond func(LLMRequest) LLMReply) *FakeLLM {
	t.Helper()
	f := &FakeLLM{respond: respond}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL (without /chat/completions).
func (f *FakeLLM) URL() string { return f.Server.URL + "/v1" }

// Requests returns the requests received so far.
func (f *FakeLLM) Requests() []LLMRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]LLMRequest(nil), f.requests...)
}

func (f *FakeLLM) serve(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/chat/completions") || r.Header.Get("Authorization") == "" {
		http.NotFound(w, r)
		return
	}
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := LLMRequest{Model: body.Model}
	for _, m := range body.Messages {
		switch m.Role {
		case "system":
			req.System = m.Content
		case "user":
			req.User = m.Content
		}
	}
	if body.ResponseFormat != nil {
		req.ResponseFormat = body.ResponseFormat.Type
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	reply := respond(req)
	w.Header().Set("Content-Type", "application/json")
	if reply.Status != 0 && reply.Status != http.StatusOK {
		w.WriteHeader(reply.Status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": reply.Content, "type": "fake_error"},
		})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-fake",
		"object":  "chat.completion",
		"created": 0,
		"model":   req.Model,
		"choices": []any{
			map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": reply.Content},
				"finish_reason": "stop",
			},
		},
	})
}
