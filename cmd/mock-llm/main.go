// Package main implements a mock LLM server for exercising the analysis
// pipeline offline. It serves OpenAI-compatible /v1/chat/completions
// responses from JSON fixture files holding findings arrays, routed by the
// "model" field in the request.
//
// Usage:
//
//	mock-llm -fixtures /path/to/fixtures -port 11434 -fail-first 2
//
// A fixture file is named after the model it answers for (e.g.
// "mock-reviewer.json"). Its content is returned verbatim as the assistant
// message, so a fixture usually holds a JSON findings array.
//
// -fail-first N makes the server answer 503 to the first N calls per model
// before serving fixtures, for driving the retry path end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type server struct {
	fixtures  map[string]string // model name → fixture content
	failFirst int

	mu    sync.Mutex
	calls map[string]int // model name → calls served
}

func newServer(fixtures map[string]string, failFirst int) *server {
	return &server{
		fixtures:  fixtures,
		failFirst: failFirst,
		calls:     make(map[string]int),
	}
}

func main() {
	fixtureDir := flag.String("fixtures", "fixtures", "directory containing fixture response files")
	port := flag.Int("port", 11434, "port to listen on")
	failFirst := flag.Int("fail-first", 0, "answer 503 to the first N calls per model")
	flag.Parse()

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		log.Fatalf("Failed to load fixtures from %s: %v", *fixtureDir, err)
	}
	log.Printf("Loaded %d model fixture(s) from %s", len(fixtures), *fixtureDir)

	s := newServer(fixtures, *failFirst)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/chat/completions", s.handleChatCompletions)

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Mock LLM server listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadFixtures maps each *.json file in dir to the model named by its base
// filename.
func loadFixtures(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		model := strings.TrimSuffix(entry.Name(), ".json")
		fixtures[model] = string(data)
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files in %s", dir)
	}
	return fixtures, nil
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Model]++
	callNum := s.calls[req.Model]
	s.mu.Unlock()

	log.Printf("[%s call %d] messages=%d", req.Model, callNum, len(req.Messages))

	if callNum <= s.failFirst {
		log.Printf("[%s call %d] simulating transient failure", req.Model, callNum)
		http.Error(w, "simulated overload", http.StatusServiceUnavailable)
		return
	}

	content, ok := s.fixtures[req.Model]
	if !ok {
		http.Error(w, fmt.Sprintf("no fixture for model %q", req.Model), http.StatusNotFound)
		return
	}

	resp := chatResponse{
		ID:      fmt.Sprintf("mock-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []chatChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: chatUsage{
			PromptTokens:     promptTokens(req.Messages),
			CompletionTokens: len(content) / 4,
			TotalTokens:      promptTokens(req.Messages) + len(content)/4,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// promptTokens roughly estimates the prompt size of a request.
func promptTokens(messages []chatMessage) int {
	total := 0
	for _, m := range messages {
		total += len(m.Content)
	}
	return total / 4
}
