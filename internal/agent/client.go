// Package agent obtains structured decisions from an external chat-completion
// agent: the daily action (validated and retried against the action schema)
// and the law-enforcement encounter choice.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"drugwars.ai/internal/sim/tuning"
)

// Config locates the OpenAI-compatible chat endpoint.
type Config struct {
	// BaseURL is the API root, e.g. http://localhost:11434/v1 for Ollama.
	BaseURL string
	APIKey  string
	Model   string
}

// Client talks to the agent endpoint. One round-trip is in flight at a time;
// retries are sequential with a fixed delay.
type Client struct {
	cfg  Config
	tune tuning.Tuning
	http *http.Client
	log  *log.Logger
}

func New(cfg Config, tune tuning.Tuning, logger *log.Logger) *Client {
	return &Client{
		cfg:  cfg,
		tune: tune,
		http: &http.Client{},
		log:  logger,
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *responseFmt  `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFmt struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// chat performs one chat-completion round trip and returns the assistant
// message content. The per-call timeout escalates a hung agent into an
// ordinary retryable failure.
func (c *Client) chat(ctx context.Context, system, user string, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.tune.AgentTimeoutMs)*time.Millisecond)
	defer cancel()

	req := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.5,
	}
	if jsonMode {
		req.ResponseFormat = &responseFmt{Type: "json_object"}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("agent endpoint: %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("completion has no choices")
	}
	return cr.Choices[0].Message.Content, nil
}
