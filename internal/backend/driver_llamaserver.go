package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// llamaServerDriver talks to a running llama.cpp server over its
// OpenAI-compatible completion endpoint.
type llamaServerDriver struct {
	baseURL string
	apiKey  string
	model   string
	opts    Options
	hc      *http.Client
}

func newLlamaServerDriver(hc *http.Client, opts Options, name string) *llamaServerDriver {
	base := strings.TrimRight(opts.LlamaServerURL, "/")
	if base == "" {
		base = "http://127.0.0.1:8080"
	}
	return &llamaServerDriver{
		baseURL: base,
		apiKey:  opts.AccessToken,
		model:   name,
		opts:    opts,
		hc:      hc,
	}
}

// openAICompletionRequest is the payload for /v1/completions.
type openAICompletionRequest struct {
	Model         string  `json:"model,omitempty"`
	Prompt        string  `json:"prompt"`
	MaxTokens     int     `json:"max_tokens,omitempty"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	Stream        bool    `json:"stream"`
	RepeatPenalty float64 `json:"repeat_penalty,omitempty"`
}

type openAICompletionResponse struct {
	Choices []struct {
		Text         string `json:"text"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Load checks that the server is up and has finished loading its model.
func (d *llamaServerDriver) Load(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	d.authorize(req)
	resp, err := d.hc.Do(req)
	if err != nil {
		return fmt.Errorf("llama server unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("llama server not ready: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

func (d *llamaServerDriver) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	ctx, cancel := withTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()

	payload := openAICompletionRequest{
		Model:         d.model,
		Prompt:        prompt,
		MaxTokens:     p.MaxLength,
		Temperature:   temperature(p),
		TopP:          p.TopP,
		TopK:          p.TopK,
		Stream:        false,
		RepeatPenalty: p.RepetitionPenalty,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	d.authorize(req)
	resp, err := d.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", errors.New("llama server http error: " + resp.Status + ": " + string(b))
	}
	var out openAICompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("llama server returned no choices")
	}
	return out.Choices[0].Text, nil
}

// Close is a no-op: the HTTP client is shared by every driver of a factory.
func (d *llamaServerDriver) Close() error { return nil }

func (d *llamaServerDriver) authorize(req *http.Request) {
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}
}
