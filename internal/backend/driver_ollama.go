package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ollamaDriver generates through an Ollama server's /api/generate endpoint.
type ollamaDriver struct {
	baseURL string
	model   string
	opts    Options
	hc      *http.Client
}

func newOllamaDriver(hc *http.Client, opts Options, name string) *ollamaDriver {
	base := strings.TrimRight(opts.OllamaURL, "/")
	if base == "" {
		base = "http://127.0.0.1:11434"
	}
	return &ollamaDriver{baseURL: base, model: name, opts: opts, hc: hc}
}

type ollamaShowRequest struct {
	Model string `json:"model"`
}

type ollamaOptions struct {
	NumPredict    int     `json:"num_predict"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"top_p"`
	TopK          int     `json:"top_k"`
	RepeatPenalty float64 `json:"repeat_penalty"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaErrorResponse struct {
	Error string `json:"error"`
}

// Load asks the server for the model's metadata; a missing model fails.
func (d *ollamaDriver) Load(ctx context.Context) error {
	if strings.TrimSpace(d.model) == "" {
		return errors.New("ollama model required")
	}
	ctx, cancel := withTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()
	if _, err := d.doJSON(ctx, "/api/show", ollamaShowRequest{Model: d.model}, nil); err != nil {
		return fmt.Errorf("ollama show: %w", err)
	}
	return nil
}

func (d *ollamaDriver) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	ctx, cancel := withTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()
	reqBody := ollamaGenerateRequest{
		Model:  d.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			NumPredict:    p.MaxLength,
			Temperature:   temperature(p),
			TopP:          p.TopP,
			TopK:          p.TopK,
			RepeatPenalty: p.RepetitionPenalty,
		},
	}
	var resp ollamaGenerateResponse
	if _, err := d.doJSON(ctx, "/api/generate", reqBody, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return resp.Response, nil
}

// Close is a no-op: the HTTP client is shared by every driver of a factory.
func (d *ollamaDriver) Close() error { return nil }

func (d *ollamaDriver) doJSON(ctx context.Context, path string, payload any, out any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp ollamaErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return resp.StatusCode, fmt.Errorf("ollama api error: %s", errResp.Error)
		}
		return resp.StatusCode, fmt.Errorf("ollama api error: %s", resp.Status)
	}
	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}
