package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// geminiDriver generates through the Gemini API.
type geminiDriver struct {
	apiKey string
	model  string
	opts   Options
	client *genai.Client
}

func newGeminiDriver(opts Options, name string) *geminiDriver {
	model := name
	if opts.GeminiModel != "" {
		model = opts.GeminiModel
	}
	return &geminiDriver{apiKey: opts.GeminiAPIKey, model: model, opts: opts}
}

func (d *geminiDriver) Load(ctx context.Context) error {
	if d.client != nil {
		return nil
	}
	if d.apiKey == "" {
		return errors.New("gemini API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  d.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("create gemini client: %w", err)
	}
	d.client = client
	return nil
}

func (d *geminiDriver) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if d.client == nil {
		return "", errors.New("gemini client not initialized")
	}
	ctx, cancel := withTimeout(ctx, d.opts.RequestTimeout)
	defer cancel()
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature(p))),
		TopP:            genai.Ptr(float32(p.TopP)),
		MaxOutputTokens: int32(p.MaxLength),
	}
	if p.TopK > 0 {
		cfg.TopK = genai.Ptr(float32(p.TopK))
	}
	resp, err := d.client.Models.GenerateContent(ctx, d.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return geminiText(resp)
}

func (d *geminiDriver) Close() error {
	d.client = nil
	return nil
}

// geminiText concatenates the text parts of the first candidate.
func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini returned no candidates")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", fmt.Errorf("gemini candidate has no content (finish reason %s)", c.FinishReason)
	}
	var b strings.Builder
	for _, part := range c.Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	return b.String(), nil
}
