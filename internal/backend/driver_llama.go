//go:build llama

package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaDriver runs a GGUF model in-process through go-llama.cpp.
type llamaDriver struct {
	path    string
	ctxSize int
	threads int
	model   *llama.LLama
}

func newLlamaDriver(opts Options, name string) Driver {
	path := name
	if opts.LlamaModelDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(opts.LlamaModelDir, path)
	}
	return &llamaDriver{path: path, ctxSize: opts.LlamaCtx, threads: opts.LlamaThreads}
}

func (d *llamaDriver) Load(context.Context) error {
	if d.model != nil {
		return nil
	}
	if strings.TrimSpace(d.path) == "" {
		return errors.New("model path is empty")
	}
	mo := []llama.ModelOption{}
	if d.ctxSize > 0 {
		mo = append(mo, llama.SetContext(d.ctxSize))
	}
	m, err := llama.New(d.path, mo...)
	if err != nil {
		return err
	}
	d.model = m
	return nil
}

func (d *llamaDriver) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if d.model == nil {
		return "", errors.New("llama model not initialized")
	}
	// stop predicting once the caller goes away
	d.model.SetTokenCallback(func(string) bool {
		return ctx.Err() == nil
	})
	text, err := d.model.Predict(prompt, predictOptions(p, d.threads)...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return text, nil
}

func (d *llamaDriver) Close() error {
	if d.model != nil {
		d.model.Free()
		d.model = nil
	}
	return nil
}

func predictOptions(p Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, p.MaxLength)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(float32(p.TopP), llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(p.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(float32(temperature(p))),
		llama.SetPenalty(zf(float32(p.RepetitionPenalty), llama.DefaultOptions.Penalty)),
	}
	return po
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}
