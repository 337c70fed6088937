package backend

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Driver kinds understood by NewFactory.
const (
	KindLlama       = "llama"
	KindLlamaServer = "llamaserver"
	KindOllama      = "ollama"
	KindGemini      = "gemini"
	KindEcho        = "echo"
)

// Driver is a concrete model runtime. Implementations need not be safe for
// concurrent Generate calls; Backend serializes them.
type Driver interface {
	// Load prepares the runtime for the model. It may be called again after
	// a failure.
	Load(ctx context.Context) error
	// Generate returns the raw completion for prompt.
	Generate(ctx context.Context, prompt string, p Params) (string, error)
	// Close releases any resources held after a successful Load.
	Close() error
}

// Factory constructs a driver of the given kind for the named model.
type Factory func(kind, name string) (Driver, error)

// Options configure the drivers built by NewFactory. No environment
// variables are read here; callers fill this from config.
type Options struct {
	// AccessToken is sent as a bearer token to llama-server.
	AccessToken string

	LlamaServerURL string
	LlamaCtx       int
	LlamaThreads   int
	// LlamaModelDir is prepended to relative llama model names.
	LlamaModelDir string

	OllamaURL string

	GeminiAPIKey string
	// GeminiModel overrides the backend name sent to the Gemini API.
	GeminiModel string

	// RequestTimeout bounds each HTTP driver call. Zero means no bound.
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
}

// NewFactory returns a Factory building drivers from opts. An unknown kind
// is an error.
func NewFactory(opts Options) Factory {
	hc := newHTTPClient(opts.ConnectTimeout)
	return func(kind, name string) (Driver, error) {
		switch strings.ToLower(strings.TrimSpace(kind)) {
		case KindLlama:
			return newLlamaDriver(opts, name), nil
		case KindLlamaServer:
			return newLlamaServerDriver(hc, opts, name), nil
		case KindOllama:
			return newOllamaDriver(hc, opts, name), nil
		case KindGemini:
			return newGeminiDriver(opts, name), nil
		case KindEcho:
			return EchoDriver{}, nil
		default:
			return nil, fmt.Errorf("unknown driver kind %q", kind)
		}
	}
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Deadlines come from the request context.
	return &http.Client{Transport: tr, Timeout: 0}
}

// withTimeout applies d to ctx when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return ctx, func() {}
}

// temperature returns 0 for greedy decoding when sampling is disabled.
func temperature(p Params) float64 {
	if !p.Sample {
		return 0
	}
	return p.Temperature
}
