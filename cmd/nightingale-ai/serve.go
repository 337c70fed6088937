package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"nightingale/internal/backend"
	"nightingale/internal/config"
	"nightingale/internal/httpapi"
	"nightingale/internal/logging"
	"nightingale/internal/manager"
	"nightingale/internal/pipeline"
	"nightingale/internal/ratelimit"
)

type serveFlags struct {
	addr          string
	logLevel      string
	logFormat     string
	defaultModel  string
	defaultDriver string
	modelsDir     string
	preload       string
	corsOrigins   string
	allowedHosts  string
	cors          bool
}

func serveCmd() *cobra.Command { return newServeCmd(&serveFlags{}) }

func newServeCmd(f *serveFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Example: "  nightingale-ai serve --config nightingale.yaml\n" +
			"  nightingale-ai serve --default-driver ollama --default-model medgemma_2b",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			return runServe(cmd.Context(), cfg, log)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8000")
	fl.StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error|off")
	fl.StringVar(&f.logFormat, "log-format", "", "Log format: console|json")
	fl.StringVar(&f.defaultModel, "default-model", "", "Model id used when a request names none")
	fl.StringVar(&f.defaultDriver, "default-driver", "", "Driver for models that name none: llama|llamaserver|ollama|gemini|echo")
	fl.StringVar(&f.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	fl.StringVar(&f.preload, "preload", "", "Comma-separated model ids to load at startup")
	fl.BoolVar(&f.cors, "cors", false, "Enable CORS")
	fl.StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins")
	fl.StringVar(&f.allowedHosts, "allowed-hosts", "", "Comma-separated trusted Host header values")
	return cmd
}

// loadConfig layers defaults, the config file, the environment, and flags
// that were set explicitly, in that order.
func loadConfig(cmd *cobra.Command, f *serveFlags) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if f != nil {
		fl := cmd.Flags()
		set := func(name string, dst *string, v string) {
			if fl.Changed(name) {
				*dst = v
			}
		}
		set("addr", &cfg.Addr, f.addr)
		set("log-level", &cfg.LogLevel, f.logLevel)
		set("log-format", &cfg.LogFormat, f.logFormat)
		set("default-model", &cfg.DefaultModel, f.defaultModel)
		set("default-driver", &cfg.DefaultDriver, f.defaultDriver)
		set("models-dir", &cfg.ModelsDir, f.modelsDir)
		if fl.Changed("preload") {
			cfg.Preload = splitCSV(f.preload)
		}
		if fl.Changed("cors") {
			cfg.CORSEnabled = f.cors
		}
		if fl.Changed("cors-origins") {
			cfg.CORSOrigins = splitCSV(f.corsOrigins)
		}
		if fl.Changed("allowed-hosts") {
			cfg.AllowedHosts = splitCSV(f.allowedHosts)
		}
	}
	return cfg, cfg.Validate()
}

func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}
	if cfg.HFToken == "" {
		log.Warn().Msg("HF_TOKEN not set; gated models may fail to load")
	}
	log.Info().Strs("models", cat.ListRecommended()).Str("default_model", cfg.DefaultModel).Msg("recommended models")

	mgr := manager.NewWithConfig(manager.ManagerConfig{
		Catalog:       cat,
		Factory:       backend.NewFactory(cfg.BackendOptions()),
		DefaultDriver: cfg.DefaultDriver,
		DefaultModel:  cfg.DefaultModel,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait(),
		Logger:        &log,
	})
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn().Err(err).Msg("closing backends")
		}
	}()
	pipe := pipeline.NewWithConfig(pipeline.Config{Registry: mgr, Logger: &log})

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetRequestTimeout(time.Duration(cfg.RequestTimeoutMS) * time.Millisecond)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, cfg.CORSMethods, cfg.CORSHeaders)
	httpapi.SetAllowedHosts(cfg.AllowedHosts)

	if rl := cfg.RateLimit; rl.RedisAddr != "" && rl.Requests > 0 {
		lim, err := ratelimit.New(ratelimit.Options{
			Addr:     rl.RedisAddr,
			Password: rl.RedisPassword,
			DB:       rl.RedisDB,
			Limit:    rl.Requests,
			Window:   cfg.RateLimitWindow(),
		})
		if err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		defer lim.Close()
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := lim.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", rl.RedisAddr).Msg("redis unreachable; requests pass until it recovers")
		}
		cancel()
		httpapi.SetRateLimiter(lim)
		log.Info().Int("requests", rl.Requests).Dur("window", cfg.RateLimitWindow()).Msg("rate limiting enabled")
	}

	baseCtx, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	preloaded := make(chan struct{})
	go func() {
		defer close(preloaded)
		if len(cfg.Preload) == 0 {
			return
		}
		if err := mgr.Preload(baseCtx, cfg.Preload); err != nil {
			log.Warn().Err(err).Msg("preload incomplete")
		}
	}()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr, pipe),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.DefaultDriver).Msg("nightingale-ai listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-errCh:
		if ok {
			cancelBase()
			<-preloaded
			return fmt.Errorf("server error: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	cancelBase()
	<-preloaded
	return nil
}
