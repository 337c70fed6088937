// Package pipeline runs one task end to end: resolve the backend, admit the
// request, build the prompt, generate and post-process.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nightingale/internal/backend"
	"nightingale/internal/manager"
	"nightingale/internal/prompt"
	"nightingale/internal/task"
)

// Registry resolves model identifiers to loaded backends and admits work
// against them. *manager.Manager implements it.
type Registry interface {
	GetOrCreate(ctx context.Context, id string) (*backend.Backend, error)
	Admit(ctx context.Context, id string) (func(), error)
	DefaultModel() string
}

// Result is a successful run.
type Result struct {
	ID      uuid.UUID
	Kind    task.Kind
	Model   string
	Backend string
	// Text is the post-processed output; Raw is the backend output.
	Text     string
	Raw      string
	Prompt   string
	Params   backend.Params
	Elapsed  time.Duration
	Metadata map[string]any
}

// Config configures a Pipeline.
type Config struct {
	Registry Registry
	// DefaultModel overrides Registry.DefaultModel when set.
	DefaultModel string
	Logger       *zerolog.Logger
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	reg          Registry
	defaultModel string
	log          zerolog.Logger
}

func New(reg Registry) *Pipeline {
	return NewWithConfig(Config{Registry: reg})
}

func NewWithConfig(cfg Config) *Pipeline {
	p := &Pipeline{
		reg:          cfg.Registry,
		defaultModel: cfg.DefaultModel,
		log:          zerolog.Nop(),
	}
	if p.defaultModel == "" {
		p.defaultModel = cfg.Registry.DefaultModel()
	}
	if cfg.Logger != nil {
		p.log = cfg.Logger.With().Str("component", "pipeline").Logger()
	}
	return p
}

// DefaultModel is the identifier used when Run is given none.
func (p *Pipeline) DefaultModel() string { return p.defaultModel }

// Run executes t on modelID (the default model when empty). The first
// failure is returned as a *StageError; nothing is retried.
func (p *Pipeline) Run(ctx context.Context, t task.Task, modelID string) (*Result, error) {
	if modelID == "" {
		modelID = p.defaultModel
	}
	kind := task.Kind("unknown")
	if t != nil {
		kind = t.Kind()
	}
	res, err := p.run(ctx, t, kind, modelID)
	if err != nil {
		runsTotal.WithLabelValues(modelLabel(err, modelID), string(kind), string(StageOf(err))).Inc()
		ev := p.log.Warn()
		if StageOf(err) == StageGenerate {
			ev = p.log.Error()
		}
		ev.Str("event", "run_failed").Str("model", modelID).Str("task", string(kind)).Str("stage", string(StageOf(err))).Err(err).Send()
		return nil, err
	}
	runsTotal.WithLabelValues(modelID, string(kind), "ok").Inc()
	generationDuration.WithLabelValues(modelID, string(kind)).Observe(res.Elapsed.Seconds())
	p.log.Debug().Str("event", "run_ok").Str("id", res.ID.String()).Str("model", modelID).Str("task", string(kind)).Dur("elapsed", res.Elapsed).Send()
	return res, nil
}

// modelLabel keeps identifiers that never resolved out of metric labels.
func modelLabel(err error, modelID string) string {
	switch StageOf(err) {
	case StageValidate:
		return unknownModel
	case StageResolve:
		if manager.IsModelNotFound(err) {
			return unknownModel
		}
	}
	return modelID
}

func (p *Pipeline) run(ctx context.Context, t task.Task, kind task.Kind, modelID string) (*Result, error) {
	fail := func(stage Stage, err error) (*Result, error) {
		return nil, &StageError{Stage: stage, Model: modelID, Err: err}
	}
	if t == nil {
		_, _, err := prompt.Build(nil)
		return fail(StageValidate, err)
	}
	if err := t.Validate(); err != nil {
		return fail(StageValidate, err)
	}

	b, err := p.reg.GetOrCreate(ctx, modelID)
	if err != nil {
		return fail(StageResolve, err)
	}

	release, err := p.reg.Admit(ctx, modelID)
	if err != nil {
		return fail(StageAdmit, err)
	}
	defer release()

	text, params, err := prompt.Build(t)
	if err != nil {
		return fail(StageBuild, err)
	}

	start := time.Now()
	out, err := b.Generate(ctx, text, params)
	elapsed := time.Since(start)
	if err != nil {
		return fail(StageGenerate, err)
	}

	md := t.Metadata()
	if te, ok := t.(task.TermExplanation); ok {
		md["resolved_reading_level"] = prompt.ResolveLevel(te.ReadingLevel)
	}
	return &Result{
		ID:       uuid.New(),
		Kind:     kind,
		Model:    modelID,
		Backend:  out.Backend,
		Text:     postProcess(kind, out.Text),
		Raw:      out.Text,
		Prompt:   text,
		Params:   out.Params,
		Elapsed:  elapsed,
		Metadata: md,
	}, nil
}
