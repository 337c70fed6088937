package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/goleak"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
	"nightingale/internal/manager"
	"nightingale/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// stubDriver answers every prompt with a fixed reply.
type stubDriver struct {
	mu      sync.Mutex
	reply   string
	loadErr error
	genErr  error
	prompts []string
	params  []backend.Params
}

func (s *stubDriver) Load(context.Context) error { return s.loadErr }

func (s *stubDriver) Generate(_ context.Context, prompt string, p backend.Params) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	s.params = append(s.params, p)
	if s.genErr != nil {
		return "", s.genErr
	}
	return s.reply, nil
}

func (s *stubDriver) Close() error { return nil }

func newTestPipeline(t *testing.T, d *stubDriver) *Pipeline {
	t.Helper()
	m := manager.NewWithConfig(manager.ManagerConfig{
		Catalog: catalog.Default(),
		Factory: func(kind, name string) (backend.Driver, error) { return d, nil },
	})
	t.Cleanup(func() { _ = m.Close() })
	return New(m)
}

func TestRun_QAEndToEnd(t *testing.T) {
	d := &stubDriver{reply: "Answer: Hypertension is high blood pressure."}
	p := newTestPipeline(t, d)
	res, err := p.Run(testCtx(t), task.QA{Question: "What is hypertension?", Context: ""}, "medgemma_2b")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Text != "Hypertension is high blood pressure." {
		t.Fatalf("answer=%q", res.Text)
	}
	if res.Model != "medgemma_2b" || res.Backend != "google/medgemma-2b" || res.Kind != task.KindQA {
		t.Fatalf("result %+v", res)
	}
	if res.Elapsed < 0 || res.ID == uuid.Nil {
		t.Fatalf("elapsed=%s id=%s", res.Elapsed, res.ID)
	}
	if res.Raw != d.reply || res.Params.MaxLength != 300 {
		t.Fatalf("raw=%q params=%+v", res.Raw, res.Params)
	}
	if res.Metadata["question"] != "What is hypertension?" {
		t.Fatalf("metadata %v", res.Metadata)
	}
	if !strings.Contains(d.prompts[0], "Question: What is hypertension?") {
		t.Fatalf("prompt %q", d.prompts[0])
	}
}

func TestRun_DefaultModel(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{reply: "x"})
	res, err := p.Run(testCtx(t), task.Generate{Prompt: "hi"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Model != catalog.DefaultModelID || p.DefaultModel() != catalog.DefaultModelID {
		t.Fatalf("model=%s", res.Model)
	}
}

func TestRun_QAWithoutMarkerReturnsFullText(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{reply: "  no marker here  "})
	res, err := p.Run(testCtx(t), task.QA{Question: "q"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "  no marker here  " {
		t.Fatalf("text=%q", res.Text)
	}
}

func TestRun_NonQAPassesThrough(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{reply: "Answer: keep me"})
	res, err := p.Run(testCtx(t), task.ClinicalSummary{Note: "n"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Answer: keep me" || res.Metadata["format"] != "SOAP" {
		t.Fatalf("result %+v", res)
	}
}

func TestRun_TermExplanationMetadata(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{reply: "x"})
	res, err := p.Run(testCtx(t), task.TermExplanation{Term: "MI", ReadingLevel: "unknown_level"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Metadata["reading_level"] != "unknown_level" || res.Metadata["resolved_reading_level"] != "patient" {
		t.Fatalf("metadata %v", res.Metadata)
	}
}

func TestRun_NotFound(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{})
	_, err := p.Run(testCtx(t), task.QA{Question: "q"}, "gpt-9")
	if !manager.IsModelNotFound(err) || StageOf(err) != StageResolve {
		t.Fatalf("want resolve/not-found, got %v", err)
	}
	var se *StageError
	if !errors.As(err, &se) || se.Model != "gpt-9" {
		t.Fatalf("stage error %+v", se)
	}
}

func TestRun_LoadFailure(t *testing.T) {
	boom := errors.New("weights missing")
	p := newTestPipeline(t, &stubDriver{loadErr: boom})
	_, err := p.Run(testCtx(t), task.QA{Question: "q"}, "")
	if !manager.IsLoadFailure(err) || !errors.Is(err, boom) || StageOf(err) != StageResolve {
		t.Fatalf("want load failure, got %v", err)
	}
}

func TestRun_GenerationFailureForwarded(t *testing.T) {
	boom := errors.New("cuda oom")
	d := &stubDriver{genErr: boom}
	p := newTestPipeline(t, d)
	_, err := p.Run(testCtx(t), task.Generate{Prompt: "x"}, "")
	if !manager.IsGenerationFailure(err) || !errors.Is(err, boom) || StageOf(err) != StageGenerate {
		t.Fatalf("want generation failure, got %v", err)
	}
	if len(d.prompts) != 1 {
		t.Fatalf("pipeline retried: %d calls", len(d.prompts))
	}
}

func TestRun_InvalidTask(t *testing.T) {
	d := &stubDriver{}
	p := newTestPipeline(t, d)
	_, err := p.Run(testCtx(t), task.QA{}, "")
	if !errors.Is(err, task.ErrInvalidTask) || StageOf(err) != StageValidate {
		t.Fatalf("got %v", err)
	}
	if _, err := p.Run(testCtx(t), nil, ""); StageOf(err) != StageValidate {
		t.Fatalf("nil task: %v", err)
	}
	if len(d.prompts) != 0 {
		t.Fatalf("backend called for invalid task")
	}
}

func TestRun_InvalidParams(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{})
	_, err := p.Run(testCtx(t), task.Generate{Prompt: "x", MaxLength: 4096}, "")
	if !errors.Is(err, backend.ErrInvalidParams) || StageOf(err) != StageBuild {
		t.Fatalf("got %v", err)
	}
}

func TestRun_DocumentTruncated(t *testing.T) {
	d := &stubDriver{reply: "{}"}
	p := newTestPipeline(t, d)
	_, err := p.Run(testCtx(t), task.DocumentExtraction{Document: strings.Repeat("z", 10000)}, "")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(d.prompts[0], "z"); n != 5000 {
		t.Fatalf("document chars in prompt = %d", n)
	}
}

func TestExtractAnswer(t *testing.T) {
	cases := map[string]string{
		"Answer: a":                    "a",
		"Answer: first\nAnswer: second": "second",
		"prefix Answer:   spaced  \n":   "spaced",
		"nothing":                      "nothing",
		"Answer:":                      "",
	}
	for in, want := range cases {
		if got := ExtractAnswer(in); got != want {
			t.Fatalf("ExtractAnswer(%q)=%q want %q", in, got, want)
		}
	}
}

func TestRun_UnknownModelsShareMetricSeries(t *testing.T) {
	p := newTestPipeline(t, &stubDriver{reply: "ok"})
	ctx := testCtx(t)
	if _, err := p.Run(ctx, task.QA{Question: "q"}, "bogus-warmup"); err == nil {
		t.Fatalf("expected not found")
	}
	before := testutil.CollectAndCount(runsTotal)
	for i := 0; i < 200; i++ {
		if _, err := p.Run(ctx, task.QA{Question: "q"}, fmt.Sprintf("bogus-%d", i)); !manager.IsModelNotFound(err) {
			t.Fatalf("run %d: %v", i, err)
		}
		if _, err := p.Run(ctx, task.QA{}, fmt.Sprintf("invalid-%d", i)); StageOf(err) != StageValidate {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if after := testutil.CollectAndCount(runsTotal); after > before+1 {
		t.Fatalf("runs_total series grew from %d to %d", before, after)
	}
	if got := testutil.ToFloat64(runsTotal.WithLabelValues(unknownModel, string(task.KindQA), string(StageResolve))); got < 200 {
		t.Fatalf("unknown model counter %v", got)
	}
}
