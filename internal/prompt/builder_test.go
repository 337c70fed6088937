package prompt

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"nightingale/internal/backend"
	"nightingale/internal/task"
)

func TestQA(t *testing.T) {
	p, params, err := QA(task.QA{Question: "What is hypertension?", Context: "BP 150/95"})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Context: BP 150/95", "Question: What is hypertension?", "Answer:", "healthcare professional"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}
	if params.MaxLength != QAMaxLength {
		t.Fatalf("max length %d", params.MaxLength)
	}
	if params.Temperature != backend.DefaultTemperature {
		t.Fatalf("temperature %v", params.Temperature)
	}
}

func TestClinicalSummary(t *testing.T) {
	p, params, err := ClinicalSummary(task.ClinicalSummary{Note: "Pt c/o chest pain."})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"SOAP", "Pt c/o chest pain.", "[Subjective]", "[Objective]", "[Assessment]", "[Plan]"} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(p, "[Plan]\n\nProvide the summary in the format above.") {
		t.Fatalf("prompt should end with the format instruction:\n%s", p)
	}
	if params.MaxLength != ClinicalSummaryMaxLength {
		t.Fatalf("max length %d", params.MaxLength)
	}
}

func TestTermExplanation_Levels(t *testing.T) {
	cases := map[string]string{
		"patient":       "simple, non-technical",
		"student":       "medical students",
		"professional":  "healthcare professionals",
		"PROFESSIONAL ": "healthcare professionals",
		"":              "simple, non-technical",
	}
	for level, want := range cases {
		p, params, err := TermExplanation(task.TermExplanation{Term: "tachycardia", ReadingLevel: level})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(p, want) || !strings.Contains(p, "Term: tachycardia") || !strings.HasSuffix(p, "Explanation:") {
			t.Fatalf("level %q prompt:\n%s", level, p)
		}
		if params.MaxLength != TermExplanationMaxLength {
			t.Fatalf("max length %d", params.MaxLength)
		}
	}
}

func TestTermExplanation_UnknownLevelFallsBack(t *testing.T) {
	got, _, err := TermExplanation(task.TermExplanation{Term: "angina", ReadingLevel: "unknown_level"})
	if err != nil {
		t.Fatal(err)
	}
	want, _, _ := TermExplanation(task.TermExplanation{Term: "angina", ReadingLevel: "patient"})
	if got != want {
		t.Fatalf("fallback differs from patient template:\n%s\n---\n%s", got, want)
	}
	if ResolveLevel("unknown_level") != task.LevelPatient {
		t.Fatalf("ResolveLevel fallback")
	}
}

func TestDocumentExtraction_Truncates(t *testing.T) {
	doc := strings.Repeat("a", 10000)
	p, params, err := DocumentExtraction(task.DocumentExtraction{Document: doc})
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(p, "a"); n < 5000 || strings.Contains(p, strings.Repeat("a", 5001)) {
		t.Fatalf("document not truncated to 5000 chars")
	}
	if !strings.Contains(p, strings.Repeat("a", 5000)) {
		t.Fatalf("document should keep the first 5000 chars")
	}
	for _, want := range []string{"Patient name", "Policy number", "Coverage details", "Limitations/exclusions", "Important dates", "Format as JSON."} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
	if params.MaxLength != DocumentExtractionMaxLength {
		t.Fatalf("max length %d", params.MaxLength)
	}
}

func TestTruncate_Runes(t *testing.T) {
	s := strings.Repeat("é", 6000)
	got := Truncate(s, MaxDocumentChars)
	if utf8.RuneCountInString(got) != MaxDocumentChars || !utf8.ValidString(got) {
		t.Fatalf("rune truncation broken: %d runes", utf8.RuneCountInString(got))
	}
	if Truncate("short", 10) != "short" || Truncate("abc", 0) != "" {
		t.Fatalf("edge cases")
	}
}

func TestGenerate_Params(t *testing.T) {
	temp := 0.0
	p, params, err := Generate(task.Generate{Prompt: "raw prompt", MaxLength: 64, Temperature: &temp})
	if err != nil {
		t.Fatal(err)
	}
	if p != "raw prompt" || params.MaxLength != 64 || params.Temperature != 0 {
		t.Fatalf("got %q %+v", p, params)
	}
	_, params, _ = Generate(task.Generate{Prompt: "x"})
	if params != backend.DefaultParams() {
		t.Fatalf("defaults not used: %+v", params)
	}
	if _, _, err := Generate(task.Generate{Prompt: "x", MaxLength: 5000}); !errors.Is(err, backend.ErrInvalidParams) {
		t.Fatalf("want ErrInvalidParams, got %v", err)
	}
}

func TestBuild_Dispatch(t *testing.T) {
	tasks := []task.Task{
		task.Generate{Prompt: "p"},
		task.QA{Question: "q"},
		task.ClinicalSummary{Note: "n"},
		task.TermExplanation{Term: "t"},
		task.DocumentExtraction{Document: "d"},
	}
	for _, tk := range tasks {
		p, _, err := Build(tk)
		if err != nil || p == "" {
			t.Fatalf("%s: %q %v", tk.Kind(), p, err)
		}
	}
	if _, _, err := Build(nil); !errors.Is(err, task.ErrInvalidTask) {
		t.Fatalf("nil task: %v", err)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	tk := task.QA{Question: "q", Context: "c"}
	a, pa, _ := Build(tk)
	b, pb, _ := Build(tk)
	if a != b || pa != pb {
		t.Fatalf("builder not pure")
	}
}
