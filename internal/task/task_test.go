package task

import (
	"errors"
	"testing"
)

func TestValidate_Required(t *testing.T) {
	cases := []struct {
		name string
		task Task
		ok   bool
	}{
		{"generate empty", Generate{}, false},
		{"generate ok", Generate{Prompt: "hi"}, true},
		{"qa empty question", QA{Context: "c"}, false},
		{"qa no context", QA{Question: "q"}, true},
		{"summary empty", ClinicalSummary{}, false},
		{"term empty", TermExplanation{ReadingLevel: LevelStudent}, false},
		{"term ok", TermExplanation{Term: "MI"}, true},
		{"document empty", DocumentExtraction{}, false},
		{"document ok", DocumentExtraction{Document: "policy"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.task.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidTask) {
				t.Fatalf("want ErrInvalidTask, got %v", err)
			}
		})
	}
}

func TestKinds(t *testing.T) {
	tasks := []Task{Generate{}, QA{}, ClinicalSummary{}, TermExplanation{}, DocumentExtraction{}}
	for i, tk := range tasks {
		if tk.Kind() != Kinds[i] {
			t.Fatalf("task %d kind %s want %s", i, tk.Kind(), Kinds[i])
		}
	}
}

func TestMetadata_Defaults(t *testing.T) {
	if md := (TermExplanation{Term: "x"}).Metadata(); md["reading_level"] != LevelPatient {
		t.Fatalf("reading level default: %v", md)
	}
	if md := (TermExplanation{Term: "x", ReadingLevel: "unknown_level"}).Metadata(); md["reading_level"] != "unknown_level" {
		t.Fatalf("reading level should echo the request: %v", md)
	}
	if md := (ClinicalSummary{Note: "n"}).Metadata(); md["format"] != "SOAP" {
		t.Fatalf("format default: %v", md)
	}
	md := (DocumentExtraction{Document: "d", Filename: "policy.pdf"}).Metadata()
	if md["extraction_type"] != "summary" || md["filename"] != "policy.pdf" {
		t.Fatalf("document metadata: %v", md)
	}
}
