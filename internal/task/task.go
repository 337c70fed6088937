// Package task defines the request shapes the generation pipeline accepts.
package task

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Kind names one supported request shape.
type Kind string

const (
	KindGenerate           Kind = "generate"
	KindQA                 Kind = "qa"
	KindClinicalSummary    Kind = "clinical_summary"
	KindTermExplanation    Kind = "term_explanation"
	KindDocumentExtraction Kind = "document_extraction"
)

// Kinds lists every supported kind.
var Kinds = []Kind{KindGenerate, KindQA, KindClinicalSummary, KindTermExplanation, KindDocumentExtraction}

// Reading levels for term explanations.
const (
	LevelPatient      = "patient"
	LevelStudent      = "student"
	LevelProfessional = "professional"
)

const (
	DefaultSummaryFormat  = "SOAP"
	DefaultExtractionType = "summary"
)

// ErrInvalidTask is wrapped by every task validation failure.
var ErrInvalidTask = errors.New("invalid task")

var validate = validator.New()

// Task is one request for the pipeline.
type Task interface {
	Kind() Kind
	// Validate reports missing required fields wrapped in ErrInvalidTask.
	Validate() error
	// Metadata returns the task fields echoed back with the result.
	Metadata() map[string]any
}

// Generate is free-form generation from a raw prompt.
type Generate struct {
	Prompt string `validate:"required"`
	// MaxLength zero means the default.
	MaxLength int
	// Temperature nil means the default.
	Temperature *float64
}

func (Generate) Kind() Kind { return KindGenerate }

func (t Generate) Validate() error { return check(t) }

func (t Generate) Metadata() map[string]any {
	return map[string]any{"prompt_chars": len([]rune(t.Prompt))}
}

// QA answers a medical question, optionally grounded in context.
type QA struct {
	Question string `validate:"required"`
	Context  string
}

func (QA) Kind() Kind { return KindQA }

func (t QA) Validate() error { return check(t) }

func (t QA) Metadata() map[string]any {
	return map[string]any{"question": t.Question}
}

// ClinicalSummary summarizes a clinical note.
type ClinicalSummary struct {
	Note   string `validate:"required"`
	Format string
}

func (ClinicalSummary) Kind() Kind { return KindClinicalSummary }

func (t ClinicalSummary) Validate() error { return check(t) }

func (t ClinicalSummary) Metadata() map[string]any {
	f := t.Format
	if f == "" {
		f = DefaultSummaryFormat
	}
	return map[string]any{"format": f}
}

// TermExplanation explains a medical term at a reading level.
type TermExplanation struct {
	Term         string `validate:"required"`
	ReadingLevel string
}

func (TermExplanation) Kind() Kind { return KindTermExplanation }

func (t TermExplanation) Validate() error { return check(t) }

func (t TermExplanation) Metadata() map[string]any {
	lvl := t.ReadingLevel
	if lvl == "" {
		lvl = LevelPatient
	}
	return map[string]any{"term": t.Term, "reading_level": lvl}
}

// DocumentExtraction pulls key fields out of document text.
type DocumentExtraction struct {
	Document       string `validate:"required"`
	ExtractionType string
	Filename       string
}

func (DocumentExtraction) Kind() Kind { return KindDocumentExtraction }

func (t DocumentExtraction) Validate() error { return check(t) }

func (t DocumentExtraction) Metadata() map[string]any {
	et := t.ExtractionType
	if et == "" {
		et = DefaultExtractionType
	}
	md := map[string]any{"extraction_type": et}
	if t.Filename != "" {
		md["filename"] = t.Filename
	}
	return md
}

func check(t any) error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s is %s", ErrInvalidTask, strings.ToLower(verrs[0].Field()), verrs[0].Tag())
	}
	return fmt.Errorf("%w: %v", ErrInvalidTask, err)
}
