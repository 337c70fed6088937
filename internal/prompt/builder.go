// Package prompt turns task fields into a model prompt and the generation
// parameters for that task. Every builder is pure.
package prompt

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"nightingale/internal/backend"
	"nightingale/internal/task"
)

// Output bounds per task kind.
const (
	QAMaxLength                 = 300
	ClinicalSummaryMaxLength    = 500
	TermExplanationMaxLength    = 200
	DocumentExtractionMaxLength = 300

	// MaxDocumentChars bounds the document text placed in a prompt.
	MaxDocumentChars = 5000
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

var levelInstructions = map[string]string{
	task.LevelPatient:      "Explain in simple, non-technical language suitable for patients",
	task.LevelStudent:      "Explain for medical students with some technical detail",
	task.LevelProfessional: "Provide detailed, technical explanation for healthcare professionals",
}

// ResolveLevel maps a requested reading level to a supported one.
// Unrecognized levels resolve to patient.
func ResolveLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if _, ok := levelInstructions[l]; ok {
		return l
	}
	return task.LevelPatient
}

// Generate passes the prompt through verbatim with the caller's length and
// temperature over the defaults.
func Generate(t task.Generate) (string, backend.Params, error) {
	p := backend.DefaultParams()
	if t.MaxLength != 0 {
		p.MaxLength = t.MaxLength
	}
	if t.Temperature != nil {
		p.Temperature = *t.Temperature
	}
	if err := p.Validate(); err != nil {
		return "", backend.Params{}, err
	}
	return t.Prompt, p, nil
}

func QA(t task.QA) (string, backend.Params, error) {
	return render("qa.tmpl", t, QAMaxLength)
}

func ClinicalSummary(t task.ClinicalSummary) (string, backend.Params, error) {
	return render("clinical_summary.tmpl", t, ClinicalSummaryMaxLength)
}

func TermExplanation(t task.TermExplanation) (string, backend.Params, error) {
	data := struct{ Instruction, Term string }{
		Instruction: levelInstructions[ResolveLevel(t.ReadingLevel)],
		Term:        t.Term,
	}
	return render("term_explanation.tmpl", data, TermExplanationMaxLength)
}

// DocumentExtraction truncates the document to MaxDocumentChars runes
// before building the prompt.
func DocumentExtraction(t task.DocumentExtraction) (string, backend.Params, error) {
	data := struct{ Document string }{Document: Truncate(t.Document, MaxDocumentChars)}
	return render("document_extraction.tmpl", data, DocumentExtractionMaxLength)
}

// Build dispatches on the task kind.
func Build(t task.Task) (string, backend.Params, error) {
	switch v := t.(type) {
	case task.Generate:
		return Generate(v)
	case task.QA:
		return QA(v)
	case task.ClinicalSummary:
		return ClinicalSummary(v)
	case task.TermExplanation:
		return TermExplanation(v)
	case task.DocumentExtraction:
		return DocumentExtraction(v)
	case nil:
		return "", backend.Params{}, fmt.Errorf("%w: nil task", task.ErrInvalidTask)
	default:
		return "", backend.Params{}, fmt.Errorf("%w: unsupported kind %q", task.ErrInvalidTask, t.Kind())
	}
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func render(name string, data any, maxLength int) (string, backend.Params, error) {
	var b strings.Builder
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", backend.Params{}, fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimRight(b.String(), "\n"), backend.DefaultParams().WithMaxLength(maxLength), nil
}
