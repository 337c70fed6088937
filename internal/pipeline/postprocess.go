package pipeline

import (
	"strings"

	"nightingale/internal/task"
)

// AnswerMarker separates the echoed QA instruction from the answer.
const AnswerMarker = "Answer:"

// ExtractAnswer returns the trimmed text after the last AnswerMarker, or
// text unchanged when the marker is absent.
func ExtractAnswer(text string) string {
	i := strings.LastIndex(text, AnswerMarker)
	if i < 0 {
		return text
	}
	return strings.TrimSpace(text[i+len(AnswerMarker):])
}

func postProcess(kind task.Kind, raw string) string {
	switch kind {
	case task.KindQA:
		return ExtractAnswer(raw)
	default:
		return raw
	}
}
