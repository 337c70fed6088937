package pipeline

import (
	"errors"
	"fmt"
)

// Stage names the pipeline step that produced a failure.
type Stage string

const (
	StageValidate Stage = "validate"
	StageResolve  Stage = "resolve"
	StageAdmit    Stage = "admit"
	StageBuild    Stage = "build"
	StageGenerate Stage = "generate"
)

// StageError wraps the first failure of a run with the stage and model
// that produced it. The wrapped error is forwarded unchanged.
type StageError struct {
	Stage Stage
	Model string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Model, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf returns the stage of a pipeline failure, or "" for other errors.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
