package build

import (
	"errors"
	"fmt"

	"github.com/itohio/dhtfw/pkg/toolchain"
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageResolve Stage = "resolve"
	StageWrite   Stage = "write"
	StageBuild   Stage = "build"
	StageCopy    Stage = "copy"
	StageFlash   Stage = "flash"
	StageClean   Stage = "clean"
)

// StageError is a terminal pipeline failure. Code is the process exit code
// to report: the subprocess's own code when it ran, otherwise 1.
type StageError struct {
	Stage Stage
	Code  int
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage Stage, err error) *StageError {
	code := 1
	var exitErr *toolchain.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		code = exitErr.Code
	}
	return &StageError{Stage: stage, Code: code, Err: err}
}
