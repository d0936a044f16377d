package provisioner

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StepStatus is the outcome of a pipeline step.
type StepStatus int

const (
	// StepOK means the step completed without problems.
	StepOK StepStatus = iota
	// StepSoftFailure means the step completed with non-fatal problems.
	StepSoftFailure
	// StepFatal means the run cannot continue.
	StepFatal
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepSoftFailure:
		return "soft failure"
	case StepFatal:
		return "fatal"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StepResult is what a step reports back to the pipeline.
type StepResult struct {
	Status StepStatus
	// Reason explains soft and fatal results.
	Reason error
}

// Step is one unit of the run.
type Step struct {
	// Name is used in log lines and fatal errors.
	Name string
	// Run executes the step.
	Run func(ctx context.Context) StepResult
}

// FatalError is returned by a run that stopped at a fatal step.
// It has already been logged when it reaches the caller.
type FatalError struct {
	// Step is the name of the step that failed.
	Step string
	// Err is the step's reason.
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func ok() StepResult {
	return StepResult{Status: StepOK}
}

func soft(reason error) StepResult {
	return StepResult{Status: StepSoftFailure, Reason: reason}
}

func fatal(reason error) StepResult {
	return StepResult{Status: StepFatal, Reason: reason}
}

// runPipeline executes steps in order and stops at the first fatal result.
// It returns the names of steps that ended with a soft failure.
func runPipeline(ctx context.Context, steps []Step, log *zap.SugaredLogger) ([]string, error) {
	var softFailures []string

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			log.Errorf("Run interrupted before %s: %v", step.Name, err)
			return softFailures, &FatalError{Step: step.Name, Err: err}
		}

		log.Debugf("Step %s started", step.Name)

		result := step.Run(ctx)

		switch result.Status {
		case StepFatal:
			log.Errorf("%s failed: %v", step.Name, result.Reason)
			return softFailures, &FatalError{Step: step.Name, Err: result.Reason}
		case StepSoftFailure:
			log.Warnf("%s completed with problems: %v", step.Name, result.Reason)
			softFailures = append(softFailures, step.Name)
		default:
			log.Debugf("Step %s completed", step.Name)
		}
	}

	return softFailures, nil
}
