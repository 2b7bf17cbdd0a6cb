package metrics

import "time"

// ResultLabel enumerates step result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// RunOutcome is the final status of an orchestrator run.
type RunOutcome string

const (
	OutcomeSuccess  RunOutcome = "success"
	OutcomeFailed   RunOutcome = "failed"
	OutcomeCanceled RunOutcome = "canceled"
)

// Recorder defines observability hooks for orchestrator runs.
type Recorder interface {
	ObserveVersionDuration(version string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStepResult(step string, result ResultLabel)
	IncRunOutcome(outcome RunOutcome)
	AddMergedFiles(version string, n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveVersionDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)             {}
func (NoopRecorder) IncStepResult(string, ResultLabel)            {}
func (NoopRecorder) IncRunOutcome(RunOutcome)                     {}
func (NoopRecorder) AddMergedFiles(string, int)                   {}
