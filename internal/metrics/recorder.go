// Package metrics records page build observations. Components receive a
// Recorder and default to NoopRecorder, so metrics stay optional.
package metrics

import "time"

// Outcome labels for page builds and stages.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Recorder receives page build observations.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage, outcome string)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	ObserveSections(n int)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, string)               {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)          {}
func (NoopRecorder) IncBuildOutcome(string)                      {}
func (NoopRecorder) ObserveSections(int)                         {}
