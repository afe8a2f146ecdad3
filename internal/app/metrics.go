package app

// MetricsRecorder receives service-level counters.
// telemetry.Metrics satisfies it; services default to a no-op recorder.
type MetricsRecorder interface {
	ObserveTransition(outcome string)
	ObserveSideEffect(effect string, success bool)
	ObservePublish(outcome string)
	SetCurrentWeek(week int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(string)       {}
func (noopMetrics) ObserveSideEffect(string, bool) {}
func (noopMetrics) ObservePublish(string)          {}
func (noopMetrics) SetCurrentWeek(int)             {}
