package application

import "time"

// Dashboard variants, used as metric labels and memo keys.
const (
	VariantTeam = "team"
	VariantFlow = "flow"
)

// Recorder receives operational measurements from the services.
type Recorder interface {
	FetchFailed(variant string)
	Aggregated(variant string, elapsed time.Duration, taskCount int)
	Reassigned(success bool, count int)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) FetchFailed(string)                     {}
func (NopRecorder) Aggregated(string, time.Duration, int) {}
func (NopRecorder) Reassigned(bool, int)                   {}

var _ Recorder = NopRecorder{}
