// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Outcome classifies the result of an auth operation.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected" // caller error: bad input, credentials, token
	OutcomeError    Outcome = "error"    // backend failure
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	IncRegistration(outcome Outcome)
	IncLogin(outcome Outcome)
	IncRefresh(outcome Outcome)
	IncLogout(outcome Outcome)
	IncAuthentication(outcome Outcome)
	ObservePasswordHashDuration(duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
