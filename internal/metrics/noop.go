package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRegistration is a no-op.
func (n *NoopRecorder) IncRegistration(Outcome) {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(Outcome) {}

// IncRefresh is a no-op.
func (n *NoopRecorder) IncRefresh(Outcome) {}

// IncLogout is a no-op.
func (n *NoopRecorder) IncLogout(Outcome) {}

// IncAuthentication is a no-op.
func (n *NoopRecorder) IncAuthentication(Outcome) {}

// ObservePasswordHashDuration is a no-op.
func (n *NoopRecorder) ObservePasswordHashDuration(time.Duration) {}
