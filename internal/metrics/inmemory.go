package metrics

import (
	"sync/atomic"
	"time"
)

// OutcomeCounts holds per-outcome counters for one operation.
type OutcomeCounts struct {
	Success  uint64
	Rejected uint64
	Error    uint64
}

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Registrations             OutcomeCounts
	Logins                    OutcomeCounts
	Refreshes                 OutcomeCounts
	Logouts                   OutcomeCounts
	Authentications           OutcomeCounts
	PasswordHashCount         uint64
	PasswordHashDurationTotal int64
}

type outcomeCounters struct {
	success  atomic.Uint64
	rejected atomic.Uint64
	errored  atomic.Uint64
}

func (c *outcomeCounters) inc(outcome Outcome) {
	switch outcome {
	case OutcomeSuccess:
		c.success.Add(1)
	case OutcomeRejected:
		c.rejected.Add(1)
	default:
		c.errored.Add(1)
	}
}

func (c *outcomeCounters) load() OutcomeCounts {
	return OutcomeCounts{
		Success:  c.success.Load(),
		Rejected: c.rejected.Load(),
		Error:    c.errored.Load(),
	}
}

// InMemoryRecorder stores metrics in memory.
type InMemoryRecorder struct {
	registrations     outcomeCounters
	logins            outcomeCounters
	refreshes         outcomeCounters
	logouts           outcomeCounters
	authentications   outcomeCounters
	hashCount         atomic.Uint64
	hashDurationTotal atomic.Int64
}

var (
	_ Recorder    = (*InMemoryRecorder)(nil)
	_ Snapshotter = (*InMemoryRecorder)(nil)
)

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		Registrations:             m.registrations.load(),
		Logins:                    m.logins.load(),
		Refreshes:                 m.refreshes.load(),
		Logouts:                   m.logouts.load(),
		Authentications:           m.authentications.load(),
		PasswordHashCount:         m.hashCount.Load(),
		PasswordHashDurationTotal: m.hashDurationTotal.Load(),
	}
}

// IncRegistration counts a registration attempt.
func (m *InMemoryRecorder) IncRegistration(outcome Outcome) { m.registrations.inc(outcome) }

// IncLogin counts a login attempt.
func (m *InMemoryRecorder) IncLogin(outcome Outcome) { m.logins.inc(outcome) }

// IncRefresh counts a token refresh attempt.
func (m *InMemoryRecorder) IncRefresh(outcome Outcome) { m.refreshes.inc(outcome) }

// IncLogout counts a logout.
func (m *InMemoryRecorder) IncLogout(outcome Outcome) { m.logouts.inc(outcome) }

// IncAuthentication counts a bearer token check.
func (m *InMemoryRecorder) IncAuthentication(outcome Outcome) { m.authentications.inc(outcome) }

// ObservePasswordHashDuration records time spent hashing a password.
func (m *InMemoryRecorder) ObservePasswordHashDuration(duration time.Duration) {
	m.hashCount.Add(1)
	m.hashDurationTotal.Add(duration.Nanoseconds())
}
