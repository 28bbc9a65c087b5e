package service

// Outcome reports what a best-effort registry operation actually did.
// Signaling traffic for a call that already ended must not raise errors,
// so stale references degrade to a no-op; the outcome lets callers and
// tests still distinguish the cases.
type Outcome int

const (
	OutcomeApplied Outcome = iota
	OutcomeNoRoom
	OutcomeNoPeer
	OutcomeNoTarget
	OutcomeUnsupported
)

func (o Outcome) Applied() bool { return o == OutcomeApplied }

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeNoRoom:
		return "no-op: unknown room"
	case OutcomeNoPeer:
		return "no-op: sender not in room"
	case OutcomeNoTarget:
		return "no-op: unknown target peer"
	case OutcomeUnsupported:
		return "no-op: unsupported signal type"
	default:
		return "unknown"
	}
}
