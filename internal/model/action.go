package model

// ActionKind is the closed set of decisions the engine can emit.
type ActionKind int8

const (
	ActionNoOp ActionKind = iota
	ActionAdmit
	ActionRedirectEvict
	ActionDenyEvict
)

func (k ActionKind) String() string {
	switch k {
	case ActionNoOp:
		return "noop"
	case ActionAdmit:
		return "admit"
	case ActionRedirectEvict:
		return "redirect_evict"
	case ActionDenyEvict:
		return "deny_evict"
	}
	return "unknown"
}

// Action is synthesized per event, executed immediately and discarded. It is
// never queued or persisted, so re-deriving it for a redelivered event must be
// safe (execution is idempotent by construction).
type Action struct {
	Kind ActionKind

	// Channel the action applies to (the channel the event was observed in).
	Channel string

	// TargetChannel is the designated channel for RedirectEvict.
	TargetChannel string

	// TierName and Amount describe the matched subscription, for notifications.
	TierName string
	Amount   int64
}

// ExecutionReport is the outcome of applying one Action. Err is set only when
// the irrevocable step (ban/unban) failed; best-effort notification failures
// are logged, never reported.
type ExecutionReport struct {
	Action    Action
	Completed bool
	Notified  bool
	Err       error
}
