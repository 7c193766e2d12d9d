package usecase

import (
	"fmt"

	"github.com/ferdian3456/tiergate/internal/model"
)

// FailMode is the policy applied when the registry cannot be reached.
type FailMode int8

const (
	FailClosed FailMode = iota
	FailOpen
)

func (m FailMode) String() string {
	if m == FailOpen {
		return "open"
	}
	return "closed"
}

func ParseFailMode(value string) (FailMode, error) {
	switch value {
	case "", "closed":
		return FailClosed, nil
	case "open":
		return FailOpen, nil
	}
	return FailClosed, fmt.Errorf("invalid REGISTRY_FAIL_MODE %q, want open or closed", value)
}

// Decide turns one membership event and one registry snapshot into an action.
// It is a pure function: same inputs always produce the same action, and it
// performs no side effects of its own.
func Decide(event model.MembershipEvent, lookup model.LookupResult, tiers *TierResolver, mode FailMode) model.Action {
	if !tiers.Managed(event.Channel) {
		return model.Action{Kind: model.ActionNoOp, Channel: event.Channel}
	}

	if !event.Joining() {
		return model.Action{Kind: model.ActionNoOp, Channel: event.Channel}
	}

	if lookup.State == model.LookupUnavailable {
		if mode == FailOpen {
			return model.Action{Kind: model.ActionAdmit, Channel: event.Channel}
		}
		return model.Action{Kind: model.ActionDenyEvict, Channel: event.Channel}
	}

	if lookup.State == model.LookupInactive || lookup.Record == nil {
		return model.Action{Kind: model.ActionDenyEvict, Channel: event.Channel}
	}

	tier, ok := tiers.Resolve(lookup.Record.AmountPaid)
	if !ok {
		// An amount outside the table is no valid subscription, not an error.
		return model.Action{Kind: model.ActionDenyEvict, Channel: event.Channel, Amount: lookup.Record.AmountPaid}
	}

	if tier.Channel == event.Channel {
		return model.Action{
			Kind:     model.ActionAdmit,
			Channel:  event.Channel,
			TierName: tier.Name,
			Amount:   lookup.Record.AmountPaid,
		}
	}

	return model.Action{
		Kind:          model.ActionRedirectEvict,
		Channel:       event.Channel,
		TargetChannel: tier.Channel,
		TierName:      tier.Name,
		Amount:        lookup.Record.AmountPaid,
	}
}
