package model

// MemberStatus is the raw membership status reported by the platform for one
// chat. The decision engine only cares about the present / not-present split.
type MemberStatus string

const (
	StatusLeft          MemberStatus = "left"
	StatusKicked        MemberStatus = "kicked"
	StatusBanned        MemberStatus = "banned"
	StatusRestricted    MemberStatus = "restricted"
	StatusMember        MemberStatus = "member"
	StatusAdministrator MemberStatus = "administrator"
	StatusCreator       MemberStatus = "creator"
)

// Present reports whether the status means the user is inside the chat.
func (s MemberStatus) Present() bool {
	switch s {
	case StatusMember, StatusAdministrator, StatusCreator:
		return true
	}
	return false
}

// MembershipEvent is one normalized member-status transition. It is built per
// update and never persisted.
type MembershipEvent struct {
	Identity  int64
	Handle    string
	Channel   string
	OldStatus MemberStatus
	NewStatus MemberStatus
}

// Joining reports whether the transition is not-present -> present, the only
// transition that triggers an authorization decision.
func (e MembershipEvent) Joining() bool {
	return !e.OldStatus.Present() && e.NewStatus.Present()
}
