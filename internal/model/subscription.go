package model

// LookupState is the tri-state outcome of a registry query. Unavailable is a
// distinct case from Inactive: the configured fail mode decides what happens
// when the registry cannot be reached, not the call site.
type LookupState int8

const (
	LookupActive LookupState = iota
	LookupInactive
	LookupUnavailable
)

func (s LookupState) String() string {
	switch s {
	case LookupActive:
		return "active"
	case LookupInactive:
		return "inactive"
	case LookupUnavailable:
		return "unavailable"
	}
	return "unknown"
}

// SubscriptionRecord is a point-in-time snapshot of one registry row. The
// registry owns the data; the engine only ever reads it.
type SubscriptionRecord struct {
	Identity      int64  `json:"telegramUserId"`
	Handle        string `json:"telegramUsername"`
	AmountPaid    int64  `json:"amountPaid"`
	PaymentStatus string `json:"paymentStatus"`
	IsActive      bool   `json:"isActive"`
}

// LookupResult carries the state and, when Active, the first qualifying record.
type LookupResult struct {
	State  LookupState
	Record *SubscriptionRecord
}

// Tier is one access level, mapped 1:1 to a managed channel.
type Tier struct {
	Name    string
	Channel string
}
