package relay

import "strings"

// ActionKind classifies a callback data tag. Prefix checks run in priority
// order: delivered, refuse, take; everything else is a generic press.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionTake
	ActionDeliver
	ActionRefuse
)

// UnknownOrderID is the sentinel used when a tag carries no order id
// ("refuse_" with nothing after the separator).
const UnknownOrderID = "?"

type Action struct {
	Kind    ActionKind
	OrderID string
}

const (
	prefixDeliver = "delivered_"
	prefixRefuse  = "refuse_"
	prefixTake    = "take_"
)

// ParseAction turns a free-text callback tag into a closed action variant.
// Malformed tags never fail: a missing remainder yields UnknownOrderID and
// an unrecognized prefix yields ActionUnknown.
func ParseAction(data string) Action {
	lower := strings.ToLower(data)
	switch {
	case strings.HasPrefix(lower, prefixDeliver):
		return Action{Kind: ActionDeliver, OrderID: remainder(data, len(prefixDeliver))}
	case strings.HasPrefix(lower, prefixRefuse):
		return Action{Kind: ActionRefuse, OrderID: remainder(data, len(prefixRefuse))}
	case strings.HasPrefix(lower, prefixTake):
		return Action{Kind: ActionTake, OrderID: remainder(data, len(prefixTake))}
	default:
		return Action{Kind: ActionUnknown, OrderID: UnknownOrderID}
	}
}

func remainder(data string, at int) string {
	if len(data) <= at {
		return UnknownOrderID
	}
	return data[at:]
}
