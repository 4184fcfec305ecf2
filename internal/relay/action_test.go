package relay

import "testing"

func TestParseAction(t *testing.T) {
	cases := []struct {
		name string
		data string
		kind ActionKind
		id   string
	}{
		{"take", "take_152", ActionTake, "152"},
		{"delivered", "delivered_99", ActionDeliver, "99"},
		{"refuse", "refuse_7", ActionRefuse, "7"},
		{"refuse empty remainder", "refuse_", ActionRefuse, UnknownOrderID},
		{"take empty remainder", "take_", ActionTake, UnknownOrderID},
		{"case insensitive", "Take_42", ActionTake, "42"},
		{"unknown tag", "noop", ActionUnknown, UnknownOrderID},
		{"empty tag", "", ActionUnknown, UnknownOrderID},
		{"delivered wins over take substring", "delivered_take_1", ActionDeliver, "take_1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseAction(tc.data)
			if got.Kind != tc.kind {
				t.Fatalf("kind = %v, want %v", got.Kind, tc.kind)
			}
			if got.OrderID != tc.id {
				t.Fatalf("order id = %q, want %q", got.OrderID, tc.id)
			}
		})
	}
}
