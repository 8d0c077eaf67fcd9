package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	got, err := ParseOrderStatus(" Accepted ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != OrderStatusAccepted {
		t.Fatalf("expected accepted, got %q", got)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for status, want := range map[OrderStatus]bool{
		OrderStatusPending:    false,
		OrderStatusAccepted:   false,
		OrderStatusDelivering: false,
		OrderStatusDelivered:  true,
		OrderStatusCancelled:  true,
	} {
		if status.Terminal() != want {
			t.Fatalf("%s: expected terminal=%v", status, want)
		}
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	allowed := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusAccepted},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusAccepted, OrderStatusDelivering},
		{OrderStatusDelivering, OrderStatusDelivered},
	}
	for _, pair := range allowed {
		if !pair[0].CanTransitionTo(pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}
	denied := [][2]OrderStatus{
		{OrderStatusPending, OrderStatusDelivered},
		{OrderStatusDelivered, OrderStatusPending},
		{OrderStatusCancelled, OrderStatusAccepted},
	}
	for _, pair := range denied {
		if pair[0].CanTransitionTo(pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestEventTypeIsValid(t *testing.T) {
	if !EventOrderPlaced.IsValid() || EventType("order.lost").IsValid() {
		t.Fatal("unexpected event type validity")
	}
	if _, err := ParseEventType("order.status_changed"); err != nil {
		t.Fatalf("parse: %v", err)
	}
}
