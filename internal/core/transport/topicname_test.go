package transport

import "testing"

func TestTopicName(t *testing.T) {
	cases := map[string]string{
		"example.OrderPlaced":        "example_OrderPlaced",
		"example.orders.OrderPlaced": "example_orders_OrderPlaced",
		"NoDots":                     "NoDots",
	}
	for in, want := range cases {
		if got := TopicName(in); got != want {
			t.Fatalf("TopicName(%q) = %q, want %q", in, got, want)
		}
	}
}
