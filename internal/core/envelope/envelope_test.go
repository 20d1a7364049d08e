package envelope

import "testing"

func TestNewEncodeDecodeRoundTrip(t *testing.T) {
	env := New(`{"name":"widget"}`, map[string]string{
		AttrMessageType: "example.Widget",
		AttrSender:      "queue-a",
	})

	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}

	if decoded.Message != `{"name":"widget"}` {
		t.Fatalf("expected message to round-trip, got %q", decoded.Message)
	}
	if decoded.TypeName() != "example.Widget" {
		t.Fatalf("expected type name example.Widget, got %q", decoded.TypeName())
	}
	attrs := decoded.StringAttributes()
	if attrs[AttrSender] != "queue-a" {
		t.Fatalf("expected sender attribute queue-a, got %#v", attrs)
	}
}

func TestTypeNameEmptyWithoutAttributes(t *testing.T) {
	env := &Envelope{Message: "{}"}
	if env.TypeName() != "" {
		t.Fatalf("expected empty type name, got %q", env.TypeName())
	}
}

func TestDecodeMalformedBody(t *testing.T) {
	if _, err := Decode([]byte("not json")); err == nil {
		t.Fatal("expected error decoding malformed envelope")
	}
}
