package parser

import (
	"testing"

	"github.com/neilfitzgerald/JungleBus/internal/core/codec"
	"github.com/neilfitzgerald/JungleBus/internal/core/envelope"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
	"github.com/neilfitzgerald/JungleBus/internal/core/types"
)

type widget struct {
	Name string `json:"name"`
}

func buildRaw(t *testing.T, typeName, body string) transport.RawMessage {
	t.Helper()
	env := envelope.New(body, map[string]string{envelope.AttrMessageType: typeName})
	raw, err := env.Encode()
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	return transport.RawMessage{ReceiptHandle: "rh", Body: string(raw), ApproximateReceiveCount: 1}
}

func TestParseSucceeds(t *testing.T) {
	registry := types.NewRegistry()
	types.Register[widget](registry, "example.Widget")
	p := New(registry, codec.NewJSONCodec())

	raw := buildRaw(t, "example.Widget", `{"name":"gadget"}`)
	tm := p.Parse(raw)

	if !tm.ParsingSucceeded {
		t.Fatalf("expected parsing to succeed, got error: %v", tm.ParseError)
	}
	w, ok := tm.Message.(widget)
	if !ok || w.Name != "gadget" {
		t.Fatalf("expected decoded widget, got %#v", tm.Message)
	}
}

func TestParseFailsOnUnknownType(t *testing.T) {
	registry := types.NewRegistry()
	p := New(registry, codec.NewJSONCodec())

	raw := buildRaw(t, "example.Unregistered", `{"name":"gadget"}`)
	tm := p.Parse(raw)

	if tm.ParsingSucceeded {
		t.Fatal("expected parsing to fail for unregistered type")
	}
	if tm.ParseError == nil {
		t.Fatal("expected a parse error to be recorded")
	}
}

func TestParseFailsOnMalformedEnvelope(t *testing.T) {
	registry := types.NewRegistry()
	p := New(registry, codec.NewJSONCodec())

	raw := transport.RawMessage{ReceiptHandle: "rh", Body: "not json", ApproximateReceiveCount: 1}
	tm := p.Parse(raw)

	if tm.ParsingSucceeded {
		t.Fatal("expected parsing to fail for malformed envelope")
	}
}

func TestParseDefaultsRetryCountToOne(t *testing.T) {
	registry := types.NewRegistry()
	types.Register[widget](registry, "example.Widget")
	p := New(registry, codec.NewJSONCodec())

	raw := buildRaw(t, "example.Widget", `{"name":"gadget"}`)
	raw.ApproximateReceiveCount = 0
	tm := p.Parse(raw)

	if tm.RetryCount != 1 {
		t.Fatalf("expected RetryCount defaulted to 1, got %d", tm.RetryCount)
	}
}
