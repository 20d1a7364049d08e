package pump

import (
	"context"
	"errors"
	"testing"

	"github.com/neilfitzgerald/JungleBus/internal/core/codec"
	"github.com/neilfitzgerald/JungleBus/internal/core/dispatch"
	"github.com/neilfitzgerald/JungleBus/internal/core/envelope"
	"github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	"github.com/neilfitzgerald/JungleBus/internal/core/msg"
	"github.com/neilfitzgerald/JungleBus/internal/core/parser"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
	"github.com/neilfitzgerald/JungleBus/internal/core/types"
)

type widget struct {
	Name string `json:"name"`
}

var errHandlerAlwaysFails = errors.New("handler always fails")

// noopTransactor satisfies handlers.Transactor with a pass-through scope:
// tests here care about retry/dead-letter bookkeeping, not enlistment.
type noopTransactor struct{}

func (noopTransactor) Begin(ctx context.Context) context.Context { return ctx }
func (noopTransactor) Commit(ctx context.Context) error          { return nil }
func (noopTransactor) Rollback(ctx context.Context)              {}

type noopSendBus struct{}

func (noopSendBus) Publish(ctx context.Context, value any) error      { return nil }
func (noopSendBus) PublishLocal(ctx context.Context, value any) error { return nil }

type fakeQueue struct {
	deletes []string
}

func (q *fakeQueue) Receive(ctx context.Context) ([]transport.RawMessage, error) { return nil, nil }
func (q *fakeQueue) Delete(ctx context.Context, receiptHandle string) error {
	q.deletes = append(q.deletes, receiptHandle)
	return nil
}
func (q *fakeQueue) Subscribe(ctx context.Context, names []string) error { return nil }
func (q *fakeQueue) Enqueue(ctx context.Context, body string, attrs map[string]string) error {
	return nil
}
func (q *fakeQueue) Address() string { return "test-queue" }

type failingHandler struct{}

func (failingHandler) Handle(ctx context.Context, hc handlers.Context, payload widget) error {
	return errHandlerAlwaysFails
}

type faultRecorder struct {
	transportInvocations int
	widgetInvocations    int
}

type transportFaultHandler struct{ rec *faultRecorder }

func (h transportFaultHandler) Handle(ctx context.Context, hc handlers.Context, payload *msg.TransportMessage, cause error) error {
	h.rec.transportInvocations++
	return nil
}

type widgetFaultHandler struct{ rec *faultRecorder }

func (h widgetFaultHandler) Handle(ctx context.Context, hc handlers.Context, payload widget, cause error) error {
	h.rec.widgetInvocations++
	return nil
}

func newTestPump(t *testing.T, maxRetries int, rec *faultRecorder) (*Pump, *fakeQueue, *types.Registry) {
	t.Helper()
	typeRegistry := types.NewRegistry()
	types.Register[widget](typeRegistry, "example.Widget")

	handlerRegistry := handlers.NewRegistry()
	handlers.RegisterHandler[widget](handlerRegistry, "failing-handler", func() handlers.Handler[widget] {
		return failingHandler{}
	})
	handlers.RegisterFaultHandler[widget](handlerRegistry, "widget-fault", func() handlers.FaultHandler[widget] {
		return widgetFaultHandler{rec: rec}
	})
	handlers.RegisterFaultHandler[*msg.TransportMessage](handlerRegistry, "transport-fault", func() handlers.FaultHandler[*msg.TransportMessage] {
		return transportFaultHandler{rec: rec}
	})

	factory := handlers.NewFactory(handlerRegistry, noopSendBus{}, nil)
	dispatcher := dispatch.New(factory, noopTransactor{}, nil, nil)
	msgParser := parser.New(typeRegistry, codec.NewJSONCodec())
	q := &fakeQueue{}

	p := New(Config{
		Queue:      q,
		Parser:     msgParser,
		Dispatcher: dispatcher,
		MaxRetries: maxRetries,
	})
	return p, q, typeRegistry
}

func encodeWidget(t *testing.T, typeName string, w widget) string {
	t.Helper()
	body, err := codec.NewJSONCodec().Marshal(w)
	if err != nil {
		t.Fatalf("failed to marshal widget: %v", err)
	}
	env := envelope.New(string(body), map[string]string{envelope.AttrMessageType: typeName})
	out, err := env.Encode()
	if err != nil {
		t.Fatalf("failed to encode envelope: %v", err)
	}
	return string(out)
}

func TestUnresolvableTypeGoesToFaultPath(t *testing.T) {
	rec := &faultRecorder{}
	p, q, _ := newTestPump(t, 3, rec)

	raw := transport.RawMessage{
		ReceiptHandle:           "rh-1",
		Body:                    encodeWidget(t, "example.Unregistered", widget{Name: "x"}),
		ApproximateReceiveCount: 1,
	}

	p.handle(context.Background(), raw)

	if rec.transportInvocations != 1 {
		t.Fatalf("expected transport-level fault handler invoked once, got %d", rec.transportInvocations)
	}
	if rec.widgetInvocations != 0 {
		t.Fatalf("expected decoded-type fault handler not invoked, got %d", rec.widgetInvocations)
	}
	if len(q.deletes) != 1 || q.deletes[0] != "rh-1" {
		t.Fatalf("expected message deleted once, got %#v", q.deletes)
	}
}

func TestRetryThenDeadLetter(t *testing.T) {
	rec := &faultRecorder{}
	p, q, _ := newTestPump(t, 3, rec)

	body := encodeWidget(t, "example.Widget", widget{Name: "x"})

	// Attempts 1 and 2: handler fails, retries remain, message stays undeleted.
	for i := 1; i <= 2; i++ {
		p.handle(context.Background(), transport.RawMessage{
			ReceiptHandle:           "rh-retry",
			Body:                    body,
			ApproximateReceiveCount: i,
		})
		if len(q.deletes) != 0 {
			t.Fatalf("attempt %d: expected message left undeleted, got %d deletes", i, len(q.deletes))
		}
	}

	// Attempt 3 exhausts retries: fault handlers invoked, message deleted.
	p.handle(context.Background(), transport.RawMessage{
		ReceiptHandle:           "rh-retry",
		Body:                    body,
		ApproximateReceiveCount: 3,
	})

	if rec.widgetInvocations != 1 {
		t.Fatalf("expected decoded-type fault handler invoked once, got %d", rec.widgetInvocations)
	}
	if rec.transportInvocations != 1 {
		t.Fatalf("expected transport-level fault handler invoked once, got %d", rec.transportInvocations)
	}
	if len(q.deletes) != 1 || q.deletes[0] != "rh-retry" {
		t.Fatalf("expected message deleted exactly once after exhausting retries, got %#v", q.deletes)
	}
}
