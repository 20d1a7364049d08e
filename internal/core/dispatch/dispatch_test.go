package dispatch

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/neilfitzgerald/JungleBus/internal/core/errs"
	"github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	"github.com/neilfitzgerald/JungleBus/internal/core/msg"
)

type widget struct{ Name string }

type noopTransactor struct {
	commits   int
	rollbacks int
}

func (t *noopTransactor) Begin(ctx context.Context) context.Context { return ctx }
func (t *noopTransactor) Commit(ctx context.Context) error          { t.commits++; return nil }
func (t *noopTransactor) Rollback(ctx context.Context)              { t.rollbacks++ }

type noopSendBus struct{}

func (noopSendBus) Publish(ctx context.Context, value any) error      { return nil }
func (noopSendBus) PublishLocal(ctx context.Context, value any) error { return nil }

type okHandler struct{ invocations *int }

func (h okHandler) Handle(ctx context.Context, hc handlers.Context, payload widget) error {
	*h.invocations++
	return nil
}

func TestDispatchNoHandlerRegistered(t *testing.T) {
	registry := handlers.NewRegistry()
	factory := handlers.NewFactory(registry, noopSendBus{}, nil)
	tx := &noopTransactor{}
	d := New(factory, tx, nil, nil)

	tm := &msg.TransportMessage{
		MessageTypeName:  "example.Widget",
		MessageType:      reflect.TypeOf(widget{}),
		Message:          widget{Name: "x"},
		ParsingSucceeded: true,
	}

	result := d.Dispatch(context.Background(), tm)
	if result.Success {
		t.Fatal("expected dispatch to fail when no handler is registered")
	}
	if !errors.Is(result.Error, errs.ErrNoHandlerForType) {
		t.Fatalf("expected ErrNoHandlerForType, got %v", result.Error)
	}
	if tx.commits != 0 {
		t.Fatalf("expected no commit when no handler ran, got %d", tx.commits)
	}
}

func TestDispatchInvokesHandlerAndCommits(t *testing.T) {
	var invocations int
	registry := handlers.NewRegistry()
	handlers.RegisterHandler[widget](registry, "widget-handler", func() handlers.Handler[widget] {
		return okHandler{invocations: &invocations}
	})
	factory := handlers.NewFactory(registry, noopSendBus{}, nil)
	tx := &noopTransactor{}
	d := New(factory, tx, nil, nil)

	tm := &msg.TransportMessage{
		MessageTypeName:  "example.Widget",
		MessageType:      reflect.TypeOf(widget{}),
		Message:          widget{Name: "x"},
		ParsingSucceeded: true,
	}

	result := d.Dispatch(context.Background(), tm)
	if !result.Success {
		t.Fatalf("expected success, got error: %v", result.Error)
	}
	if invocations != 1 {
		t.Fatalf("expected handler invoked once, got %d", invocations)
	}
	if tx.commits != 1 {
		t.Fatalf("expected exactly one commit, got %d", tx.commits)
	}
}
