package handlers

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type widget struct{ Name string }
type gadget struct{ Name string }

type widgetHandler struct{ invocations int }

func (h *widgetHandler) Handle(ctx context.Context, hc Context, payload widget) error {
	h.invocations++
	return nil
}

func TestConstructorBuildsAdapterAndDispatchesTypedPayload(t *testing.T) {
	h := &widgetHandler{}
	ctor := NewConstructor(func() Handler[widget] { return h })
	adapter := ctor(Context{})

	if err := adapter.Handle(context.Background(), widget{Name: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.invocations != 1 {
		t.Fatalf("expected handler invoked once, got %d", h.invocations)
	}
}

func TestAdapterRejectsMismatchedPayloadType(t *testing.T) {
	ctor := NewConstructor(func() Handler[widget] { return &widgetHandler{} })
	adapter := ctor(Context{})

	err := adapter.Handle(context.Background(), gadget{Name: "wrong"})
	if err == nil {
		t.Fatal("expected error for mismatched payload type")
	}
}

type widgetFaultHandler struct{ lastCause error }

func (h *widgetFaultHandler) Handle(ctx context.Context, hc Context, payload widget, cause error) error {
	h.lastCause = cause
	return nil
}

func TestFaultConstructorPassesCauseThrough(t *testing.T) {
	h := &widgetFaultHandler{}
	ctor := NewFaultConstructor(func() FaultHandler[widget] { return h })
	adapter := ctor(Context{})

	cause := errors.New("exhausted retries")
	if err := adapter.HandleFault(context.Background(), widget{Name: "x"}, cause); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.lastCause != cause {
		t.Fatalf("expected cause to be passed through, got %v", h.lastCause)
	}
}

func TestFactoryBuildHandlersKeepsRegisteredName(t *testing.T) {
	registry := NewRegistry()
	RegisterHandler[widget](registry, "widget-handler", func() Handler[widget] {
		return &widgetHandler{}
	})

	factory := NewFactory(registry, nil, nil)
	built := factory.BuildHandlers(reflect.TypeOf(widget{}), nil)
	if len(built) != 1 {
		t.Fatalf("expected one built handler, got %d", len(built))
	}
	if built[0].Name != "widget-handler" {
		t.Fatalf("expected name widget-handler, got %q", built[0].Name)
	}
}

func TestFactoryBuildHandlersReturnsNilWhenNoneRegistered(t *testing.T) {
	factory := NewFactory(NewRegistry(), nil, nil)
	if built := factory.BuildHandlers(reflect.TypeOf(widget{}), nil); built != nil {
		t.Fatalf("expected nil, got %#v", built)
	}
}
