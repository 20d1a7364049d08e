// Package handlers defines the typed handler capability, its type-erased
// adapter form, and the per-dispatch value bundle injected into every
// handler invocation. Dispatch resolves handlers through a build-time
// registration table rather than through reflective method lookup.
package handlers

import (
	"context"
	"fmt"

	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/metadata"
)

// SendBus is the publish surface injected into every handler, letting a
// handler enlist outbound sends on the ambient dispatch transaction.
type SendBus interface {
	Publish(ctx context.Context, value any) error
	PublishLocal(ctx context.Context, value any) error
}

// Transactor opens and resolves the ambient transaction a Dispatcher scopes
// around one message's handler set. SendBus implementations consult the
// context Begin returns to decide between an immediate send and buffered
// enlistment.
type Transactor interface {
	Begin(ctx context.Context) context.Context
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)
}

// Context is the per-dispatch value bundle passed to a handler constructor,
// replacing a hierarchical DI container with a plain struct.
type Context struct {
	SendBus  SendBus
	Logger   logging.Logger
	Metadata metadata.Metadata
}

// Handler processes a decoded payload of type T.
type Handler[T any] interface {
	Handle(ctx context.Context, hc Context, payload T) error
}

// FaultHandler processes a payload of type T that has exhausted retries or
// failed to parse, alongside the error that caused escalation.
type FaultHandler[T any] interface {
	Handle(ctx context.Context, hc Context, payload T, cause error) error
}

// Adapter is the type-erased form of a constructed Handler, already bound
// to one dispatch's Context.
type Adapter interface {
	Handle(ctx context.Context, payload any) error
}

// FaultAdapter is the type-erased form of a constructed FaultHandler.
type FaultAdapter interface {
	HandleFault(ctx context.Context, payload any, cause error) error
}

// Constructor builds a fresh Adapter scoped to one dispatch's Context.
type Constructor func(hc Context) Adapter

// FaultConstructor builds a fresh FaultAdapter scoped to one dispatch's Context.
type FaultConstructor func(hc Context) FaultAdapter

type typedAdapter[T any] struct {
	handler Handler[T]
	hc      Context
}

func (a *typedAdapter[T]) Handle(ctx context.Context, payload any) error {
	typed, ok := payload.(T)
	if !ok {
		var zero T
		return fmt.Errorf("junglebus: handler expected %T, got %T", zero, payload)
	}
	return a.handler.Handle(ctx, a.hc, typed)
}

type typedFaultAdapter[T any] struct {
	handler FaultHandler[T]
	hc      Context
}

func (a *typedFaultAdapter[T]) HandleFault(ctx context.Context, payload any, cause error) error {
	typed, ok := payload.(T)
	if !ok {
		var zero T
		return fmt.Errorf("junglebus: fault handler expected %T, got %T", zero, payload)
	}
	return a.handler.Handle(ctx, a.hc, typed, cause)
}

// NewConstructor adapts a handler factory function into a type-erased
// Constructor, downcasting to T once the real dispatch Context is known.
func NewConstructor[T any](newHandler func() Handler[T]) Constructor {
	return func(hc Context) Adapter {
		return &typedAdapter[T]{handler: newHandler(), hc: hc}
	}
}

// NewFaultConstructor adapts a fault handler factory function into a
// type-erased FaultConstructor.
func NewFaultConstructor[T any](newHandler func() FaultHandler[T]) FaultConstructor {
	return func(hc Context) FaultAdapter {
		return &typedFaultAdapter[T]{handler: newHandler(), hc: hc}
	}
}
