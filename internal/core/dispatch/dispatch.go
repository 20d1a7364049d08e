// Package dispatch processes one TransportMessage through its handler set
// under a transactional scope, and escalates failed or unparsed messages to
// the registered fault handlers.
package dispatch

import (
	"context"
	"fmt"
	"reflect"

	"github.com/neilfitzgerald/JungleBus/internal/core/errs"
	"github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/metadata"
	"github.com/neilfitzgerald/JungleBus/internal/core/msg"
)

// Observer receives dispatch lifecycle events for metrics and tracing,
// without coupling this package to a concrete metrics or tracing library.
type Observer interface {
	OnHandlerInvoked(handlerName string, messageType string, err error)
	OnFaultHandlerInvoked(handlerName string, err error)
}

type noopObserver struct{}

func (noopObserver) OnHandlerInvoked(string, string, error) {}
func (noopObserver) OnFaultHandlerInvoked(string, error)    {}

// Dispatcher processes one TransportMessage through its handler set.
type Dispatcher struct {
	factory    *handlers.Factory
	transactor handlers.Transactor
	logger     logging.Logger
	observer   Observer
}

// New returns a Dispatcher that constructs handlers via factory and opens
// a transactional scope via transactor around each message's handler set.
func New(factory *handlers.Factory, transactor handlers.Transactor, logger logging.Logger, observer Observer) *Dispatcher {
	if logger == nil {
		logger = logging.Nop()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	return &Dispatcher{factory: factory, transactor: transactor, logger: logger, observer: observer}
}

// Dispatch processes one successfully-parsed message through its handler
// set under a Required transactional scope, so handler-internal outbound
// sends enlist together and are flushed by one commit. The commit happens
// whether or not a handler failed.
func (d *Dispatcher) Dispatch(ctx context.Context, m *msg.TransportMessage) msg.MessageProcessingResult {
	built := d.factory.BuildHandlers(m.MessageType, metadataFrom(m))
	if len(built) == 0 {
		return msg.MessageProcessingResult{
			Success: false,
			Error:   fmt.Errorf("%w: %s", errs.ErrNoHandlerForType, m.MessageTypeName),
		}
	}

	txCtx := d.transactor.Begin(ctx)

	var lastErr error
	for _, h := range built {
		err := h.Adapter.Handle(txCtx, m.Message)
		if err != nil {
			lastErr = &errs.HandlerError{HandlerName: h.Name, Err: err}
			d.logger.Error("handler failed", lastErr, logging.Fields{"handler": h.Name, "type": m.MessageTypeName})
		}
		d.observer.OnHandlerInvoked(h.Name, m.MessageTypeName, err)
	}

	// Commit regardless of per-handler error: retry semantics are
	// message-level, not handler-level, so partial progress within one
	// message's handler set cannot be acknowledged individually.
	if err := d.transactor.Commit(txCtx); err != nil && lastErr == nil {
		lastErr = err
	}

	return msg.MessageProcessingResult{Success: lastErr == nil, Error: lastErr}
}

// DispatchFault invokes every fault handler registered for the raw
// TransportMessage, then, if the message parsed successfully, every fault
// handler registered for the decoded message's concrete type. Fault
// handler errors are logged and swallowed.
func (d *Dispatcher) DispatchFault(ctx context.Context, m *msg.TransportMessage, cause error) {
	transportType := reflect.TypeOf(m)
	for _, h := range d.factory.BuildFaultHandlers(transportType, metadataFrom(m)) {
		err := h.Adapter.HandleFault(ctx, m, cause)
		d.observer.OnFaultHandlerInvoked(h.Name, err)
		if err != nil {
			d.logger.Error("fault handler failed", err, logging.Fields{"fault_handler": h.Name})
		}
	}

	if !m.ParsingSucceeded || m.MessageType == nil {
		return
	}
	for _, h := range d.factory.BuildFaultHandlers(m.MessageType, metadataFrom(m)) {
		err := h.Adapter.HandleFault(ctx, m.Message, cause)
		d.observer.OnFaultHandlerInvoked(h.Name, err)
		if err != nil {
			d.logger.Error("fault handler failed", err, logging.Fields{"fault_handler": h.Name})
		}
	}
}

func metadataFrom(m *msg.TransportMessage) metadata.Metadata {
	return metadata.New("messageType", m.MessageTypeName)
}
