package handlers

import (
	"reflect"

	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/metadata"
)

// BuiltHandler is a constructed Adapter alongside the name it was
// registered under, used for HandlerError reporting.
type BuiltHandler struct {
	Name    string
	Adapter Adapter
}

// BuiltFaultHandler is a constructed FaultAdapter alongside its name.
type BuiltFaultHandler struct {
	Name    string
	Adapter FaultAdapter
}

// Factory constructs fresh handler instances per dispatch, injecting the
// current SendBus and a logger keyed on handler name. It shares the
// Registry (read-only) across every pump.
type Factory struct {
	registry   *Registry
	sendBus    SendBus
	baseLogger logging.Logger
}

// NewFactory returns a Factory that scopes every constructed handler to
// sendBus and to a logger derived from baseLogger.
func NewFactory(registry *Registry, sendBus SendBus, baseLogger logging.Logger) *Factory {
	if baseLogger == nil {
		baseLogger = logging.Nop()
	}
	return &Factory{registry: registry, sendBus: sendBus, baseLogger: baseLogger}
}

// BuildHandlers constructs one fresh Adapter per handler registered for
// messageType, each injected with a per-handler-named logger.
func (f *Factory) BuildHandlers(messageType reflect.Type, md metadata.Metadata) []BuiltHandler {
	entries := f.registry.HandlersFor(messageType)
	if len(entries) == 0 {
		return nil
	}

	built := make([]BuiltHandler, 0, len(entries))
	for _, e := range entries {
		hc := Context{
			SendBus:  f.sendBus,
			Logger:   f.baseLogger.With(logging.Fields{"handler": e.Name}),
			Metadata: md,
		}
		built = append(built, BuiltHandler{Name: e.Name, Adapter: e.Constructor(hc)})
	}
	return built
}

// BuildFaultHandlers constructs one fresh FaultAdapter per fault handler
// registered for payloadType.
func (f *Factory) BuildFaultHandlers(payloadType reflect.Type, md metadata.Metadata) []BuiltFaultHandler {
	entries := f.registry.FaultHandlersFor(payloadType)
	if len(entries) == 0 {
		return nil
	}

	built := make([]BuiltFaultHandler, 0, len(entries))
	for _, e := range entries {
		hc := Context{
			SendBus:  f.sendBus,
			Logger:   f.baseLogger.With(logging.Fields{"fault_handler": e.Name}),
			Metadata: md,
		}
		built = append(built, BuiltFaultHandler{Name: e.Name, Adapter: e.Constructor(hc)})
	}
	return built
}
