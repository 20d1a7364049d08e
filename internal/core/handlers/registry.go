package handlers

import "reflect"

// NamedConstructor pairs a Constructor with the handler name used for
// logging and for HandlerError's HandlerName field.
type NamedConstructor struct {
	Name        string
	Constructor Constructor
}

// NamedFaultConstructor pairs a FaultConstructor with a handler name.
type NamedFaultConstructor struct {
	Name        string
	Constructor FaultConstructor
}

// Registry maps a message type to the set of handler types registered for
// it, and separately maps a type to its fault handler set. Both mappings
// are populated at bus construction and are immutable once the bus starts
// receiving.
type Registry struct {
	handlers      map[reflect.Type][]NamedConstructor
	faultHandlers map[reflect.Type][]NamedFaultConstructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:      make(map[reflect.Type][]NamedConstructor),
		faultHandlers: make(map[reflect.Type][]NamedFaultConstructor),
	}
}

// RegisterHandler adds a normal handler for messages of type T.
func RegisterHandler[T any](r *Registry, name string, newHandler func() Handler[T]) {
	var zero T
	rt := reflect.TypeOf(zero)
	r.handlers[rt] = append(r.handlers[rt], NamedConstructor{Name: name, Constructor: NewConstructor(newHandler)})
}

// RegisterFaultHandler adds a fault handler for payloads of type T. T may
// be a decoded message's concrete type, or *msg.TransportMessage to
// register a handler invoked for every escalated dispatch regardless of
// whether the envelope could be parsed.
func RegisterFaultHandler[T any](r *Registry, name string, newHandler func() FaultHandler[T]) {
	var zero T
	rt := reflect.TypeOf(zero)
	r.faultHandlers[rt] = append(r.faultHandlers[rt], NamedFaultConstructor{Name: name, Constructor: NewFaultConstructor(newHandler)})
}

// HandlersFor returns the handlers registered for messageType, or nil if
// none were registered.
func (r *Registry) HandlersFor(messageType reflect.Type) []NamedConstructor {
	return r.handlers[messageType]
}

// FaultHandlersFor returns the fault handlers registered for payloadType.
func (r *Registry) FaultHandlersFor(payloadType reflect.Type) []NamedFaultConstructor {
	return r.faultHandlers[payloadType]
}

// HasHandlers reports whether any handler was registered for messageType.
func (r *Registry) HasHandlers(messageType reflect.Type) bool {
	return len(r.handlers[messageType]) > 0
}

// RegisteredTypes returns every message type with at least one normal
// handler. Config.Validate uses it to require at least one handler, and the
// bus assembly uses it to drive TopicPublisher.RegisterTypes and
// QueueClient.Subscribe.
func (r *Registry) RegisteredTypes() []reflect.Type {
	types := make([]reflect.Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	return types
}
