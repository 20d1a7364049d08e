package junglebus

import (
	"context"

	buspkg "github.com/neilfitzgerald/JungleBus/internal/core/bus"
	codecpkg "github.com/neilfitzgerald/JungleBus/internal/core/codec"
	configpkg "github.com/neilfitzgerald/JungleBus/internal/core/config"
	dispatchpkg "github.com/neilfitzgerald/JungleBus/internal/core/dispatch"
	errspkg "github.com/neilfitzgerald/JungleBus/internal/core/errs"
	handlerpkg "github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	idspkg "github.com/neilfitzgerald/JungleBus/internal/core/ids"
	loggingpkg "github.com/neilfitzgerald/JungleBus/internal/core/logging"
	metadatapkg "github.com/neilfitzgerald/JungleBus/internal/core/metadata"
	metricspkg "github.com/neilfitzgerald/JungleBus/internal/core/metrics"
	msgpkg "github.com/neilfitzgerald/JungleBus/internal/core/msg"
	pumppkg "github.com/neilfitzgerald/JungleBus/internal/core/pump"
	transportpkg "github.com/neilfitzgerald/JungleBus/internal/core/transport"
	typespkg "github.com/neilfitzgerald/JungleBus/internal/core/types"
)

type (
	// Config and assembly.
	Config        = configpkg.Config
	ConfigBuilder = configpkg.Builder

	// Data model.
	TransportMessage        = msgpkg.TransportMessage
	MessageProcessingResult = msgpkg.MessageProcessingResult
	Metadata                = metadatapkg.Metadata

	// Pluggable collaborators.
	Codec          = codecpkg.Codec
	TopicPublisher = transportpkg.TopicPublisher
	QueueClient    = transportpkg.QueueClient
	RawMessage     = transportpkg.RawMessage

	// Handler surface.
	Handler      [T any] = handlerpkg.Handler[T]
	FaultHandler [T any] = handlerpkg.FaultHandler[T]
	HandlerContext       = handlerpkg.Context
	SendBus              = handlerpkg.SendBus
	Transactor           = handlerpkg.Transactor

	// Logging.
	Logger = loggingpkg.Logger
	Fields = loggingpkg.Fields

	// Buses.
	TransactionalBus = buspkg.TransactionalBus
	StartableBus     = buspkg.StartableBus
	SendOnlyBus      = buspkg.SendOnlyBus

	// Pump / dispatch internals, exposed for callers assembling a bus by
	// hand instead of through ConfigBuilder.
	Dispatcher    = dispatchpkg.Dispatcher
	PumpGroup     = pumppkg.Group
	PumpState     = pumppkg.State
	MessageLogger = pumppkg.MessageLogger
	BusMetrics    = metricspkg.BusMetrics
	TypeRegistry  = typespkg.Registry

	// Errors callers may want to type-assert on.
	ParseError   = errspkg.ParseError
	PublishError = errspkg.PublishError
	HandlerError = errspkg.HandlerError
)

const (
	PumpCreated  = pumppkg.Created
	PumpRunning  = pumppkg.Running
	PumpStopping = pumppkg.Stopping
	PumpStopped  = pumppkg.Stopped
)

var (
	// NewConfigBuilder starts a fluent Config assembly.
	NewConfigBuilder = configpkg.NewConfigBuilder

	// CreateStartableBus wires a bus that both receives and sends.
	CreateStartableBus = buspkg.CreateStartableBus

	// CreateSendOnlyBusFactory wires a factory of send-only buses.
	CreateSendOnlyBusFactory = buspkg.CreateSendOnlyBusFactory

	NewJSONCodec  = codecpkg.NewJSONCodec
	NewProtoCodec = codecpkg.NewProtoCodec

	NewSlogLogger      = loggingpkg.NewSlogLogger
	NewWatermillLogger = loggingpkg.NewWatermillLogger
	NopLogger          = loggingpkg.Nop

	NewMetadata = metadatapkg.New

	CreateULID = idspkg.CreateULID

	NewBusMetrics = metricspkg.NewBusMetrics

	ErrNoHandlerForType = errspkg.ErrNoHandlerForType
	ErrUnknownTopic     = errspkg.ErrUnknownTopic
)

// WithHandler registers a normal handler for typeName on a ConfigBuilder.
// Exposed at the package root as a free function since Go methods cannot
// carry their own type parameters.
func WithHandler[T any](b *ConfigBuilder, typeName, name string, newHandler func() Handler[T]) *ConfigBuilder {
	return configpkg.WithHandler[T](b, typeName, name, newHandler)
}

// WithFaultHandler registers a fault handler for payloads of type T.
func WithFaultHandler[T any](b *ConfigBuilder, name string, newHandler func() FaultHandler[T]) *ConfigBuilder {
	return configpkg.WithFaultHandler[T](b, name, newHandler)
}

// PublishBuilder produces a topic message from builder's result under
// declaredType, deferring construction until commit if a transaction is
// active on ctx.
func PublishBuilder[T any](b *TransactionalBus, ctx context.Context, declaredType string, builder func() T) error {
	return buspkg.PublishBuilder[T](b, ctx, declaredType, builder)
}

// PublishLocalBuilder is PublishBuilder's publishLocal counterpart.
func PublishLocalBuilder[T any](b *TransactionalBus, ctx context.Context, declaredType string, builder func() T) error {
	return buspkg.PublishLocalBuilder[T](b, ctx, declaredType, builder)
}
