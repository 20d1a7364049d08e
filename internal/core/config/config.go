// Package config holds the settings needed to assemble a running bus, and
// the fluent builder that validates them. This is the concrete, testable
// shape given to what upstream leaves as "configuration builders,
// validation" — an external collaborator the core only consumes.
package config

import (
	"errors"
	"fmt"

	"github.com/neilfitzgerald/JungleBus/internal/core/codec"
	"github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/types"
)

// Config groups every setting createStartableBus and createSendOnlyBusFactory
// consume.
type Config struct {
	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	InputQueueName           string
	NumberOfPollingInstances int
	MessageRetryCount        int
	ReceiveWaitTimeSeconds   int32

	MetricsPort int

	Codec           codec.Codec
	Logger          logging.Logger
	HandlerRegistry *handlers.Registry
	TypeRegistry    *types.Registry
}

// String renders the config with credentials redacted, safe to log.
func (c Config) String() string {
	cp := c
	if cp.AWSAccessKeyID != "" {
		cp.AWSAccessKeyID = "***REDACTED***"
	}
	if cp.AWSSecretAccessKey != "" {
		cp.AWSSecretAccessKey = "***REDACTED***"
	}
	type configAlias Config
	return fmt.Sprintf("%+v", configAlias(cp))
}

// Validate checks that the configuration is complete enough to build a bus.
func (c *Config) Validate() error {
	var errs []error

	if c.InputQueueName == "" {
		errs = append(errs, errors.New("config: input queue name is required"))
	}
	if c.AWSRegion == "" && c.AWSEndpoint == "" {
		errs = append(errs, errors.New("config: AWS region is required unless a custom endpoint is set"))
	}
	if c.NumberOfPollingInstances < 1 {
		errs = append(errs, errors.New("config: number of polling instances must be at least 1"))
	}
	if c.MessageRetryCount < 1 {
		errs = append(errs, errors.New("config: message retry count must be at least 1"))
	}
	if c.Codec == nil {
		errs = append(errs, errors.New("config: codec is required"))
	}
	if c.HandlerRegistry == nil || len(c.HandlerRegistry.RegisteredTypes()) == 0 {
		errs = append(errs, errors.New("config: at least one handler must be registered"))
	}

	return errors.Join(errs...)
}

// Builder fluently assembles a Config. Use WithHandler / WithFaultHandler
// (package-level generic functions, since Go methods cannot carry their own
// type parameters) to register typed handlers.
type Builder struct {
	cfg Config
}

// NewConfigBuilder returns a Builder seeded with JungleBus's defaults.
func NewConfigBuilder() *Builder {
	return &Builder{cfg: Config{
		NumberOfPollingInstances: 1,
		MessageRetryCount:        3,
		ReceiveWaitTimeSeconds:   20,
		Codec:                    codec.NewJSONCodec(),
		Logger:                   logging.Nop(),
		HandlerRegistry:          handlers.NewRegistry(),
		TypeRegistry:             types.NewRegistry(),
	}}
}

func (b *Builder) WithRegion(region string) *Builder {
	b.cfg.AWSRegion = region
	return b
}

// WithEndpoint points the AWS clients at a custom endpoint, e.g. LocalStack.
func (b *Builder) WithEndpoint(endpoint string) *Builder {
	b.cfg.AWSEndpoint = endpoint
	return b
}

func (b *Builder) WithCredentials(accessKeyID, secretAccessKey string) *Builder {
	b.cfg.AWSAccessKeyID = accessKeyID
	b.cfg.AWSSecretAccessKey = secretAccessKey
	return b
}

func (b *Builder) WithInputQueue(name string) *Builder {
	b.cfg.InputQueueName = name
	return b
}

func (b *Builder) WithPollingInstances(n int) *Builder {
	b.cfg.NumberOfPollingInstances = n
	return b
}

func (b *Builder) WithRetryCount(n int) *Builder {
	b.cfg.MessageRetryCount = n
	return b
}

func (b *Builder) WithReceiveWaitTimeSeconds(seconds int32) *Builder {
	b.cfg.ReceiveWaitTimeSeconds = seconds
	return b
}

func (b *Builder) WithCodec(c codec.Codec) *Builder {
	b.cfg.Codec = c
	return b
}

func (b *Builder) WithLogger(l logging.Logger) *Builder {
	b.cfg.Logger = l
	return b
}

func (b *Builder) WithMetricsPort(port int) *Builder {
	b.cfg.MetricsPort = port
	return b
}

// Build validates the accumulated settings and returns the resulting Config.
func (b *Builder) Build() (*Config, error) {
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	cfg := b.cfg
	return &cfg, nil
}

// WithHandler registers a normal handler for typeName, recording it in
// both the TypeRegistry (for inbound type resolution) and the
// HandlerRegistry (for dispatch).
func WithHandler[T any](b *Builder, typeName, name string, newHandler func() handlers.Handler[T]) *Builder {
	types.Register[T](b.cfg.TypeRegistry, typeName)
	handlers.RegisterHandler[T](b.cfg.HandlerRegistry, name, newHandler)
	return b
}

// WithFaultHandler registers a fault handler for payloads of type T. Pass
// T = *msg.TransportMessage to register a handler invoked for every
// escalated dispatch regardless of parse success.
func WithFaultHandler[T any](b *Builder, name string, newHandler func() handlers.FaultHandler[T]) *Builder {
	handlers.RegisterFaultHandler[T](b.cfg.HandlerRegistry, name, newHandler)
	return b
}
