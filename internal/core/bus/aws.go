package bus

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neilfitzgerald/JungleBus/internal/core/config"
	"github.com/neilfitzgerald/JungleBus/internal/core/dispatch"
	"github.com/neilfitzgerald/JungleBus/internal/core/handlers"
	"github.com/neilfitzgerald/JungleBus/internal/core/metrics"
	"github.com/neilfitzgerald/JungleBus/internal/core/parser"
	"github.com/neilfitzgerald/JungleBus/internal/core/pump"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
)

var (
	errMissingRegion = errors.New("junglebus: AWS region is required unless a custom endpoint is set")
	errMissingCodec  = errors.New("junglebus: codec is required")
)

func buildAWSClients(ctx context.Context, cfg *config.Config) (*sns.Client, *sqs.Client, error) {
	awsCfg, err := transport.LoadAWSConfig(ctx, transport.AWSSettings{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return nil, nil, err
	}
	return sns.NewFromConfig(awsCfg), sqs.NewFromConfig(awsCfg), nil
}

func resolveQueueURL(ctx context.Context, client *sqs.Client, name string) (string, error) {
	out, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: aws.String(name)})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.QueueUrl), nil
}

// registeredTypeNames resolves every message type with a registered
// handler back into the fully-qualified names RegisterTypes/Subscribe use
// on the wire.
func registeredTypeNames(cfg *config.Config) []string {
	var names []string
	for _, rt := range cfg.HandlerRegistry.RegisteredTypes() {
		if name, ok := cfg.TypeRegistry.NameOfType(rt); ok {
			names = append(names, name)
		}
	}
	return names
}

// startMetricsServer starts a background HTTP server exposing
// promhttp.Handler() on cfg.MetricsPort, or returns nil if MetricsPort is
// unset. The server runs in a fire-and-forget goroutine; its only shutdown
// path is the *http.Server.Shutdown call a caller makes through the
// returned handle.
func startMetricsServer(cfg *config.Config) *http.Server {
	if cfg.MetricsPort == 0 {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Logger.Error("metrics server failed", err, nil)
		}
	}()

	return srv
}

// StartableBus is the receive-and-send facade: it owns an input queue, a
// group of MessagePumps, and a TransactionalBus for sending.
type StartableBus struct {
	cfg           *config.Config
	queue         transport.QueueClient
	topic         transport.TopicPublisher
	txBus         *TransactionalBus
	dispatcher    *dispatch.Dispatcher
	pumps         *pump.Group
	metricsServer *http.Server
}

// CreateStartableBus wires AWS SNS/SQS collaborators from cfg, registers
// every handled type's topic, subscribes the input queue to them, and
// returns a bus ready for StartReceiving.
func CreateStartableBus(ctx context.Context, cfg *config.Config) (*StartableBus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	snsClient, sqsClient, err := buildAWSClients(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueURL, err := resolveQueueURL(ctx, sqsClient, cfg.InputQueueName)
	if err != nil {
		return nil, err
	}
	queueARN, err := transport.ResolveQueueARN(ctx, sqsClient, queueURL)
	if err != nil {
		return nil, err
	}

	queueClient := transport.NewAWSQueueClient(sqsClient, snsClient, queueURL, queueARN, cfg.ReceiveWaitTimeSeconds, cfg.Logger)
	topicPublisher := transport.NewAWSTopicPublisher(snsClient, cfg.Logger)

	typeNames := registeredTypeNames(cfg)
	if err := topicPublisher.RegisterTypes(ctx, typeNames); err != nil {
		return nil, err
	}
	if err := queueClient.Subscribe(ctx, typeNames); err != nil {
		return nil, err
	}

	busMetrics := metrics.NewBusMetrics(nil)

	txBus := New(topicPublisher, queueClient, cfg.Codec, cfg.TypeRegistry, cfg.Logger)
	factory := handlers.NewFactory(cfg.HandlerRegistry, txBus, cfg.Logger)
	dispatcher := dispatch.New(factory, txBus, cfg.Logger, metrics.NewDispatchObserver(busMetrics))
	msgParser := parser.New(cfg.TypeRegistry, cfg.Codec)

	pumps := pump.NewGroup(cfg.NumberOfPollingInstances, pump.Config{
		Queue:      queueClient,
		Parser:     msgParser,
		Dispatcher: dispatcher,
		MaxRetries: cfg.MessageRetryCount,
		Logger:     cfg.Logger,
		Metrics:    busMetrics,
	})

	return &StartableBus{
		cfg:           cfg,
		queue:         queueClient,
		topic:         topicPublisher,
		txBus:         txBus,
		dispatcher:    dispatcher,
		pumps:         pumps,
		metricsServer: startMetricsServer(cfg),
	}, nil
}

// StartReceiving starts every pump in the bus's group.
func (b *StartableBus) StartReceiving(ctx context.Context) {
	b.pumps.Start(ctx)
}

// StopReceiving stops every pump and awaits them all, then shuts down the
// metrics HTTP server, if one was started, before returning.
func (b *StartableBus) StopReceiving() {
	b.pumps.Stop()
	if b.metricsServer != nil {
		_ = b.metricsServer.Shutdown(context.Background())
	}
}

// CreateSendBus returns this bus's sendBus, bound to its own input queue
// so outbound publishes carry a "sender" attribute.
func (b *StartableBus) CreateSendBus() *TransactionalBus {
	return b.txBus
}

// SendOnlyBus is a factory of sendBus instances with no receiving side and
// no local queue, so the "sender" attribute is never populated.
type SendOnlyBus struct {
	cfg           *config.Config
	topic         transport.TopicPublisher
	metricsServer *http.Server
}

// CreateSendOnlyBusFactory wires an AWS SNS collaborator from cfg and
// returns a factory of send-only TransactionalBus instances. Unlike
// CreateStartableBus it does not require any handler to be registered,
// since a send-only bus never dispatches.
func CreateSendOnlyBusFactory(ctx context.Context, cfg *config.Config) (*SendOnlyBus, error) {
	if cfg.AWSRegion == "" && cfg.AWSEndpoint == "" {
		return nil, errMissingRegion
	}
	if cfg.Codec == nil {
		return nil, errMissingCodec
	}

	snsClient, _, err := buildAWSClients(ctx, cfg)
	if err != nil {
		return nil, err
	}

	topicPublisher := transport.NewAWSTopicPublisher(snsClient, cfg.Logger)
	if err := topicPublisher.RegisterTypes(ctx, registeredTypeNames(cfg)); err != nil {
		return nil, err
	}

	return &SendOnlyBus{cfg: cfg, topic: topicPublisher, metricsServer: startMetricsServer(cfg)}, nil
}

// NewSendBus returns a fresh sendBus with no local queue.
func (f *SendOnlyBus) NewSendBus() *TransactionalBus {
	return New(f.topic, nil, f.cfg.Codec, f.cfg.TypeRegistry, f.cfg.Logger)
}

// Close shuts down the metrics HTTP server, if one was started.
func (f *SendOnlyBus) Close() error {
	if f.metricsServer == nil {
		return nil
	}
	return f.metricsServer.Shutdown(context.Background())
}
