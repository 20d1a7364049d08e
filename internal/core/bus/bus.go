// Package bus assembles the client-facing publish / publish-local API with
// ambient-transaction enlistment, and the two public bus facades:
// StartableBus (receive + send) and SendOnlyBus (send only).
package bus

import (
	"context"
	"errors"
	"fmt"

	"github.com/neilfitzgerald/JungleBus/internal/core/codec"
	"github.com/neilfitzgerald/JungleBus/internal/core/logging"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
	"github.com/neilfitzgerald/JungleBus/internal/core/types"
)

// TransactionalBus is the client-facing sendBus: publish, publishLocal,
// and the ambient transaction operations (Begin, Commit, Rollback) that
// the Dispatcher and end-user callers both drive through context.Context.
type TransactionalBus struct {
	topicPublisher transport.TopicPublisher
	queueClient    transport.QueueClient // nil when constructed without a local queue
	codec          codec.Codec
	typeRegistry   *types.Registry
	logger         logging.Logger
}

// New returns a TransactionalBus. queueClient may be nil: when nil, the
// bus has no local queue, publishLocal always fails, and the "sender"
// attribute is never populated.
func New(topicPublisher transport.TopicPublisher, queueClient transport.QueueClient, c codec.Codec, typeRegistry *types.Registry, logger logging.Logger) *TransactionalBus {
	if logger == nil {
		logger = logging.Nop()
	}
	return &TransactionalBus{
		topicPublisher: topicPublisher,
		queueClient:    queueClient,
		codec:          c,
		typeRegistry:   typeRegistry,
		logger:         logger,
	}
}

// Begin opens a transactional scope on ctx. Required semantics: if ctx
// already carries an active transaction, it is reused rather than nested.
func (b *TransactionalBus) Begin(ctx context.Context) context.Context {
	if txFrom(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, &transaction{})
}

// Commit flushes ctx's transaction buffer in insertion order: each
// buffered entry is built, serialized, and sent only now. A commit on a
// context carrying no transaction is a no-op.
func (b *TransactionalBus) Commit(ctx context.Context) error {
	tx := txFrom(ctx)
	if tx == nil {
		return nil
	}
	for _, e := range tx.drain() {
		if err := b.flush(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Rollback discards ctx's transaction buffer unread: none of its builder
// closures are invoked and no serialization occurs.
func (b *TransactionalBus) Rollback(ctx context.Context) {
	if tx := txFrom(ctx); tx != nil {
		tx.drain()
	}
}

// Publish produces a topic message for value. Outside a transaction this
// serializes and publishes immediately; inside one it defers until commit.
func (b *TransactionalBus) Publish(ctx context.Context, value any) error {
	return b.enqueueOrSend(ctx, modePublish, "", constantBuilder(value))
}

// PublishLocal enqueues value directly on the owning queue, bypassing the
// topic. Requires the bus to have been constructed with a local queue.
func (b *TransactionalBus) PublishLocal(ctx context.Context, value any) error {
	return b.enqueueOrSend(ctx, modeSendLocal, "", constantBuilder(value))
}

func constantBuilder(value any) func() (any, error) {
	return func() (any, error) { return value, nil }
}

// PublishBuilder produces a topic message from builder's result under
// declaredType. Like Publish, but the value itself is constructed lazily:
// inside a transaction, builder is not called until commit.
func PublishBuilder[T any](b *TransactionalBus, ctx context.Context, declaredType string, builder func() T) error {
	return b.enqueueOrSend(ctx, modePublish, declaredType, typedBuilder(builder))
}

// PublishLocalBuilder is PublishBuilder's publishLocal counterpart.
func PublishLocalBuilder[T any](b *TransactionalBus, ctx context.Context, declaredType string, builder func() T) error {
	return b.enqueueOrSend(ctx, modeSendLocal, declaredType, typedBuilder(builder))
}

func typedBuilder[T any](builder func() T) func() (any, error) {
	return func() (any, error) { return builder(), nil }
}

func (b *TransactionalBus) enqueueOrSend(ctx context.Context, mode, declaredType string, build func() (any, error)) error {
	if tx := txFrom(ctx); tx != nil {
		tx.append(pendingEntry{mode: mode, declaredType: declaredType, build: build})
		return nil
	}

	value, err := build()
	if err != nil {
		return err
	}
	return b.send(ctx, mode, declaredType, value)
}

func (b *TransactionalBus) flush(ctx context.Context, e pendingEntry) error {
	value, err := e.build()
	if err != nil {
		return err
	}
	return b.send(ctx, e.mode, e.declaredType, value)
}

func (b *TransactionalBus) send(ctx context.Context, mode, declaredType string, value any) error {
	if declaredType == "" {
		name, ok := b.typeRegistry.NameOf(value)
		if !ok {
			return fmt.Errorf("junglebus: no type registered for %T", value)
		}
		declaredType = name
	}

	body, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}

	attrs := map[string]string{}
	if b.queueClient != nil {
		attrs["sender"] = b.queueClient.Address()
	}

	switch mode {
	case modeSendLocal:
		if b.queueClient == nil {
			return errors.New("junglebus: publishLocal requires a local queue")
		}
		return b.queueClient.Enqueue(ctx, string(body), attrs)
	default:
		return b.topicPublisher.Publish(ctx, string(body), declaredType, attrs)
	}
}
