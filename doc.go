// Package junglebus is a lightweight pub/sub message bus built directly on
// AWS SNS (fan-out topics) and SQS (durable at-least-once queues).
//
// Producers publish typed messages to topics; consumers own a single
// queue subscribed to one or more topics, poll it concurrently, decode
// payloads, dispatch them to registered handlers, and retry or
// dead-letter on failure. A transactional sendBus lets handlers and
// callers enlist outbound publishes on an ambient transaction scoped to
// one dispatch, flushing them together on commit and discarding them on
// rollback.
//
// Build a bus with NewConfigBuilder, register handlers with WithHandler
// and WithFaultHandler, then call CreateStartableBus to receive and send,
// or CreateSendOnlyBusFactory to only send.
package junglebus
