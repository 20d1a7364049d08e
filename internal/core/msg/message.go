// Package msg defines the unit moved between the wire and the dispatcher.
package msg

import "reflect"

// TransportMessage is the unit moved between the queue and the dispatcher.
// It exists from parse until acknowledgement (delete) or visibility
// timeout; the dispatcher owns it for the duration of one dispatch.
type TransportMessage struct {
	// ReceiptHandle authorizes deletion of this specific received message.
	// Always set for messages returned from the queue.
	ReceiptHandle string

	// RetryCount is the provider-reported approximate delivery count,
	// always >= 1 for a received message.
	RetryCount int

	// Body is the raw serialized payload string, envelope already stripped.
	Body string

	// MessageTypeName is the fully-qualified logical type identifier as
	// carried in the envelope's messageType attribute.
	MessageTypeName string

	// MessageType is the resolved concrete type, absent if resolution
	// failed.
	MessageType reflect.Type

	// Message is the decoded payload instance, absent if parsing failed.
	Message any

	// ParsingSucceeded reports whether decode completed without error.
	ParsingSucceeded bool

	// ParseError is populated when ParsingSucceeded is false.
	ParseError error
}

// MessageProcessingResult reports the outcome of one dispatch.
type MessageProcessingResult struct {
	Success bool
	Error   error
}
