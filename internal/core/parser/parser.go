// Package parser decodes a raw queue message into a TransportMessage,
// extracting the envelope, resolving the carried type name against the
// TypeRegistry, and decoding the payload through the configured Codec.
package parser

import (
	"fmt"
	"reflect"

	"github.com/neilfitzgerald/JungleBus/internal/core/codec"
	"github.com/neilfitzgerald/JungleBus/internal/core/envelope"
	"github.com/neilfitzgerald/JungleBus/internal/core/errs"
	"github.com/neilfitzgerald/JungleBus/internal/core/msg"
	"github.com/neilfitzgerald/JungleBus/internal/core/transport"
	"github.com/neilfitzgerald/JungleBus/internal/core/types"
)

// Parser decodes raw queue bodies into TransportMessage values.
type Parser struct {
	registry *types.Registry
	codec    codec.Codec
}

// New returns a Parser resolving types against registry and decoding
// payloads with c.
func New(registry *types.Registry, c codec.Codec) *Parser {
	return &Parser{registry: registry, codec: c}
}

// Parse decodes one raw queue message into a TransportMessage. Any failure
// in envelope decoding, type resolution, or payload decoding is captured on
// the result rather than returned, since the receipt handle must still be
// available to the caller for acknowledgement or dead-lettering.
func (p *Parser) Parse(raw transport.RawMessage) *msg.TransportMessage {
	tm := &msg.TransportMessage{
		ReceiptHandle: raw.ReceiptHandle,
		RetryCount:    raw.ApproximateReceiveCount,
	}
	if tm.RetryCount < 1 {
		tm.RetryCount = 1
	}

	env, err := envelope.Decode([]byte(raw.Body))
	if err != nil {
		return p.fail(tm, raw.Body, fmt.Sprintf("malformed envelope: %v", err), err)
	}

	tm.Body = env.Message
	tm.MessageTypeName = env.TypeName()

	instance, err := p.registry.New(tm.MessageTypeName)
	if err != nil {
		return p.fail(tm, raw.Body, fmt.Sprintf("unable to find message type %s", tm.MessageTypeName), err)
	}

	if err := p.codec.Unmarshal([]byte(tm.Body), tm.MessageTypeName, instance); err != nil {
		return p.fail(tm, raw.Body, fmt.Sprintf("unable to decode payload for %s", tm.MessageTypeName), err)
	}

	value := reflect.ValueOf(instance).Elem()
	tm.Message = value.Interface()
	tm.MessageType = value.Type()
	tm.ParsingSucceeded = true
	return tm
}

func (p *Parser) fail(tm *msg.TransportMessage, rawBody, reason string, cause error) *msg.TransportMessage {
	tm.ParsingSucceeded = false
	tm.ParseError = &errs.ParseError{Envelope: rawBody, Reason: reason, Err: cause}
	return tm
}
