// Package envelope mirrors the wire shape AWS delivers when SNS forwards a
// notification into an SQS queue body: an outer JSON document carrying the
// serialized payload plus a map of typed attributes.
package envelope

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Attribute is one entry of an envelope's MessageAttributes map, matching
// the {Value, Type} shape SNS writes into the SQS body.
type Attribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// Envelope is the outer JSON document read out of a queue message body.
type Envelope struct {
	Message           string               `json:"Message"`
	MessageAttributes map[string]Attribute `json:"MessageAttributes"`
}

// Well-known attribute names the core reads or writes.
const (
	AttrMessageType = "messageType"
	AttrSender      = "sender"
	AttrFromSNS     = "fromSns"
)

// Decode parses raw queue body bytes into an Envelope.
func Decode(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := sonic.ConfigStd.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("junglebus: decode envelope: %w", err)
	}
	return &e, nil
}

// Encode serializes the envelope back into its wire form.
func (e *Envelope) Encode() ([]byte, error) {
	return sonic.ConfigStd.Marshal(e)
}

// TypeName returns the messageType attribute value, if present.
func (e *Envelope) TypeName() string {
	if e.MessageAttributes == nil {
		return ""
	}
	return e.MessageAttributes[AttrMessageType].Value
}

// New builds an Envelope from a serialized body plus caller-supplied string
// attributes, setting the Type field AWS uses for string-valued attributes.
func New(body string, attrs map[string]string) *Envelope {
	ma := make(map[string]Attribute, len(attrs))
	for k, v := range attrs {
		ma[k] = Attribute{Type: "String", Value: v}
	}
	return &Envelope{Message: body, MessageAttributes: ma}
}

// StringAttributes flattens the envelope's attributes back into a plain
// string map, discarding the wire-level Type tag.
func (e *Envelope) StringAttributes() map[string]string {
	if len(e.MessageAttributes) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.MessageAttributes))
	for k, v := range e.MessageAttributes {
		out[k] = v.Value
	}
	return out
}
