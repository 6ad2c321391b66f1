// Package id defines TypeID-based identifiers for queued items, stream
// subscribers and broadcast events.
//
// IDs are UUIDv7-based, so two items enqueued within the same millisecond
// still get distinct, K-sortable identifiers in the form "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

const (
	PrefixItem       Prefix = "sqi"
	PrefixSubscriber Prefix = "sub"
	PrefixEvent      Prefix = "evt"
	PrefixFrame      Prefix = "frm"
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // UnmarshalText needs a pointer receiver.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates an ID with the given prefix. It panics on an invalid
// prefix, which is a programming error.
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "sqi_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that it carries the expected prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// ItemID identifies a queued item (prefix "sqi").
type ItemID = ID

// SubscriberID identifies a stream subscriber (prefix "sub").
type SubscriberID = ID

// EventID identifies a broadcast event (prefix "evt").
type EventID = ID

// FrameID identifies a push-protocol frame (prefix "frm").
type FrameID = ID

// NewItemID generates a new item ID.
func NewItemID() ID { return New(PrefixItem) }

// NewSubscriberID generates a new subscriber ID.
func NewSubscriberID() ID { return New(PrefixSubscriber) }

// NewEventID generates a new event ID.
func NewEventID() ID { return New(PrefixEvent) }

// NewFrameID generates a new push-protocol frame ID.
func NewFrameID() ID { return New(PrefixFrame) }

// ParseItemID parses s and validates the "sqi" prefix.
func ParseItemID(s string) (ID, error) { return ParseWithPrefix(s, PrefixItem) }

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix component of the ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}
	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
