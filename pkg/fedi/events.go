// Copyright 2024-2026 Aiku AI

package fedi

// EventKind discriminates the streaming event union. Nothing beyond these
// three shapes crosses the streaming boundary.
type EventKind int

const (
	// EventUpdate carries a new or changed Status.
	EventUpdate EventKind = iota
	// EventDelete carries the id of a removed Status.
	EventDelete
	// EventNotify signals that the notification timeline changed; the
	// wrapped Status is the coerced notification when the dialect delivers
	// one inline, else nil (callers refetch).
	EventNotify
)

// StreamingEvent is one realtime event after dialect normalization.
type StreamingEvent struct {
	Kind     EventKind
	Status   *Status // EventUpdate, EventNotify (may be nil for EventNotify)
	DeleteID string  // EventDelete
}

// Subscriber describes one dialect's realtime wire protocol to the
// streaming state machine. Implementations are single-connection stateful:
// SubscribeFrame must mint a fresh channel identifier per call, and Decode
// must drop frames addressed to any other channel.
type Subscriber interface {
	// DialURL is the websocket URL including credentials and, for dialects
	// without multiplexing, the stream selector.
	DialURL() string

	// SubscribeFrame is sent once after the socket opens. Nil means the
	// dialect needs no subscribe message.
	SubscribeFrame() []byte

	// UnsubscribeFrame is best-effort sent on teardown. Nil to skip.
	UnsubscribeFrame() []byte

	// KeepaliveFrame is sent on the periodic keepalive tick. Nil to rely on
	// transport-level pings only.
	KeepaliveFrame() []byte

	// Pong returns the immediate reply to an application-level server ping,
	// or nil if the message is not a ping.
	Pong(data []byte) []byte

	// Decode maps one inbound message to a StreamingEvent. ok is false for
	// control frames, foreign-channel frames and undecodable payloads, all
	// of which are silently dropped.
	Decode(data []byte) (evt StreamingEvent, ok bool)
}
