// Copyright 2024-2026 Aiku AI

package mastodon

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/aiku/fedikit/pkg/fedi"
)

// streamName resolves a timeline kind to the streaming channel selector.
func streamName(kind fedi.TimelineKind) string {
	switch kind {
	case fedi.TimelineLocal:
		return "public:local"
	case fedi.TimelineFederated:
		return "public"
	case fedi.TimelineNotifications:
		return "user:notification"
	default:
		return "user"
	}
}

// subscriber speaks the dialect's streaming wire format: the stream is
// selected by query parameter at dial time, frames are {event, payload}
// envelopes with a JSON-string payload, and there is no multiplexing, so
// no subscribe frame and no channel filter.
type subscriber struct {
	acct   *fedi.Account
	stream string
}

// Subscriber builds the realtime protocol for one live timeline.
func (c *Client) Subscriber(acct *fedi.Account, kind fedi.TimelineKind) fedi.Subscriber {
	return &subscriber{acct: acct, stream: streamName(kind)}
}

func (s *subscriber) DialURL() string {
	base := s.acct.Endpoint
	base = strings.Replace(base, "https://", "wss://", 1)
	base = strings.Replace(base, "http://", "ws://", 1)
	query := url.Values{
		"access_token": {s.acct.AccessToken},
		"stream":       {s.stream},
	}
	return base + "/api/v1/streaming?" + query.Encode()
}

// The server pings at the websocket transport level; no application-level
// subscribe, keepalive or pong frames exist in this dialect.
func (s *subscriber) SubscribeFrame() []byte   { return nil }
func (s *subscriber) UnsubscribeFrame() []byte { return nil }
func (s *subscriber) KeepaliveFrame() []byte   { return nil }
func (s *subscriber) Pong([]byte) []byte       { return nil }

// streamFrame is the inbound event envelope. Payload is itself a JSON
// document encoded as a string.
type streamFrame struct {
	Stream  []string `json:"stream"`
	Event   string   `json:"event"`
	Payload string   `json:"payload"`
}

func (s *subscriber) Decode(data []byte) (fedi.StreamingEvent, bool) {
	var frame streamFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fedi.StreamingEvent{}, false
	}
	// Frames tagged for a different stream on the same socket are dropped.
	if len(frame.Stream) > 0 && !containsStream(frame.Stream, s.stream) {
		return fedi.StreamingEvent{}, false
	}

	switch frame.Event {
	case "update", "status.update":
		var raw Status
		if err := json.Unmarshal([]byte(frame.Payload), &raw); err != nil {
			return fedi.StreamingEvent{}, false
		}
		st := MapStatus(&raw, s.acct)
		if st == nil {
			return fedi.StreamingEvent{}, false
		}
		return fedi.StreamingEvent{Kind: fedi.EventUpdate, Status: st}, true
	case "delete":
		id := strings.TrimSpace(frame.Payload)
		if id == "" {
			return fedi.StreamingEvent{}, false
		}
		return fedi.StreamingEvent{Kind: fedi.EventDelete, DeleteID: id}, true
	case "notification":
		var raw Notification
		if err := json.Unmarshal([]byte(frame.Payload), &raw); err != nil {
			return fedi.StreamingEvent{Kind: fedi.EventNotify}, true
		}
		return fedi.StreamingEvent{Kind: fedi.EventNotify, Status: MapNotification(&raw, s.acct)}, true
	default:
		return fedi.StreamingEvent{}, false
	}
}

func containsStream(streams []string, want string) bool {
	for _, s := range streams {
		if s == want {
			return true
		}
	}
	return false
}
