// Copyright 2024-2026 Aiku AI

package misskey

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aiku/fedikit/pkg/fedi"
)

// channelName resolves a timeline kind to its streaming channel.
func channelName(kind fedi.TimelineKind) string {
	switch kind {
	case fedi.TimelineLocal:
		return "localTimeline"
	case fedi.TimelineFederated:
		return "globalTimeline"
	case fedi.TimelineNotifications:
		return "main"
	default:
		return "homeTimeline"
	}
}

// subscriber speaks the multiplexed streaming protocol: one socket,
// channels joined and left by id, server pings answered in-band.
type subscriber struct {
	acct    *fedi.Account
	channel string

	// id names the current channel binding. A fresh one is drawn per
	// subscribe so frames from a torn-down binding never alias a new one.
	// The mutex covers it: subscribes happen on the connection goroutine,
	// the unsubscribe on whichever goroutine tears the machine down.
	mu sync.Mutex
	id string
}

func (s *subscriber) currentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Subscriber returns the realtime wire protocol for one live timeline.
func (c *Client) Subscriber(acct *fedi.Account, kind fedi.TimelineKind) fedi.Subscriber {
	return &subscriber{acct: acct, channel: channelName(kind)}
}

func (s *subscriber) DialURL() string {
	endpoint := strings.Replace(s.acct.Endpoint, "http", "ws", 1)
	return endpoint + "/streaming?i=" + s.acct.AccessToken
}

type connectFrame struct {
	Type string      `json:"type"`
	Body connectBody `json:"body"`
}

type connectBody struct {
	Channel string `json:"channel,omitempty"`
	ID      string `json:"id"`
}

func (s *subscriber) SubscribeFrame() []byte {
	id := uuid.NewString()
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	data, _ := json.Marshal(connectFrame{
		Type: "connect",
		Body: connectBody{Channel: s.channel, ID: id},
	})
	return data
}

func (s *subscriber) UnsubscribeFrame() []byte {
	id := s.currentID()
	if id == "" {
		return nil
	}
	data, _ := json.Marshal(connectFrame{
		Type: "disconnect",
		Body: connectBody{ID: id},
	})
	return data
}

func (s *subscriber) KeepaliveFrame() []byte {
	return []byte(`{"type":"ping"}`)
}

func (s *subscriber) Pong(data []byte) []byte {
	var frame struct {
		Type string `json:"type"`
	}
	if json.Unmarshal(data, &frame) != nil || frame.Type != "ping" {
		return nil
	}
	return []byte(`{"type":"pong"}`)
}

// inboundFrame is the outer multiplexing envelope.
type inboundFrame struct {
	Type string `json:"type"`
	Body struct {
		ID   string          `json:"id"`
		Type string          `json:"type"`
		Body json.RawMessage `json:"body"`
	} `json:"body"`
}

// Decode maps one frame to a canonical event. Frames for other channel
// bindings and unknown message types are dropped.
func (s *subscriber) Decode(data []byte) (fedi.StreamingEvent, bool) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fedi.StreamingEvent{}, false
	}
	if frame.Type != "channel" || frame.Body.ID != s.currentID() {
		return fedi.StreamingEvent{}, false
	}

	switch frame.Body.Type {
	case "note":
		var note Note
		if err := json.Unmarshal(frame.Body.Body, &note); err != nil {
			return fedi.StreamingEvent{}, false
		}
		st := MapNote(&note, s.acct)
		if st == nil {
			return fedi.StreamingEvent{}, false
		}
		return fedi.StreamingEvent{Kind: fedi.EventUpdate, Status: st}, true
	case "notification":
		var n Notification
		if err := json.Unmarshal(frame.Body.Body, &n); err != nil {
			return fedi.StreamingEvent{}, false
		}
		st := MapNotification(&n, s.acct)
		if st == nil {
			return fedi.StreamingEvent{}, false
		}
		return fedi.StreamingEvent{Kind: fedi.EventNotify, Status: st}, true
	case "deleted":
		var body struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(frame.Body.Body, &body); err != nil || body.ID == "" {
			return fedi.StreamingEvent{}, false
		}
		return fedi.StreamingEvent{Kind: fedi.EventDelete, DeleteID: body.ID}, true
	default:
		return fedi.StreamingEvent{}, false
	}
}
