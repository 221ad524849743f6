// Copyright 2024-2026 Aiku AI

package mastodon

import (
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

func newTestSubscriber(kind fedi.TimelineKind) fedi.Subscriber {
	acct := &fedi.Account{Endpoint: "https://inst.example", AccessToken: "tok"}
	return New(nil, zerolog.Nop()).Subscriber(acct, kind)
}

func TestSubscriberDialURL(t *testing.T) {
	t.Parallel()
	s := newTestSubscriber(fedi.TimelineLocal)
	raw := s.DialURL()
	if !strings.HasPrefix(raw, "wss://inst.example/api/v1/streaming?") {
		t.Fatalf("dial url: got %q", raw)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("dial url parse: %v", err)
	}
	q := u.Query()
	if q.Get("access_token") != "tok" || q.Get("stream") != "public:local" {
		t.Errorf("dial query: got %v", q)
	}
}

func TestSubscriberSendsNoControlFrames(t *testing.T) {
	t.Parallel()
	s := newTestSubscriber(fedi.TimelineHome)
	if s.SubscribeFrame() != nil || s.UnsubscribeFrame() != nil || s.KeepaliveFrame() != nil {
		t.Error("dialect must not send application-level control frames")
	}
	if s.Pong([]byte(`{"type":"ping"}`)) != nil {
		t.Error("dialect has no application-level ping")
	}
}

func TestDecodeUpdateAndDelete(t *testing.T) {
	t.Parallel()
	s := newTestSubscriber(fedi.TimelineHome)

	evt, ok := s.Decode([]byte(`{"event":"update","payload":"{\"id\":\"7\",\"content\":\"<p>hi</p>\",\"account\":{\"id\":\"u1\",\"acct\":\"a\"}}"}`))
	if !ok || evt.Kind != fedi.EventUpdate || evt.Status == nil || evt.Status.ID != "7" {
		t.Errorf("update frame: got %+v ok=%v", evt, ok)
	}

	evt, ok = s.Decode([]byte(`{"event":"delete","payload":"42"}`))
	if !ok || evt.Kind != fedi.EventDelete || evt.DeleteID != "42" {
		t.Errorf("delete frame: got %+v ok=%v", evt, ok)
	}

	if _, ok := s.Decode([]byte(`{"event":"filters_changed"}`)); ok {
		t.Error("unknown event decoded")
	}
	if _, ok := s.Decode([]byte(`garbage`)); ok {
		t.Error("garbage decoded")
	}
}

func TestDecodeFiltersForeignStreams(t *testing.T) {
	t.Parallel()
	s := newTestSubscriber(fedi.TimelineHome)

	frame := `{"stream":["public"],"event":"delete","payload":"42"}`
	if _, ok := s.Decode([]byte(frame)); ok {
		t.Error("foreign stream frame decoded")
	}
	frame = `{"stream":["user"],"event":"delete","payload":"42"}`
	if _, ok := s.Decode([]byte(frame)); !ok {
		t.Error("own stream frame dropped")
	}
}

func TestDecodeNotification(t *testing.T) {
	t.Parallel()
	s := newTestSubscriber(fedi.TimelineNotifications)

	evt, ok := s.Decode([]byte(`{"event":"notification","payload":"{\"id\":\"n1\",\"type\":\"follow\",\"account\":{\"id\":\"u2\",\"acct\":\"b\"}}"}`))
	if !ok || evt.Kind != fedi.EventNotify {
		t.Fatalf("notification frame: got %+v ok=%v", evt, ok)
	}
	if evt.Status == nil || evt.Status.Notification == nil || evt.Status.Notification.Kind != fedi.KindFollow {
		t.Errorf("inline wrapper: got %+v", evt.Status)
	}
}
