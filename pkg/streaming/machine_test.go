// Copyright 2024-2026 Aiku AI

package streaming

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

func TestReconnectBackoffLadder(t *testing.T) {
	t.Parallel()
	b := reconnectBackoff()
	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		15 * time.Second,
		15 * time.Second,
	}
	for i, w := range want {
		if got := b.NextBackOff(); got != w {
			t.Errorf("delay %d: got %v, want %v", i+1, got, w)
		}
	}
	// A successful subscription resets the ladder to the base delay.
	b.Reset()
	if got := b.NextBackOff(); got != 2*time.Second {
		t.Errorf("delay after reset: got %v, want 2s", got)
	}
}

// fakeSub is a minimal dialect protocol for machine tests.
type fakeSub struct {
	url       string
	keepalive []byte
}

func (f *fakeSub) DialURL() string          { return f.url }
func (f *fakeSub) SubscribeFrame() []byte   { return []byte("subscribe") }
func (f *fakeSub) UnsubscribeFrame() []byte { return []byte("unsubscribe") }
func (f *fakeSub) KeepaliveFrame() []byte   { return f.keepalive }

func (f *fakeSub) Pong(data []byte) []byte {
	if string(data) == "ping" {
		return []byte("pong")
	}
	return nil
}

func (f *fakeSub) Decode(data []byte) (fedi.StreamingEvent, bool) {
	msg := string(data)
	if id, ok := strings.CutPrefix(msg, "delete:"); ok {
		return fedi.StreamingEvent{Kind: fedi.EventDelete, DeleteID: id}, true
	}
	return fedi.StreamingEvent{}, false
}

var upgrader = websocket.Upgrader{}

func TestMachineSubscribePongDeliverStop(t *testing.T) {
	t.Parallel()

	gotSubscribe := make(chan string, 1)
	gotPong := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		gotSubscribe <- string(data)

		// An application-level ping must be answered regardless of the
		// keepalive timer.
		if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
			return
		}
		_, data, err = conn.ReadMessage()
		if err != nil {
			return
		}
		gotPong <- string(data)

		_ = conn.WriteMessage(websocket.TextMessage, []byte("garbage"))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("delete:42"))

		// Hold the socket open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	events := make(chan fedi.StreamingEvent, 4)
	sub := &fakeSub{url: "ws" + strings.TrimPrefix(srv.URL, "http")}
	m := New(sub, func(evt fedi.StreamingEvent) { events <- evt }, zerolog.Nop())
	m.Start()
	defer m.Stop()

	waitFor := func(name string, ch chan string, want string) {
		t.Helper()
		select {
		case got := <-ch:
			if got != want {
				t.Fatalf("%s: got %q, want %q", name, got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", name)
		}
	}
	waitFor("subscribe frame", gotSubscribe, "subscribe")
	waitFor("pong reply", gotPong, "pong")

	select {
	case evt := <-events:
		if evt.Kind != fedi.EventDelete || evt.DeleteID != "42" {
			t.Fatalf("event: got %+v", evt)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	// Undecodable frames are dropped silently.
	select {
	case evt := <-events:
		t.Fatalf("unexpected extra event: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}

	m.Stop()
	m.Stop() // idempotent
	if got := m.State(); got != StateDisconnected {
		t.Errorf("state after Stop: got %v, want StateDisconnected", got)
	}
}

// The transport allows a single concurrent writer, so the pong reply, the
// keepalive tick and Stop's unsubscribe must never write at the same time.
// A server flooding pings while Stop lands mid-stream exercises exactly
// that overlap; the race detector flags any unserialized write.
func TestMachineStopDuringPingFlood(t *testing.T) {
	t.Parallel()

	firstPong := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil { // subscribe
			return
		}

		// Drain pongs and the final unsubscribe so the flood never blocks
		// on a full buffer.
		go func() {
			for {
				_, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if string(data) == "pong" {
					select {
					case firstPong <- struct{}{}:
					default:
					}
				}
			}
		}()

		for {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	sub := &fakeSub{
		url:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		keepalive: []byte("keepalive"),
	}
	m := New(sub, func(fedi.StreamingEvent) {}, zerolog.Nop())
	m.Start()

	select {
	case <-firstPong:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first pong")
	}

	// Stop while the read loop is still busy answering pings.
	m.Stop()
	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not exit after Stop")
	}
	if got := m.State(); got != StateDisconnected {
		t.Errorf("state after Stop: got %v, want StateDisconnected", got)
	}
}

func TestMachineStopBeforeConnect(t *testing.T) {
	t.Parallel()
	sub := &fakeSub{url: "ws://127.0.0.1:1/streaming"}
	m := New(sub, func(fedi.StreamingEvent) {
		t.Error("no event expected")
	}, zerolog.Nop())
	m.Stop()
	m.Stop()
	m.Start()
	// The run loop must exit promptly without dialing forever.
	select {
	case <-m.done:
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not exit after Stop")
	}
}
