// Copyright 2024-2026 Aiku AI

// Package streaming owns one realtime connection per live timeline:
// dialing, subscribing, keepalive, and reconnection with capped
// exponential backoff. Socket failures never surface to the caller; the
// machine reconnects indefinitely until stopped.
package streaming

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aiku/fedikit/pkg/fedi"
)

// State is the machine's connection phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
)

const keepaliveInterval = 30 * time.Second

// reconnectBackoff builds the delay ladder: 2s, 4s, 8s, then capped at
// 15s, deterministic (no jitter), never giving up. Reset on any
// successful subscription.
func reconnectBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 2 * time.Second
	b.Multiplier = 2
	b.MaxInterval = 15 * time.Second
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Machine runs one subscription's connection lifecycle. Events are handed
// to a single deliver callback, the feed owner; no event is delivered
// after Stop returns.
type Machine struct {
	sub     fedi.Subscriber
	deliver func(fedi.StreamingEvent)
	log     zerolog.Logger
	dialer  *websocket.Dialer
	retry   *backoff.ExponentialBackOff

	mu      sync.Mutex
	conn    *websocket.Conn
	state   State
	stopped bool

	// writeMu serializes frame writes. The transport permits a single
	// writer, and pong replies, keepalive ticks and the teardown
	// unsubscribe all run on different goroutines.
	writeMu sync.Mutex

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// New builds a machine for one subscriber. Start must be called to
// connect.
func New(sub fedi.Subscriber, deliver func(fedi.StreamingEvent), log zerolog.Logger) *Machine {
	return &Machine{
		sub:      sub,
		deliver:  deliver,
		log:      log.With().Str("component", "streaming").Logger(),
		dialer:   websocket.DefaultDialer,
		retry:    reconnectBackoff(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the connection loop.
func (m *Machine) Start() {
	go m.run()
}

// State reports the current connection phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) write(conn *websocket.Conn, data []byte) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (m *Machine) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Machine) run() {
	defer close(m.done)
	for {
		select {
		case <-m.stopChan:
			return
		default:
		}

		m.setState(StateConnecting)
		url := m.sub.DialURL()
		conn, _, err := m.dialer.Dial(url, nil)
		if err != nil {
			m.log.Warn().Err(err).Msg("Streaming dial failed")
			m.setState(StateDisconnected)
			if !m.waitBackoff() {
				return
			}
			continue
		}

		if frame := m.sub.SubscribeFrame(); frame != nil {
			if err := m.write(conn, frame); err != nil {
				m.log.Warn().Err(err).Msg("Streaming subscribe failed")
				_ = conn.Close()
				m.setState(StateDisconnected)
				if !m.waitBackoff() {
					return
				}
				continue
			}
		}

		m.mu.Lock()
		if m.stopped {
			m.mu.Unlock()
			_ = conn.Close()
			return
		}
		m.conn = conn
		m.state = StateSubscribed
		m.mu.Unlock()
		m.retry.Reset()
		m.log.Info().Msg("Streaming subscribed")

		m.readLoop(conn)

		m.mu.Lock()
		m.conn = nil
		m.state = StateDisconnected
		stopped := m.stopped
		m.mu.Unlock()
		if stopped {
			return
		}
		m.log.Warn().Msg("Streaming connection lost, reconnecting")
		if !m.waitBackoff() {
			return
		}
	}
}

// waitBackoff sleeps for the next reconnect delay. Returns false when the
// machine was stopped while waiting.
func (m *Machine) waitBackoff() bool {
	delay := m.retry.NextBackOff()
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-m.stopChan:
		return false
	case <-timer.C:
		return true
	}
}

// readLoop pumps inbound messages until the socket dies. It also runs the
// outbound keepalive tick; a server ping is answered immediately and
// independently of that timer.
func (m *Machine) readLoop(conn *websocket.Conn) {
	stopKeepalive := make(chan struct{})
	defer close(stopKeepalive)

	if frame := m.sub.KeepaliveFrame(); frame != nil {
		go m.keepalive(conn, stopKeepalive)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if pong := m.sub.Pong(data); pong != nil {
			if err := m.write(conn, pong); err != nil {
				return
			}
			continue
		}
		if evt, ok := m.sub.Decode(data); ok {
			m.emit(evt)
		}
	}
}

func (m *Machine) keepalive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			frame := m.sub.KeepaliveFrame()
			if err := m.write(conn, frame); err != nil {
				return
			}
		}
	}
}

// emit delivers one event unless the machine has been stopped. The lock
// makes Stop a barrier: once it returns, no event reaches the feed.
func (m *Machine) emit(evt fedi.StreamingEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.deliver(evt)
}

// Stop tears the subscription down: cancels timers, best-effort sends the
// unsubscribe frame if the socket is open, then closes it. Calling Stop
// more than once is harmless.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		m.stopped = true
		conn := m.conn
		m.conn = nil
		m.state = StateDisconnected
		m.mu.Unlock()

		close(m.stopChan)
		if conn != nil {
			if frame := m.sub.UnsubscribeFrame(); frame != nil {
				_ = m.write(conn, frame)
			}
			_ = conn.Close()
		}
	})
}
