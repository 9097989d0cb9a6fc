package listener

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tableside/tableside/agent/internal/config"
	"github.com/tableside/tableside/pkg/types"
)

const (
	backoffMultiplier = 2.0
	handshakeTimeout  = 10 * time.Second
	writeTimeout      = 10 * time.Second
)

// Handler receives each notification pushed by the server.
type Handler func(types.Notification)

// Listener maintains one WebSocket connection to the server.
type Listener struct {
	cfg     config.AgentConfig
	handler Handler
	dialFn  dialFunc // injectable for tests

	mu       sync.Mutex // guards identity, conn and writes on conn
	identity types.RegisterMessage
	conn     *websocket.Conn
}

// dialFunc opens a WebSocket connection to url.
type dialFunc func(ctx context.Context, url string, cfg config.AgentConfig) (*websocket.Conn, error)

// New creates a Listener for cfg that passes notifications to h.
func New(cfg config.AgentConfig, h Handler) *Listener {
	return &Listener{
		cfg:      cfg,
		handler:  h,
		dialFn:   defaultDial,
		identity: types.NewRegisterMessage(cfg.UserID, cfg.Role),
	}
}

// SetIdentity records a new identity and, when connected, re-registers
// under it straight away.
func (l *Listener) SetIdentity(userID, role string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := types.NewRegisterMessage(userID, role)
	if next == l.identity {
		return
	}
	l.identity = next
	if l.conn == nil {
		return
	}
	if err := l.writeRegisterLocked(l.conn); err != nil {
		slog.Warn("listener: re-register failed", "err", err)
		return
	}
	slog.Info("listener: re-registered", "user_id", userID, "role", role)
}

// Connected reports whether a connection is currently live.
func (l *Listener) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn != nil
}

// Run connects, registers and reads notifications, reconnecting whenever
// the connection is lost. Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) {
	bo := newBackoff(l.cfg.ReconnectMin, l.cfg.ReconnectMax)

	for {
		if ctx.Err() != nil {
			return
		}

		conn, err := l.dialFn(ctx, l.cfg.ServerURL, l.cfg)
		if err != nil {
			wait := bo.next()
			slog.Error("listener: dial failed, will retry",
				"url", l.cfg.ServerURL,
				"err", err,
				"retry_in", wait)
			if !sleep(ctx, wait) {
				return
			}
			continue
		}

		slog.Info("listener: connected", "url", l.cfg.ServerURL)
		bo.reset()

		err = l.session(ctx, conn)

		if ctx.Err() != nil {
			return
		}

		wait := bo.next()
		slog.Warn("listener: connection lost, will reconnect",
			"url", l.cfg.ServerURL,
			"err", err,
			"retry_in", wait)
		if !sleep(ctx, wait) {
			return
		}
	}
}

// session registers on conn and reads from it until it fails or ctx ends.
func (l *Listener) session(ctx context.Context, conn *websocket.Conn) error {
	l.mu.Lock()
	err := l.writeRegisterLocked(conn)
	if err == nil {
		l.conn = conn
	}
	l.mu.Unlock()
	if err != nil {
		conn.Close()
		return fmt.Errorf("register: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)) //nolint:errcheck
		conn.Close()
	})
	defer func() {
		stop()
		l.mu.Lock()
		l.conn = nil
		l.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		n, err := types.DecodeNotification(data)
		if err != nil {
			slog.Warn("listener: undecodable frame skipped", "err", err, "bytes", len(data))
			continue
		}
		l.handler(n)
	}
}

// writeRegisterLocked sends the current identity on conn. l.mu must be held.
func (l *Listener) writeRegisterLocked(conn *websocket.Conn) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
	return conn.WriteJSON(l.identity)
}

// --- internal ---

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// defaultDial opens a WebSocket connection, applying TLS options from cfg
// for wss:// URLs.
func defaultDial(ctx context.Context, url string, cfg config.AgentConfig) (*websocket.Conn, error) {
	tlsCfg, err := tlsConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	d := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
		TLSClientConfig:  tlsCfg,
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	return conn, err
}

// tlsConfig builds the client TLS settings, or nil when defaults suffice.
func tlsConfig(c config.TLSConfig) (*tls.Config, error) {
	if c.CAFile == "" && !c.InsecureSkipVerify {
		return nil, nil
	}
	tlsCfg := &tls.Config{
		InsecureSkipVerify: c.InsecureSkipVerify, //nolint:gosec
	}
	if c.CAFile != "" {
		caPEM, err := os.ReadFile(c.CAFile)
		if err != nil {
			return nil, fmt.Errorf("listener: read ca file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("listener: no valid certs in ca file %q", c.CAFile)
		}
		tlsCfg.RootCAs = pool
	}
	return tlsCfg, nil
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	initial time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(initial, max time.Duration) *backoff {
	return &backoff{initial: initial, max: max, current: initial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// ±25% jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > b.max {
		b.current = b.max
	}
	return d
}

func (b *backoff) reset() {
	b.current = b.initial
}
