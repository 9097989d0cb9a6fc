package listener

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tableside/tableside/agent/internal/config"
	"github.com/tableside/tableside/pkg/types"
)

// hubStub is a minimal WebSocket server that records register messages and
// hands each accepted connection to the test.
type hubStub struct {
	srv    *httptest.Server
	regs   chan types.RegisterMessage
	conns  chan *websocket.Conn
	closed chan error
}

func startHub(t *testing.T) *hubStub {
	t.Helper()
	h := &hubStub{
		regs:   make(chan types.RegisterMessage, 16),
		conns:  make(chan *websocket.Conn, 4),
		closed: make(chan error, 4),
	}
	up := websocket.Upgrader{}
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.conns <- conn
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				h.closed <- err
				return
			}
			var m types.RegisterMessage
			if json.Unmarshal(data, &m) == nil {
				h.regs <- m
			}
		}
	}))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *hubStub) url() string {
	return "ws" + strings.TrimPrefix(h.srv.URL, "http")
}

func (h *hubStub) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-h.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connection")
		return nil
	}
}

func (h *hubStub) register(t *testing.T) types.RegisterMessage {
	t.Helper()
	select {
	case m := <-h.regs:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for register message")
		return types.RegisterMessage{}
	}
}

func testCfg(url string) config.AgentConfig {
	return config.AgentConfig{
		ServerURL:    url,
		UserID:       "kitchen-1",
		Role:         types.RoleAdmin,
		ReconnectMin: 10 * time.Millisecond,
		ReconnectMax: 50 * time.Millisecond,
	}
}

// run starts l in the background and returns a func that stops it and waits.
func run(t *testing.T, l *Listener) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	stop = func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Run did not return after cancel")
		}
	}
	t.Cleanup(stop)
	return stop
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// --- Tests ---

func TestListener_RegistersAndDelivers(t *testing.T) {
	hub := startHub(t)
	got := make(chan types.Notification, 4)
	l := New(testCfg(hub.url()), func(n types.Notification) { got <- n })
	run(t, l)

	conn := hub.accept(t)
	reg := hub.register(t)
	if reg.Type != types.TypeRegister || reg.UserID != "kitchen-1" || reg.Role != types.RoleAdmin {
		t.Errorf("register: got %+v", reg)
	}

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))                                    //nolint:errcheck
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"New Order Created","message":"hi"}`)) //nolint:errcheck

	select {
	case n := <-got:
		if n.Type != types.EventNewOrder {
			t.Errorf("type: got %q, want %q", n.Type, types.EventNewOrder)
		}
		if n.Fields["message"] != "hi" {
			t.Errorf("message: got %v, want hi", n.Fields["message"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
	select {
	case n := <-got:
		t.Errorf("unexpected extra notification: %+v", n)
	default:
	}
}

func TestListener_SetIdentityReRegisters(t *testing.T) {
	hub := startHub(t)
	l := New(testCfg(hub.url()), func(types.Notification) {})
	run(t, l)

	hub.accept(t)
	hub.register(t)
	waitFor(t, "connected", l.Connected)

	l.SetIdentity("kitchen-1", types.RoleUser)
	reg := hub.register(t)
	if reg.Role != types.RoleUser {
		t.Errorf("role: got %q, want USER", reg.Role)
	}

	// Same identity again sends nothing.
	l.SetIdentity("kitchen-1", types.RoleUser)
	select {
	case m := <-hub.regs:
		t.Errorf("unexpected register: %+v", m)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestListener_SetIdentityWhileDisconnected(t *testing.T) {
	l := New(testCfg("ws://127.0.0.1:1/ws"), func(types.Notification) {})
	l.SetIdentity("front-desk", types.RoleUser)

	if l.identity.UserID != "front-desk" || l.identity.Role != types.RoleUser {
		t.Errorf("identity: got %+v", l.identity)
	}
	if l.Connected() {
		t.Error("Connected: got true, want false")
	}
}

func TestListener_ReconnectsAndRegistersAgain(t *testing.T) {
	hub := startHub(t)
	l := New(testCfg(hub.url()), func(types.Notification) {})
	run(t, l)

	first := hub.accept(t)
	hub.register(t)

	first.Close()

	hub.accept(t)
	reg := hub.register(t)
	if reg.UserID != "kitchen-1" {
		t.Errorf("register after reconnect: got %+v", reg)
	}
}

func TestListener_RetriesFailedDials(t *testing.T) {
	hub := startHub(t)
	l := New(testCfg(hub.url()), func(types.Notification) {})

	var attempts atomic.Int32
	l.dialFn = func(ctx context.Context, url string, cfg config.AgentConfig) (*websocket.Conn, error) {
		if attempts.Add(1) <= 2 {
			return nil, errors.New("connection refused")
		}
		return defaultDial(ctx, url, cfg)
	}
	run(t, l)

	hub.accept(t)
	hub.register(t)
	if n := attempts.Load(); n != 3 {
		t.Errorf("dial attempts: got %d, want 3", n)
	}
}

func TestListener_StopsWhileWaiting(t *testing.T) {
	cfg := testCfg("ws://unused")
	cfg.ReconnectMin = time.Hour
	cfg.ReconnectMax = time.Hour
	l := New(cfg, func(types.Notification) {})
	l.dialFn = func(context.Context, string, config.AgentConfig) (*websocket.Conn, error) {
		return nil, errors.New("down")
	}

	stop := run(t, l)
	time.Sleep(20 * time.Millisecond)
	stop()
}

func TestListener_ClosesOnCancel(t *testing.T) {
	hub := startHub(t)
	l := New(testCfg(hub.url()), func(types.Notification) {})
	stop := run(t, l)

	hub.accept(t)
	hub.register(t)
	stop()

	select {
	case err := <-hub.closed:
		if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			t.Errorf("close: got %v, want normal closure", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection close")
	}
}

func TestBackoff_GrowsAndCaps(t *testing.T) {
	b := newBackoff(time.Second, 4*time.Second)
	for _, want := range []time.Duration{1, 2, 4, 4} {
		want *= time.Second
		d := b.next()
		lo, hi := want*3/4, want*5/4
		if d < lo || d > hi {
			t.Errorf("next: got %v, want within [%v, %v]", d, lo, hi)
		}
	}
	b.reset()
	if b.current != time.Second {
		t.Errorf("after reset: got %v, want 1s", b.current)
	}
}

func TestTLSConfig(t *testing.T) {
	if c, err := tlsConfig(config.TLSConfig{}); c != nil || err != nil {
		t.Errorf("empty: got %v, %v; want nil, nil", c, err)
	}

	c, err := tlsConfig(config.TLSConfig{InsecureSkipVerify: true})
	if err != nil || c == nil || !c.InsecureSkipVerify {
		t.Errorf("insecure: got %+v, %v", c, err)
	}

	if _, err := tlsConfig(config.TLSConfig{CAFile: filepath.Join(t.TempDir(), "missing.pem")}); err == nil {
		t.Error("missing ca file: expected error")
	}

	bad := filepath.Join(t.TempDir(), "bad.pem")
	os.WriteFile(bad, []byte("not a cert"), 0o600) //nolint:errcheck
	if _, err := tlsConfig(config.TLSConfig{CAFile: bad}); err == nil {
		t.Error("invalid ca file: expected error")
	}
}
