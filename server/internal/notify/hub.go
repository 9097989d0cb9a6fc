package notify

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// writeTimeout is the deadline for a single write to a client.
const writeTimeout = 10 * time.Second

// Options tunes connection handling. Zero values fall back to the defaults
// noted on each field.
type Options struct {
	// SendBuffer is the per-connection outbound queue depth (default 32).
	SendBuffer int

	// MaxMessageBytes is the largest control message parsed (default 4096).
	// A larger frame is drained and discarded as malformed; the connection
	// stays open.
	MaxMessageBytes int64

	// MaxFrameBytes is the hard cap on a single inbound frame (default 1 MiB,
	// never below MaxMessageBytes). A frame over it closes the connection.
	MaxFrameBytes int64

	// PingInterval enables keepalive pings when positive.
	PingInterval time.Duration

	// PongWait is the read deadline refreshed by every pong. Ignored unless
	// PingInterval is positive.
	PongWait time.Duration

	// RegistrationTimeout closes connections that have not registered within
	// this duration. Zero disables the check.
	RegistrationTimeout time.Duration

	// AllowedOrigins restricts browser upgrades by Origin header. Requests
	// without an Origin header are always accepted.
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4096
	}
	if o.MaxFrameBytes <= 0 {
		o.MaxFrameBytes = 1 << 20
	}
	if o.MaxFrameBytes < o.MaxMessageBytes {
		o.MaxFrameBytes = o.MaxMessageBytes
	}
	if o.PingInterval > 0 && o.PongWait <= o.PingInterval {
		o.PongWait = o.PingInterval * 10 / 9
	}
	return o
}

// Hub accepts WebSocket connections, keeps the Registry consistent with
// their liveness and routes inbound control messages.
type Hub struct {
	reg      *Registry
	opts     Options
	metrics  *Metrics
	upgrader websocket.Upgrader
	closing  atomic.Bool
}

// NewHub creates a Hub that records connections in reg. m may be nil.
func NewHub(reg *Registry, opts Options, m *Metrics) *Hub {
	opts = opts.withDefaults()
	h := &Hub{reg: reg, opts: opts, metrics: m}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run blocks until ctx is cancelled, then closes every connection. Each close
// removes its connection from the Registry.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the request to WebSocket and serves the connection until
// it closes. The connection starts unregistered and is reachable only by
// broadcast until it sends a register message.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		slog.Debug("notify: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	c := newConn(ws, r.RemoteAddr, h.opts.SendBuffer, h.teardown)
	h.reg.Add(c)
	if h.closing.Load() || !c.open() {
		c.Close()
		ws.Close()
		return
	}
	slog.Info("notify: client connected", "conn", c.id, "remote", c.remote)

	if h.opts.RegistrationTimeout > 0 {
		t := time.AfterFunc(h.opts.RegistrationTimeout, func() { h.expireUnregistered(c) })
		defer t.Stop()
	}

	go c.writePump(h.opts.PingInterval)
	h.readPump(c) // blocks until the connection closes
	c.Close()
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	return h.reg.Len()
}

// Stats summarises the Registry.
func (h *Hub) Stats() RegistryStats {
	return h.reg.Stats()
}

// --- internal ---------------------------------------------------------------

func (h *Hub) readPump(c *Conn) {
	c.ws.SetReadLimit(h.opts.MaxFrameBytes)
	if h.opts.PingInterval > 0 {
		c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait)) //nolint:errcheck
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(h.opts.PongWait))
		})
	}
	for {
		data, size, err := h.readFrame(c)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("notify: read failed", "conn", c.id, "err", err)
			}
			return
		}
		if size > h.opts.MaxMessageBytes {
			h.handleControl(c, Unknown{Malformed: true}, size)
			continue
		}
		h.handleControl(c, ParseControl(data), size)
	}
}

// readFrame reads one frame and reports its full size. Only the first
// MaxMessageBytes+1 bytes are kept; the rest is drained.
func (h *Hub) readFrame(c *Conn) ([]byte, int64, error) {
	_, r, err := c.ws.NextReader()
	if err != nil {
		return nil, 0, err
	}
	data, err := io.ReadAll(io.LimitReader(r, h.opts.MaxMessageBytes+1))
	if err != nil {
		return nil, 0, err
	}
	size := int64(len(data))
	if size <= h.opts.MaxMessageBytes {
		return data, size, nil
	}
	rest, err := io.Copy(io.Discard, r)
	if err != nil {
		return nil, 0, err
	}
	return nil, size + rest, nil
}

func (h *Hub) handleControl(c *Conn, msg Control, size int64) {
	h.metrics.controlMessage(msg.kind())

	switch m := msg.(type) {
	case Register:
		if h.reg.SetIdentity(c, m.Identity) {
			slog.Info("notify: client registered",
				"conn", c.id,
				"user_id", m.Identity.UserID,
				"role", m.Identity.Role,
			)
		}
	case Unknown:
		slog.Warn("notify: control message discarded",
			"conn", c.id,
			"type", m.Type,
			"malformed", m.Malformed,
			"bytes", size,
		)
	}
}

// teardown is the Closed transition hook. Conn guarantees it runs once.
func (h *Hub) teardown(c *Conn) {
	if h.reg.Remove(c) {
		slog.Info("notify: client disconnected", "conn", c.id)
	}
}

func (h *Hub) expireUnregistered(c *Conn) {
	if _, registered := h.reg.Identity(c); registered || c.State() != StateOpen {
		return
	}
	slog.Warn("notify: closing unregistered client",
		"conn", c.id,
		"timeout", h.opts.RegistrationTimeout,
	)
	c.Close()
}

func (h *Hub) closeAll() {
	h.closing.Store(true)
	n := 0
	for c := range h.reg.All() {
		c.Close()
		n++
	}
	slog.Info("notify: hub stopped", "closed", n)
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.opts.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}
