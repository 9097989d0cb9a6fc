package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is a connection's position in its lifecycle. The only transitions are
// Connecting -> Open -> Closed and Connecting -> Closed.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

// Conn is one client connection owned by the Hub.
type Conn struct {
	id     string
	remote string
	ws     *websocket.Conn

	state atomic.Int32
	send  chan []byte
	done  chan struct{}

	closeOnce sync.Once
	onClose   func(*Conn)
}

func newConn(ws *websocket.Conn, remote string, sendBuffer int, onClose func(*Conn)) *Conn {
	return &Conn{
		id:      uuid.NewString(),
		remote:  remote,
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		onClose: onClose,
	}
}

// ID is a random identifier used in logs.
func (c *Conn) ID() string { return c.id }

// RemoteAddr is the peer address reported by the HTTP request.
func (c *Conn) RemoteAddr() string { return c.remote }

// State returns the current lifecycle state.
func (c *Conn) State() State { return State(c.state.Load()) }

// Done is closed once the connection has entered StateClosed.
func (c *Conn) Done() <-chan struct{} { return c.done }

// open moves Connecting -> Open. It reports false if the connection was
// already closed.
func (c *Conn) open() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// Close moves the connection to StateClosed. The onClose hook runs exactly
// once no matter how many goroutines race to close.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		if c.onClose != nil {
			c.onClose(c)
		}
	})
}

// enqueue hands data to the write pump without blocking. It reports false
// when the connection is not open or its queue is full.
func (c *Conn) enqueue(data []byte) bool {
	if c.State() != StateOpen {
		return false
	}
	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

// writePump drains the send queue to the socket and pings the peer every
// pingInterval (disabled when zero). It owns all writes to ws and closes the
// socket on exit.
func (c *Conn) writePump(pingInterval time.Duration) {
	var tick <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.ws.Close()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			c.ws.WriteMessage(websocket.CloseMessage, msg) //nolint:errcheck
			return

		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}

		case <-tick:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
