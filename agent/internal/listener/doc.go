// Package listener keeps a display agent connected to the tableside-server
// notification hub.
//
// Listener.Run dials the configured ws:// or wss:// URL, sends a register
// message carrying the agent's user id and role, then reads notifications
// until the connection drops. It reconnects with truncated exponential
// backoff (reconnect_min→reconnect_max, ±25% jitter) and registers again
// after every connect, since the server forgets identities on disconnect.
//
// SetIdentity changes the identity at runtime. If a connection is live the
// new register message is sent on it immediately; the server applies the
// latest registration.
//
// Every decoded notification is passed to the Handler given to New. Frames
// that are not JSON objects are logged and skipped. The dialFn field is
// injectable for tests.
package listener
