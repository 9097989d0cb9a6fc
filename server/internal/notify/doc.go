// Package notify is the real-time notification core of tableside-server.
//
// It tracks live WebSocket connections, lets each one declare who it
// represents, and multicasts event notifications to the matching subset.
//
//   - Registry maps each live *Conn to its Identity (user id and role). A
//     connection is added unregistered on accept and removed exactly once when
//     it closes. Lookups are full scans returning iter.Seq values that can be
//     ranged over repeatedly.
//   - ParseControl decodes inbound frames into a closed set of variants:
//     Register or Unknown. Unknown and malformed frames are logged and
//     discarded; they never close the connection and are never acknowledged.
//   - Dispatcher encodes a notification once and queues it on every matching
//     connection without blocking. A full queue drops that message for that
//     connection only.
//   - Hub is the lifecycle manager: ServeHTTP upgrades, adds the connection
//     to the Registry, runs the read and write pumps and performs the Closed
//     transition. Hub.Run(ctx) closes every connection when ctx ends.
//
// Inbound control message:
//
//	{"type": "register", "userId": "42", "role": "USER"}
//
// Outbound notification (payload fields merged with the event type; the
// explicit type always wins):
//
//	{"type": "Order Status Updated", "orderId": "...", "status": "Preparing"}
//
// The registration handshake is not authenticated. The hub is mounted at /ws
// by the server binary.
package notify
