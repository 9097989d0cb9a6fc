// Package types defines the wire types shared by tableside-server and
// tableside-agent: the register control message a client sends after
// connecting, the notification envelope the server pushes, the role names,
// and the event type strings emitted by the order, reservation and menu
// handlers.
//
// Notifications are flat JSON objects. The "type" key carries the event type
// and every other key comes from the event payload:
//
//	{"type": "Order Status Updated", "orderId": "...", "status": "Preparing"}
package types
