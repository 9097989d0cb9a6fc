package types

import (
	"encoding/json"
	"fmt"
)

// TypeRegister is the only control message type a client may send.
const TypeRegister = "register"

// Roles recognised by the order, reservation and menu handlers. The hub does
// not validate roles; any string a client declares is matched verbatim.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// Event types pushed to clients.
const (
	EventNewOrder               = "New Order Created"
	EventOrderStatusUpdated     = "Order Status Updated"
	EventNewReservation         = "New Reservation Created"
	EventReservationAccepted    = "Reservation Accepted"
	EventReservationDeclined    = "Reservation Declined"
	EventReservationCancelled   = "User Cancelled Reservation"
	EventReservationDetailsEdit = "Reservations Details Updated"
	EventMenuItemUnavailable    = "Item unavailable"
)

// RegisterMessage is the handshake a client sends to declare who it is.
type RegisterMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// NewRegisterMessage builds a register message for the given identity.
func NewRegisterMessage(userID, role string) RegisterMessage {
	return RegisterMessage{Type: TypeRegister, UserID: userID, Role: role}
}

// Payload is the open set of event fields merged into a notification.
type Payload map[string]any

// Notification is one decoded server push.
type Notification struct {
	Type   string
	Fields Payload
}

// EncodeNotification returns the wire form of a notification: the payload's
// keys plus "type". The explicit eventType always overrides a "type" key in
// payload. payload is not modified.
func EncodeNotification(eventType string, payload Payload) ([]byte, error) {
	m := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		m[k] = v
	}
	m["type"] = eventType
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode notification %q: %w", eventType, err)
	}
	return data, nil
}

// DecodeNotification parses a server push. Fields holds every key except "type".
func DecodeNotification(data []byte) (Notification, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	t, _ := m["type"].(string)
	delete(m, "type")
	return Notification{Type: t, Fields: m}, nil
}
