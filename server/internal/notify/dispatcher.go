package notify

import (
	"iter"
	"log/slog"

	"github.com/tableside/tableside/pkg/types"
)

// TargetKind selects how a Target picks connections.
type TargetKind string

const (
	TargetUsers TargetKind = "users"
	TargetRoles TargetKind = "roles"
	TargetAll   TargetKind = "all"
)

// Target is the set of connections a notification is addressed to.
type Target struct {
	Kind TargetKind
	IDs  []string // user ids or roles; unused for TargetAll
}

// Users targets every connection registered under one of ids.
func Users(ids ...string) Target { return Target{Kind: TargetUsers, IDs: ids} }

// Roles targets every connection registered with one of roles.
func Roles(roles ...string) Target { return Target{Kind: TargetRoles, IDs: roles} }

// All targets every live connection, registered or not.
func All() Target { return Target{Kind: TargetAll} }

// Sink receives a copy of every dispatched notification. Publish must not
// block the caller.
type Sink interface {
	Publish(eventType string, payload types.Payload)
}

// Dispatcher multicasts notifications to the connections in a Registry.
// Its methods return once every matching connection has had the message
// queued or dropped; they never report errors to the caller.
type Dispatcher struct {
	reg     *Registry
	metrics *Metrics
	sinks   []Sink
}

// NewDispatcher returns a Dispatcher over reg. m may be nil.
func NewDispatcher(reg *Registry, m *Metrics, sinks ...Sink) *Dispatcher {
	return &Dispatcher{reg: reg, metrics: m, sinks: sinks}
}

// NotifyUsers sends to every connection registered under one of ids.
func (d *Dispatcher) NotifyUsers(ids []string, eventType string, payload types.Payload) {
	d.Dispatch(Users(ids...), eventType, payload)
}

// NotifyUser is NotifyUsers for a single id.
func (d *Dispatcher) NotifyUser(id, eventType string, payload types.Payload) {
	d.Dispatch(Users(id), eventType, payload)
}

// NotifyRoles sends to every connection registered with one of roles.
func (d *Dispatcher) NotifyRoles(roles []string, eventType string, payload types.Payload) {
	d.Dispatch(Roles(roles...), eventType, payload)
}

// NotifyRole is NotifyRoles for a single role.
func (d *Dispatcher) NotifyRole(role, eventType string, payload types.Payload) {
	d.Dispatch(Roles(role), eventType, payload)
}

// Broadcast sends to every live connection.
func (d *Dispatcher) Broadcast(eventType string, payload types.Payload) {
	d.Dispatch(All(), eventType, payload)
}

// Dispatch encodes the notification once and queues it on every connection
// t selects. It returns the number of connections the message was queued on.
// The wire object is payload with "type" set to eventType, overriding any
// "type" key already in payload.
func (d *Dispatcher) Dispatch(t Target, eventType string, payload types.Payload) int {
	data, err := types.EncodeNotification(eventType, payload)
	if err != nil {
		slog.Error("notify: notification dropped", "type", eventType, "err", err)
		return 0
	}

	conns := d.match(t)
	if conns == nil {
		slog.Warn("notify: unknown target kind", "kind", t.Kind, "type", eventType)
		return 0
	}

	var queued, dropped int
	for c := range conns {
		if c.enqueue(data) {
			queued++
			continue
		}
		dropped++
		slog.Debug("notify: delivery dropped", "conn", c.id, "type", eventType)
	}
	d.metrics.notification(string(t.Kind), queued, dropped)

	for _, s := range d.sinks {
		s.Publish(eventType, payload)
	}

	slog.Debug("notify: dispatched",
		"type", eventType,
		"target", t.Kind,
		"ids", t.IDs,
		"queued", queued,
		"dropped", dropped,
	)
	return queued
}

func (d *Dispatcher) match(t Target) iter.Seq[*Conn] {
	switch t.Kind {
	case TargetUsers:
		return d.reg.MatchingUsers(t.IDs)
	case TargetRoles:
		return d.reg.MatchingRoles(t.IDs)
	case TargetAll:
		return d.reg.All()
	default:
		return nil
	}
}
