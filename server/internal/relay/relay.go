package relay

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tableside/tableside/pkg/types"
	"github.com/tableside/tableside/server/internal/notify"
)

// Dispatcher is the part of *notify.Dispatcher the relay needs.
type Dispatcher interface {
	Dispatch(t notify.Target, eventType string, payload types.Payload) int
}

// Relay implements RelayServer on top of a Dispatcher.
type Relay struct {
	dispatcher Dispatcher
}

// New creates a Relay that forwards requests to d.
func New(d Dispatcher) *Relay {
	return &Relay{dispatcher: d}
}

// Notify validates the request, dispatches it and reports how many
// connections the message was queued on.
func (r *Relay) Notify(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	n, err := parseRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	delivered := r.dispatcher.Dispatch(n.Target, n.Type, n.Payload)

	slog.Debug("relay: notification relayed",
		"type", n.Type,
		"target", n.Target.Kind,
		"ids", n.Target.IDs,
		"delivered", delivered,
	)

	return structpb.NewStruct(map[string]any{"delivered": delivered})
}

// Request is the decoded form of a Notify request.
type Request struct {
	Target  notify.Target
	Type    string
	Payload types.Payload
}

// Struct encodes r as a Notify request message.
func (r Request) Struct() (*structpb.Struct, error) {
	ids := make([]any, len(r.Target.IDs))
	for i, id := range r.Target.IDs {
		ids[i] = id
	}
	m := map[string]any{
		"target": string(r.Target.Kind),
		"ids":    ids,
		"type":   r.Type,
	}
	if r.Payload != nil {
		m["payload"] = map[string]any(r.Payload)
	}
	return structpb.NewStruct(m)
}

// --- internal ---

func parseRequest(s *structpb.Struct) (Request, error) {
	var r Request
	fields := s.GetFields()

	r.Type = fields["type"].GetStringValue()
	if r.Type == "" {
		return r, fmt.Errorf("type is required")
	}

	kind := notify.TargetKind(fields["target"].GetStringValue())
	switch kind {
	case notify.TargetUsers, notify.TargetRoles:
		ids, err := stringList(fields["ids"])
		if err != nil {
			return r, err
		}
		if len(ids) == 0 {
			return r, fmt.Errorf("ids is required for target %q", kind)
		}
		r.Target = notify.Target{Kind: kind, IDs: ids}
	case notify.TargetAll:
		r.Target = notify.All()
	default:
		return r, fmt.Errorf("target must be users, roles or all, got %q", kind)
	}

	if p := fields["payload"]; p != nil {
		sv, ok := p.GetKind().(*structpb.Value_StructValue)
		if !ok {
			return r, fmt.Errorf("payload must be an object")
		}
		r.Payload = types.Payload(sv.StructValue.AsMap())
	}
	return r, nil
}

func stringList(v *structpb.Value) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	lv, ok := v.GetKind().(*structpb.Value_ListValue)
	if !ok {
		return nil, fmt.Errorf("ids must be a list of strings")
	}
	out := make([]string, 0, len(lv.ListValue.GetValues()))
	for _, item := range lv.ListValue.GetValues() {
		s, ok := item.GetKind().(*structpb.Value_StringValue)
		if !ok || s.StringValue == "" {
			return nil, fmt.Errorf("ids must be non-empty strings")
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}
