package notify

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/tableside/tableside/pkg/types"
)

// Control is an inbound control message. The set of variants is closed:
// Register and Unknown.
type Control interface {
	kind() string
}

// Register declares the identity of the sending connection.
type Register struct {
	Identity Identity
}

// Unknown is anything that is not a well-formed register message. Type holds
// the "type" field when the frame was a JSON object with a string type.
type Unknown struct {
	Type      string
	Malformed bool
}

func (Register) kind() string { return "register" }

func (u Unknown) kind() string {
	if u.Malformed {
		return "malformed"
	}
	return "unknown"
}

// ParseControl decodes one inbound frame. It never fails: frames that are not
// JSON objects, or whose type is missing or not a string, come back as a
// malformed Unknown.
//
// userId and role accept JSON strings and numbers; numbers are kept as their
// decimal text. Any other value (null, bool, object, array) leaves the field
// empty.
func ParseControl(data []byte) Control {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Unknown{Malformed: true}
	}

	var typ string
	raw, ok := fields["type"]
	if !ok {
		return Unknown{Malformed: true}
	}
	if err := json.Unmarshal(raw, &typ); err != nil {
		return Unknown{Malformed: true}
	}
	if typ != types.TypeRegister {
		return Unknown{Type: typ}
	}

	return Register{Identity: Identity{
		UserID: identityField(fields["userId"]),
		Role:   identityField(fields["role"]),
	}}
}

func identityField(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		if f, err := n.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return n.String()
	default:
		return ""
	}
}
