package relay

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls Relay.Notify over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient returns a Client using cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Notify sends req and returns the number of connections it reached.
func (c *Client) Notify(ctx context.Context, req Request, opts ...grpc.CallOption) (int, error) {
	in, err := req.Struct()
	if err != nil {
		return 0, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, NotifyMethod, in, out, opts...); err != nil {
		return 0, err
	}
	return int(out.GetFields()["delivered"].GetNumberValue()), nil
}
