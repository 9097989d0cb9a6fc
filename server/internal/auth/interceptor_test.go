package auth

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tableside/tableside/server/internal/config"
)

func okHandler(context.Context, any) (any, error) { return "ok", nil }

func TestRelayInterceptor(t *testing.T) {
	t.Setenv("TS_RELAY_KEY", "secret")
	t.Setenv("TS_RELAY_EMPTY", "")

	info := &grpc.UnaryServerInfo{FullMethod: "/tableside.relay.v1.Relay/Notify"}
	withMD := func(pairs ...string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs(pairs...))
	}
	apikey := config.RelayConfig{Mode: "apikey", KeyEnv: "TS_RELAY_KEY"}

	cases := []struct {
		name     string
		cfg      config.RelayConfig
		ctx      context.Context
		wantCode codes.Code
	}{
		{"mode none passes", config.RelayConfig{Mode: "none", KeyEnv: "TS_RELAY_KEY"}, context.Background(), codes.OK},
		{"empty mode passes", config.RelayConfig{}, context.Background(), codes.OK},
		{"correct key", apikey, withMD("x-api-key", "secret"), codes.OK},
		{"custom header", config.RelayConfig{Mode: "apikey", KeyEnv: "TS_RELAY_KEY", Header: "X-Relay-Key"}, withMD("x-relay-key", "secret"), codes.OK},
		{"wrong key", apikey, withMD("x-api-key", "nope"), codes.Unauthenticated},
		{"key under other header", apikey, withMD("x-other", "secret"), codes.Unauthenticated},
		{"no metadata", apikey, context.Background(), codes.Unauthenticated},
		{"empty key rejects all", config.RelayConfig{Mode: "apikey", KeyEnv: "TS_RELAY_EMPTY"}, withMD("x-api-key", ""), codes.Unauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			i := RelayInterceptor(tc.cfg)
			res, err := i(tc.ctx, nil, info, okHandler)
			if code := status.Code(err); code != tc.wantCode {
				t.Fatalf("code: got %v, want %v", code, tc.wantCode)
			}
			if tc.wantCode == codes.OK && res != "ok" {
				t.Errorf("result: got %v, want ok", res)
			}
		})
	}
}
