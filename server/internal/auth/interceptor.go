package auth

import (
	"context"
	"crypto/subtle"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/tableside/tableside/server/internal/config"
)

// RelayInterceptor returns the unary interceptor guarding the notification
// relay. In "apikey" mode every call must carry the key from cfg.KeyEnv in
// the cfg.EffectiveHeader() metadata entry. An apikey relay whose key
// resolves empty rejects every call. Any other mode lets all calls through.
func RelayInterceptor(cfg config.RelayConfig) grpc.UnaryServerInterceptor {
	if cfg.Mode != "apikey" {
		return passThrough
	}
	return relayKeyCheck(cfg.EffectiveHeader(), cfg.Key())
}

// --- internal ---

func passThrough(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	return handler(ctx, req)
}

func relayKeyCheck(header, key string) grpc.UnaryServerInterceptor {
	if key == "" {
		slog.Warn("auth: relay key is empty, every relay call will be rejected", "header", header)
	}
	want := []byte(key)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		vals := metadata.ValueFromIncomingContext(ctx, header)
		if len(want) == 0 || len(vals) == 0 || subtle.ConstantTimeCompare([]byte(vals[0]), want) != 1 {
			slog.Warn("auth: relay call rejected",
				"method", info.FullMethod,
				"key_present", len(vals) > 0,
			)
			return nil, status.Error(codes.Unauthenticated, "relay: missing or invalid api key")
		}
		return handler(ctx, req)
	}
}
