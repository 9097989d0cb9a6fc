// Package auth provides authentication middleware for tableside-server.
//
// RelayInterceptor(cfg) returns the gRPC UnaryServerInterceptor that guards
// the notification relay. In apikey mode the key named by relay.key_env must
// arrive in the relay.header metadata entry; an empty key rejects everything.
// Other modes pass every call through.
//
// JWT(mode, secret) is the gin middleware for the REST API. In "jwt" mode it
// requires an "Authorization: Bearer <token>" header carrying an HS256 token
// with user_id and role claims, and stores both in the gin context.
// RequireRole(mode, role) then restricts a route group to one role. In any
// other mode both are pass-through, which keeps the staff routes open as they
// are in a local deployment.
//
// The server itself has no login route. Tokens come from an external
// identity provider sharing the HS256 secret, or from GenerateToken, which
// backs the `tablesidectl token` command.
//
// The WebSocket handshake is deliberately outside this package: clients
// declare their identity in the register message and it is taken at face value.
package auth
