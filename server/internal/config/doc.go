// Package config loads the tableside-server configuration from the `server:`
// section of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort         port for the REST API, WebSocket hub and /metrics (default 5000)
//   - GRPCPort         port for the gRPC notification relay (default 50051)
//   - Log.Level        debug | info | warn | error (default info)
//   - Storage.Path     SQLite database file, ":memory:" allowed (default tableside.db)
//   - Notify.*         per-connection buffers, frame limit, keepalive, optional
//     registration timeout, allowed origins and webhook sinks
//   - Auth.Mode        "jwt" or "none" for the staff REST routes
//   - Auth.SecretEnv   environment variable holding the HS256 secret
//   - Relay.*          gRPC relay switch and its API-key settings
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
