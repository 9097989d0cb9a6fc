// Package config loads and watches the display agent configuration file.
//
// Top-level types:
//   - Config{Agent}: full config tree parsed from YAML
//   - AgentConfig: server_url, user_id, role, reconnect_min, reconnect_max,
//     events, tls, log
//   - TLSConfig: ca_file and insecure_skip_verify for wss:// endpoints
//
// Load(path) reads the YAML file, applies defaults (1s/60s reconnect bounds),
// then validates that server_url is a ws:// or wss:// URL with a host and that
// the backoff bounds are ordered.
//
// Watch(ctx, path, onChange) uses fsnotify to detect file changes and calls
// onChange with the newly parsed Config. It handles the rename→create pattern
// used by atomic-save editors (vim, VS Code) by re-adding the watch after
// each reload. The agent uses it to re-register under a new identity without
// reconnecting.
package config
