// Package relay exposes the notification dispatcher over gRPC so that
// sibling processes (a POS terminal bridge, a kitchen printer service) can
// push notifications to connected clients without going through the REST
// producers.
//
// The service is tableside.relay.v1.Relay with a single unary method,
// Notify. Request and response are google.protobuf.Struct values, so no
// generated code is needed on either side:
//
//	request:  {"target": "users"|"roles"|"all", "ids": [...], "type": "...", "payload": {...}}
//	response: {"delivered": <connections the message was queued on>}
//
// ids is required for users and roles targets. A request that fails
// validation returns codes.InvalidArgument. Authentication is enforced
// upstream by the API-key interceptor (see package auth).
//
// Register installs the relay and the standard gRPC health service on a
// server. Client is a thin typed caller for the same method.
package relay
