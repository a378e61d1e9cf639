// Package server implements the HTTP and WebSocket transport for the relay.
//
// The chat semantics live in package chat; this package only translates
// sockets into chat events and chat effects back into frames. It is organized
// into specialized files for configuration, hub management, clients, routing,
// and HTTP handlers.
package server
