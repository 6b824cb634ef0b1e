//go:build !linux && !darwin

// Package server opens the TCP listener the API is served on.
package server

import "net"

// GetListener listens on addr. Socket activation is not supported on this platform.
func GetListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}
