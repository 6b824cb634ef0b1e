//go:build linux || darwin

// Package server opens the TCP listener the API is served on.
package server

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
)

// first inherited descriptor under the systemd protocol
const listenFDsStart = 3

// ErrNoActivatedSocket is returned when SOCKET_ACTIVATION=1 but no socket was passed in.
var ErrNoActivatedSocket = errors.New("socket activation requested but no valid LISTEN_FDS")

// GetListener uses an inherited systemd socket when SOCKET_ACTIVATION=1,
// otherwise it listens on addr.
func GetListener(addr string) (net.Listener, error) {
	if os.Getenv("SOCKET_ACTIVATION") != "1" {
		return net.Listen("tcp", addr)
	}
	if !activatedForUs(os.Getenv("LISTEN_FDS"), os.Getenv("LISTEN_PID"), os.Getpid()) {
		return nil, ErrNoActivatedSocket
	}
	f := os.NewFile(uintptr(listenFDsStart), "listener")
	if f == nil {
		return nil, ErrNoActivatedSocket
	}
	defer f.Close()
	ln, err := net.FileListener(f)
	if err != nil {
		return nil, fmt.Errorf("activated socket: %w", err)
	}
	return ln, nil
}

func activatedForUs(fds, pid string, self int) bool {
	if fds != "1" {
		return false
	}
	if pid == "" {
		return true
	}
	n, err := strconv.Atoi(pid)
	return err == nil && n == self
}
