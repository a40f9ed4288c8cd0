package ipc

import (
	"fmt"
	"net"
	"time"
)

// DefaultDialTimeout bounds how long a client waits for the daemon to accept.
const DefaultDialTimeout = 500 * time.Millisecond

// Send delivers cmd over the socket: connect, write the token, close. There
// is no acknowledgement.
func Send(path string, cmd Command, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return err
	}
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Probe reports whether something is accepting connections on path. The
// probe connection is closed without writing, which servers treat as an
// empty, ignored payload.
func Probe(path string) bool {
	conn, err := net.DialTimeout("unix", path, DefaultDialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
