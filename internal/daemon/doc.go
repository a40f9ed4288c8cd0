// Package daemon runs the long-lived matuwall control process.
//
// A Daemon binds the control socket, records its pid, and then serves a
// single loop that merges socket commands, process signals, and a periodic
// config-file fingerprint poll. Every command goes through Handle, so a
// command arriving as SIGUSR1 has exactly the effect of "show" on the socket.
// A flock on daemon.lock keeps a second instance from disturbing the socket
// and pid file of the first.
//
// The UI itself is driven through the UI interface, implemented by
// internal/supervisor.
package daemon
