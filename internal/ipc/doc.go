// Package ipc carries control commands between the CLI and the daemon.
//
// The wire protocol is a single lowercase token per Unix-socket connection,
// written by the client and followed by close; the server reads at most
// MaxPayload bytes and never replies. Every command except reload and status
// also has a process-signal form (see Command.Signal) for when the socket is
// unavailable.
package ipc
