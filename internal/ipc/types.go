package ipc

import (
	"strings"
	"syscall"
)

// Command is a control token accepted on the socket and mirrored by a process
// signal where one exists.
type Command string

const (
	CommandShow   Command = "show"
	CommandHide   Command = "hide"
	CommandToggle Command = "toggle"
	CommandQuit   Command = "quit"
	CommandReload Command = "reload"
	CommandStatus Command = "status"
)

// MaxPayload is the largest command payload the server reads per connection.
const MaxPayload = 1024

var signalTable = map[Command]syscall.Signal{
	CommandShow:   syscall.SIGUSR1,
	CommandHide:   syscall.SIGUSR2,
	CommandToggle: syscall.SIGHUP,
	CommandQuit:   syscall.SIGTERM,
}

// ParseCommand decodes a raw payload. Surrounding whitespace is trimmed and
// case ignored; unknown tokens report false.
func ParseCommand(raw string) (Command, bool) {
	cmd := Command(strings.ToLower(strings.TrimSpace(raw)))
	switch cmd {
	case CommandShow, CommandHide, CommandToggle, CommandQuit, CommandReload, CommandStatus:
		return cmd, true
	default:
		return "", false
	}
}

// Signal returns the process signal that carries the command when the
// socket is unavailable. Reload and status have none.
func (c Command) Signal() (syscall.Signal, bool) {
	sig, ok := signalTable[c]
	return sig, ok
}

// CommandForSignal maps a received signal back to its command. SIGINT is
// accepted as quit for interactive daemons.
func CommandForSignal(sig syscall.Signal) (Command, bool) {
	if sig == syscall.SIGINT {
		return CommandQuit, true
	}
	for cmd, s := range signalTable {
		if s == sig {
			return cmd, true
		}
	}
	return "", false
}

// Signals lists every signal a control endpoint should subscribe to.
func Signals() []syscall.Signal {
	return []syscall.Signal{syscall.SIGUSR1, syscall.SIGUSR2, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT}
}

func (c Command) String() string {
	return string(c)
}
