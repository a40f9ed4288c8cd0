package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"matuwall/internal/daemonctl"
	"matuwall/internal/deps"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 12
	statusIndent     = "  "
)

func statusLines(st daemonctl.Status, colorize bool) []string {
	lines := renderSectionHeader("matuwall", colorize)
	lines = append(lines,
		renderStatusLine("Runtime Dir", statusInfo, st.RuntimeDir, colorize),
		renderStatusLine("IPC Socket", socketKind(st.SocketState), fmt.Sprintf("%s (%s)", st.SocketPath, st.SocketState), colorize),
		renderStatusLine("Daemon", processKind(st.DaemonRunning, statusWarn), processText(st.DaemonRunning, st.DaemonPID), colorize),
		renderStatusLine("UI", processKind(st.UIRunning, statusInfo), processText(st.UIRunning, st.UIPID), colorize),
	)
	return lines
}

func dependencyLines(statuses []deps.Status, colorize bool) []string {
	lines := renderSectionHeader("Dependencies", colorize)
	for _, st := range statuses {
		kind := statusOK
		message := "Ready"
		if st.Location != "" {
			message = fmt.Sprintf("Ready (%s)", st.Location)
		}
		if !st.Available {
			kind = statusError
			if st.Optional {
				kind = statusWarn
			}
			message = st.Detail
			if st.Description != "" {
				message = fmt.Sprintf("%s; %s", message, st.Description)
			}
		}
		lines = append(lines, renderStatusLine(st.Name, kind, message, colorize))
	}
	if missing := deps.Missing(statuses); len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing", statusError, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func socketKind(state daemonctl.SocketState) statusKind {
	switch state {
	case daemonctl.SocketReady:
		return statusOK
	case daemonctl.SocketPresent:
		return statusWarn
	case daemonctl.SocketStale:
		return statusError
	default:
		return statusInfo
	}
}

func processKind(running bool, stopped statusKind) statusKind {
	if running {
		return statusOK
	}
	return stopped
}

func processText(running bool, pid int) string {
	if !running {
		return "stopped (pid: n/a)"
	}
	return fmt.Sprintf("running (pid: %d)", pid)
}

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := statusKindLabel(kind)
	if message != "" {
		statusText = fmt.Sprintf("[%s] %s", statusText, message)
	} else {
		statusText = fmt.Sprintf("[%s]", statusText)
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
