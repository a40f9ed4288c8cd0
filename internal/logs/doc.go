// Package logs reads matuwall log files for the `logs` subcommand.
//
// Last returns the final lines of a file together with the byte offset that
// follows them; Follow resumes from such an offset and emits lines as they
// are appended. Files are reopened on every poll, so following
// <log_dir>/daemon.log keeps working after a daemon restart repoints the link
// at a new per-run file.
package logs
