// Package main hosts the matuwall CLI entrypoint.
//
// One binary plays three roles selected by flags: --daemon runs the control
// daemon, --ui runs the picker process, and the remaining flags send a single
// control command to whichever of the two is listening. When nothing is
// listening, show and toggle fall back to running the picker in the
// foreground. The config and cache subcommands are maintenance helpers.
package main
