// Package main hosts the idlens CLI entrypoint and command graph.
//
// The Cobra-based command tree runs scripted scan sessions, browses the
// local session journal, and scaffolds configuration. It centralizes config
// resolution and structured logging setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
