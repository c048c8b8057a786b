// Package main hosts the standin CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into proxy
// generation runs, project document relinking, cache and job-journal
// maintenance, dependency checks, and configuration scaffolding. It
// centralizes configuration resolution, structured logging setup, and
// progress rendering so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
