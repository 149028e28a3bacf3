// Package attrlog provides the structured logger shared across attrcore's
// components, built on log/slog the way the rest of this codebase wires
// component-scoped loggers from a single default.
package attrlog

import (
	"io"
	"log/slog"
)

// For names the well-known component tag attached to every log line, so
// a multi-component log stream stays greppable by subsystem.
type For string

const (
	ForCache     For = "cache"
	ForCollector For = "collector"
	ForResolver  For = "resolver"
	ForGitrepo   For = "gitrepo"
	ForConfig    For = "config"
)

// New returns a logger scoped to component, derived from slog.Default().
func New(component For) *slog.Logger {
	return slog.Default().With("component", string(component))
}

// Discard is a logger that drops every record, for callers (tests, library
// consumers that haven't configured logging) that want attrcore silent.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
