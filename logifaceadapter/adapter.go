//go:build ssflogiface

// Package logifaceadapter binds github.com/joeycumines/logiface to the
// ssf.Logger interface, letting a host route scheduler, pool, and list
// diagnostics through any logiface-compatible backend (e.g.
// github.com/joeycumines/logiface-slog) instead of ssf's plain-text
// DefaultLogger.
//
// Build with -tags ssflogiface; the dependency is otherwise unimported.
package logifaceadapter

import (
	"github.com/joeycumines/logiface"

	"github.com/supurloop/ssf-sub000"
)

// Adapter satisfies ssf.Logger by forwarding every entry to a
// *logiface.Logger[E]. E is typically github.com/joeycumines/logiface-slog's
// *slog.Event, but any logiface.Event works.
type Adapter[E logiface.Event] struct {
	log *logiface.Logger[E]
}

// New wraps log as an ssf.Logger. Panics if log is nil, matching
// logiface's own nil-guard conventions (see logiface-slog's NewLogger).
func New[E logiface.Event](log *logiface.Logger[E]) *Adapter[E] {
	if log == nil {
		panic("logifaceadapter: log cannot be nil")
	}
	return &Adapter[E]{log: log}
}

// IsEnabled reports whether level would actually produce output, so
// scheduler.go's call sites can skip Sprintf work on a disabled level.
func (a *Adapter[E]) IsEnabled(level ssf.LogLevel) bool {
	return toLogifaceLevel(level) <= a.log.Level()
}

// Log forwards a single ssf.LogEntry as one logiface builder chain.
// Context keys are applied in map order; callers needing deterministic
// field order should keep Context small or prefer the Message string.
func (a *Adapter[E]) Log(entry ssf.LogEntry) {
	b := a.log.Build(toLogifaceLevel(entry.Level))
	if !b.Enabled() {
		b.Release()
		return
	}
	if entry.MachineID != 0 {
		b = b.Int("machine", int(entry.MachineID))
	}
	if entry.EventID != 0 {
		b = b.Int("event", int(entry.EventID))
	}
	if entry.TimerID != 0 {
		b = b.Int("timer", int(entry.TimerID))
	}
	b = b.Str("category", entry.Category)
	for k, v := range entry.Context {
		b = b.Any(k, v)
	}
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}

// toLogifaceLevel maps ssf's four-level scheme onto logiface's syslog
// levels. ssf has no Warning/Notice split at the Error end or a
// Trace/Debug split at the Debug end, so both collapse to the nearest
// logiface level.
func toLogifaceLevel(level ssf.LogLevel) logiface.Level {
	switch level {
	case ssf.LevelDebug:
		return logiface.LevelDebug
	case ssf.LevelInfo:
		return logiface.LevelInformational
	case ssf.LevelWarn:
		return logiface.LevelWarning
	case ssf.LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}
