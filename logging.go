// logging.go - Structured Logging Interface for the SSF scheduler core.
//
// Package-level configuration for structured logging, in the same spirit
// as a typical embedded framework's trace hooks: cheap when disabled,
// structured when a host wires in a real backend. The built-in
// DefaultLogger writes plain text to os.Stderr; SetStructuredLogger lets
// a host application (see logifaceadapter, built against
// github.com/joeycumines/logiface) receive every entry instead.

package ssf

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var globalLogger struct {
	sync.RWMutex
	logger Logger
}

// SetStructuredLogger installs the package-level logger used by the
// scheduler, pool, and list for diagnostic and precondition-violation
// output. Passing nil restores the default (Info-level, os.Stderr).
func SetStructuredLogger(logger Logger) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

func getGlobalLogger() Logger {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	if globalLogger.logger != nil {
		return globalLogger.logger
	}
	return defaultPackageLogger
}

var defaultPackageLogger = NewDefaultLogger(LevelInfo)

// LogLevel is the severity of a log entry.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is a single structured log record. Category names the
// subsystem that produced it: "pool", "timer", "transition", "dispatch",
// "abort".
type LogEntry struct {
	Level     LogLevel
	Category  string
	MachineID uint32
	EventID   uint32
	TimerID   uint32
	Context   map[string]any
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface the scheduler writes
// through. Implement it to plug in a real backend (zerolog, logiface,
// slog, ...); see logifaceadapter for a github.com/joeycumines/logiface
// binding used in tests and the package example.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// DefaultLogger writes plain, line-oriented text to Out (os.Stderr by
// default). It never blocks on a slow sink beyond the write itself and
// performs no allocation when the level is disabled.
type DefaultLogger struct {
	level atomic.Int32
	mu    sync.Mutex
	Out   *os.File
}

func NewDefaultLogger(level LogLevel) *DefaultLogger {
	l := &DefaultLogger{Out: os.Stderr}
	l.level.Store(int32(level))
	return l
}

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level.Store(int32(level)) }

func (l *DefaultLogger) IsEnabled(level LogLevel) bool {
	return level >= LogLevel(l.level.Load())
}

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.Out, "%s %s [%-10s]", entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Category)
	if entry.MachineID != 0 {
		fmt.Fprintf(l.Out, " machine=%d", entry.MachineID)
	}
	if entry.EventID != 0 {
		fmt.Fprintf(l.Out, " event=%d", entry.EventID)
	}
	if entry.TimerID != 0 {
		fmt.Fprintf(l.Out, " timer=%d", entry.TimerID)
	}
	for k, v := range entry.Context {
		fmt.Fprintf(l.Out, " %s=%v", k, v)
	}
	fmt.Fprintf(l.Out, " %s", entry.Message)
	if entry.Err != nil {
		fmt.Fprintf(l.Out, ": %v", entry.Err)
	}
	fmt.Fprintln(l.Out)
}

// NoOpLogger discards every entry. Useful in benchmarks and in hosts
// that want logging compiled in but disabled without an IsEnabled branch
// at every call site.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger            { return &NoOpLogger{} }
func (*NoOpLogger) Log(LogEntry)            {}
func (*NoOpLogger) IsEnabled(LogLevel) bool { return false }

// logf is the internal entry point used by abort.go and pool.go, the
// types with no per-instance Logger field of their own. It is a thin,
// allocation-light wrapper so call sites read like fmt.Sprintf without
// paying for formatting when disabled.
func logf(level LogLevel, category string, format string, args ...any) {
	logger := getGlobalLogger()
	if !logger.IsEnabled(level) {
		return
	}
	logger.Log(LogEntry{
		Level:    level,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	})
}
