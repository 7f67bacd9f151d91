package ssf

// schedulerOptions holds the build-time configuration table of spec §6.
type schedulerOptions struct {
	maxEvents   uint32
	maxTimers   uint32
	threaded    bool
	ticksPerSec uint32
	poolDebug   bool
	tickSource  TickSource
	logger      Logger
}

// SchedulerOption configures a Scheduler at construction. Every option
// named in spec §6's configuration table has one.
type SchedulerOption interface {
	apply(*schedulerOptions)
}

type schedulerOptionFunc func(*schedulerOptions)

func (f schedulerOptionFunc) apply(o *schedulerOptions) { f(o) }

// WithMaxEvents sets the capacity of the event queue and the event
// record pool. Required to be > 0.
func WithMaxEvents(n uint32) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.maxEvents = n })
}

// WithMaxTimers sets the capacity of the timer list and the timer
// record pool. Required to be > 0.
func WithMaxTimers(n uint32) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.maxTimers = n })
}

// WithThreaded enables the mutex and wake primitives described in spec
// §4.5, switching Post's semantics to always-enqueue: Post stages the
// event for Task (through the lock-free ingress queue, or under the
// mutex when that queue is full) and never dispatches inline.
func WithThreaded(enabled bool) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.threaded = enabled })
}

// WithTicksPerSec defines the unit of timer intervals. Defaults to 1000
// (millisecond ticks), the typical value named in spec §6.
func WithTicksPerSec(ticksPerSec uint32) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.ticksPerSec = ticksPerSec })
}

// WithPoolDebug enables the pool's all-slot leak-diagnosis tracking
// (spec §6's pool_debug option; see Pool.DebugOutstanding).
func WithPoolDebug(enabled bool) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.poolDebug = enabled })
}

// WithTickSource overrides the monotonic clock used for now_ticks()
// (spec §6's port contract). Defaults to the platform implementation in
// internal/tick.
func WithTickSource(src TickSource) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.tickSource = src })
}

// WithLogger sets the Logger this Scheduler instance uses, independent
// of the package-level logger installed via SetStructuredLogger.
func WithLogger(logger Logger) SchedulerOption {
	return schedulerOptionFunc(func(o *schedulerOptions) { o.logger = logger })
}

func resolveSchedulerOptions(opts []SchedulerOption) *schedulerOptions {
	cfg := &schedulerOptions{
		ticksPerSec: 1000,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = getGlobalLogger()
	}
	if cfg.tickSource == nil {
		cfg.tickSource = defaultTickSource(cfg.ticksPerSec)
	}
	return cfg
}
