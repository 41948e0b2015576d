package sim

// Builder is one worker with boot, idle, busy and shutting-down states,
// derived rather than stored. A Builder is owned exclusively by its Model.
type Builder struct {
	BootedTime    Tick
	Build         *Build
	ShuttingDown  bool
	terminalAfter bool
}

// NewBuilder constructs a Builder that finishes booting at bootedTime. The
// fleet's append order doubles as creation order, which Model's shutdown
// selection relies on for its LIFO tie-break.
func NewBuilder(bootedTime Tick) *Builder {
	return &Builder{BootedTime: bootedTime}
}

// Booting reports whether the builder is still waiting to come online.
func (b *Builder) Booting(now Tick) bool {
	return now < b.BootedTime
}

// Busy reports whether the builder has an attached, unfinished build.
func (b *Builder) Busy() bool {
	return b.Build != nil && !b.Build.Finished()
}

// Available reports whether the builder may accept new work: not booting,
// not busy, not shutting down.
func (b *Builder) Available(now Tick) bool {
	return !b.Booting(now) && !b.Busy() && !b.ShuttingDown
}

// Terminal reports whether the builder has reached terminal shutdown and
// should be removed from the fleet at the end of the tick.
func (b *Builder) Terminal() bool {
	return b.terminalAfter
}

// Advance runs one tick of the builder's state machine against the given
// queue and clock, per spec.md §4.2.
func (b *Builder) Advance(now Tick, queue *BuildQueue) {
	if b.Booting(now) {
		return
	}

	if b.Build == nil {
		if !b.ShuttingDown {
			if next := queue.Pop(); next != nil {
				next.StartedTime = now
				b.Build = next
			}
		} else {
			b.terminalAfter = true
		}

		return
	}

	if now-b.Build.StartedTime == b.Build.RunTime {
		finishedAt := now
		b.Build.FinishedTime = &finishedAt

		if b.ShuttingDown {
			b.terminalAfter = true
		}
	}
}

// DetachFinished clears a finished build from the builder, returning it so
// the caller can move it to Model's finished list. Returns nil if the
// attached build (if any) is not yet finished.
func (b *Builder) DetachFinished() *Build {
	if b.Build == nil || !b.Build.Finished() {
		return nil
	}

	finished := b.Build
	b.Build = nil

	return finished
}
