package sim

// Build is an immutable-once-finished per-build timing record. StartedTime
// is stamped when a Builder pulls it off the queue; FinishedTime is nil
// until the build completes.
type Build struct {
	EnqueuedTime Tick
	StartedTime  Tick
	RunTime      Tick
	FinishedTime *Tick
}

// NewBuild records a build arriving at the given tick with the supplied run
// time. StartedTime is filled in when a Builder accepts it.
func NewBuild(enqueuedTime, runTime Tick) *Build {
	return &Build{
		EnqueuedTime: enqueuedTime,
		RunTime:      runTime,
	}
}

// Finished reports whether the build has completed.
func (b *Build) Finished() bool {
	return b.FinishedTime != nil
}

// QueueTime returns StartedTime - EnqueuedTime, the wait the build endured
// before a builder picked it up.
func (b *Build) QueueTime() Tick {
	return b.StartedTime - b.EnqueuedTime
}
