package sim

import "testing"

func TestBuilderBootingIsNoOp(t *testing.T) {
	t.Parallel()

	b := NewBuilder(10)
	q := NewBuildQueue()
	q.Append(NewBuild(0, 5))

	b.Advance(5, q)

	if !b.Booting(5) {
		t.Fatalf("expected builder still booting at tick 5")
	}

	if q.Depth() != 1 {
		t.Fatalf("expected booting builder to leave the queue untouched")
	}
}

func TestBuilderAcceptsWorkWhenIdle(t *testing.T) {
	t.Parallel()

	b := NewBuilder(0)
	q := NewBuildQueue()
	build := NewBuild(0, 5)
	q.Append(build)

	b.Advance(1, q)

	if !b.Busy() {
		t.Fatalf("expected builder to be busy after accepting work")
	}

	if build.StartedTime != 1 {
		t.Fatalf("expected started_time stamped to acceptance tick, got %d", build.StartedTime)
	}
}

func TestBuilderFinishesAfterRunTime(t *testing.T) {
	t.Parallel()

	b := NewBuilder(0)
	q := NewBuildQueue()
	q.Append(NewBuild(0, 5))

	b.Advance(1, q)

	for now := Tick(2); now <= 6; now++ {
		b.Advance(now, q)
	}

	if !b.Build.Finished() {
		t.Fatalf("expected build finished once run_time elapses")
	}

	finished := b.DetachFinished()
	if finished == nil {
		t.Fatalf("expected DetachFinished to return the completed build")
	}

	// Enqueued at tick 0, accepted at tick 1.
	if finished.QueueTime() != 1 {
		t.Fatalf("expected queue time 1, got %d", finished.QueueTime())
	}

	if b.Build != nil {
		t.Fatalf("expected builder slot cleared after detach")
	}
}

func TestBuilderShutdownWhileIdleIsTerminalImmediately(t *testing.T) {
	t.Parallel()

	b := NewBuilder(0)
	q := NewBuildQueue()
	b.ShuttingDown = true

	b.Advance(1, q)

	if !b.Terminal() {
		t.Fatalf("expected an idle, shutting-down builder to terminate immediately")
	}
}

func TestBuilderGracefulShutdownFinishesCurrentBuild(t *testing.T) {
	t.Parallel()

	b := NewBuilder(0)
	q := NewBuildQueue()
	q.Append(NewBuild(0, 10))

	b.Advance(1, q)
	b.ShuttingDown = true

	for now := Tick(2); now <= 11; now++ {
		if now < 11 && b.Terminal() {
			t.Fatalf("builder terminated before its build finished at tick %d", now)
		}

		b.Advance(now, q)
	}

	if !b.Terminal() {
		t.Fatalf("expected builder to be terminal once its build finished at tick 11")
	}

	finished := b.DetachFinished()
	if finished == nil || finished.FinishedTime == nil || *finished.FinishedTime-finished.StartedTime != 10 {
		t.Fatalf("expected the build to complete with duration exactly run_time")
	}
}
