package sim

import (
	"errors"
	"math/rand"
)

var (
	// ErrInvalidBuildRunTime is returned when build_run_time is not positive.
	ErrInvalidBuildRunTime = errors.New("sim: build_run_time must be positive")
	// ErrInvalidBuilderBootTime is returned when builder_boot_time is negative.
	ErrInvalidBuilderBootTime = errors.New("sim: builder_boot_time must not be negative")
	// ErrInvalidBuildsPerHour is returned when builds_per_hour is negative.
	ErrInvalidBuildsPerHour = errors.New("sim: builds_per_hour must not be negative")
	// ErrInvalidSecPerTick is returned when sec_per_tick is not positive.
	ErrInvalidSecPerTick = errors.New("sim: sec_per_tick must be positive")
	// ErrInvalidInitialBuilderCount is returned when initial_builder_count is negative.
	ErrInvalidInitialBuilderCount = errors.New("sim: initial_builder_count must not be negative")
	// ErrInvalidAlarmPeriod is returned when an autoscale job's alarm period is not positive.
	ErrInvalidAlarmPeriod = errors.New("sim: alarm_period_duration and alarm_period_count must be positive")
	// ErrThresholdOrder is returned when scale_up_threshold exceeds scale_down_threshold.
	ErrThresholdOrder = errors.New("sim: scale_up_threshold must not exceed scale_down_threshold")
	// ErrInvalidTrials is returned when a job's trial count is not positive.
	ErrInvalidTrials = errors.New("sim: trials must be positive")
)

// ModelParams parameterizes a single trial, mirroring the original source's
// Model constructor keyword arguments.
type ModelParams struct {
	BuildRunTime        Tick
	BuilderBootTime     Tick
	BuildsPerHour       float64
	SecPerTick          int
	InitialBuilderCount int
	Autoscale           bool
	AlarmPeriodDuration Tick
	AlarmPeriodCount    int
	ScaleUpThreshold    float64
	ScaleDownThreshold  float64
	ScaleUpChange       int
	ScaleDownChange     int
	Seed                int64
}

// Validate reports the first invalid-parameter error found, per spec.md §7.
func (p ModelParams) Validate() error {
	switch {
	case p.BuildRunTime <= 0:
		return ErrInvalidBuildRunTime
	case p.BuilderBootTime < 0:
		return ErrInvalidBuilderBootTime
	case p.BuildsPerHour < 0:
		return ErrInvalidBuildsPerHour
	case p.SecPerTick <= 0:
		return ErrInvalidSecPerTick
	case p.InitialBuilderCount < 0:
		return ErrInvalidInitialBuilderCount
	}

	if p.Autoscale {
		if p.AlarmPeriodDuration <= 0 || p.AlarmPeriodCount <= 0 {
			return ErrInvalidAlarmPeriod
		}

		if p.ScaleUpThreshold > p.ScaleDownThreshold {
			return ErrThresholdOrder
		}
	}

	return nil
}

// Model owns a trial's entire mutable state: the clock, the fleet, the
// build queue, the metric ring, and (when autoscaling) two alarms and two
// scaling policies. All state is exclusively owned; Model never aliases
// into another Model.
type Model struct {
	params ModelParams

	tick Tick

	Builders   []*Builder
	BuildQueue *BuildQueue
	Metric     *MetricRing

	finishedBuilds []*Build

	arrivals *ArrivalGenerator

	autoscale  bool
	upAlarm    *Alarm
	downAlarm  *Alarm
	upPolicy   *ScalingPolicy
	downPolicy *ScalingPolicy

	utilSum   float64
	utilTicks int

	fleetSizeSum float64
}

// NewModel validates params and constructs a Model with its initial fleet
// already booted (BootedTime 0, available from the first tick).
func NewModel(p ModelParams) (*Model, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		params:     p,
		BuildQueue: NewBuildQueue(),
		Metric:     NewMetricRing(),
		autoscale:  p.Autoscale,
	}

	rng := rand.New(rand.NewSource(p.Seed)) //nolint:gosec // deterministic trial stream, not a security context
	m.arrivals = NewArrivalGenerator(p.BuildsPerHour, p.SecPerTick, rng)

	m.Builders = make([]*Builder, p.InitialBuilderCount)
	for i := range m.Builders {
		m.Builders[i] = NewBuilder(0)
	}

	if p.Autoscale {
		cooldown := p.BuilderBootTime + p.AlarmPeriodDuration
		periodTicks := int(p.AlarmPeriodDuration)
		m.upAlarm = NewAlarm(m.Metric, p.ScaleUpThreshold, GT, periodTicks, p.AlarmPeriodCount)
		m.downAlarm = NewAlarm(m.Metric, p.ScaleDownThreshold, LT, periodTicks, p.AlarmPeriodCount)
		m.upPolicy = NewScalingPolicy(cooldown, p.ScaleUpChange)
		m.downPolicy = NewScalingPolicy(cooldown, -p.ScaleDownChange)
	}

	return m, nil
}

// Ticks reports the number of ticks processed so far.
func (m *Model) Ticks() Tick {
	return m.tick
}

// FinishedBuilds returns the immutable builds that have completed so far.
func (m *Model) FinishedBuilds() []*Build {
	return m.finishedBuilds
}

// Advance runs n ticks of the simulation per spec.md §4.7.
func (m *Model) Advance(n int) {
	for i := 0; i < n; i++ {
		m.advanceOne()
	}
}

func (m *Model) advanceOne() {
	m.tick++
	now := m.tick

	arrivals := m.arrivals.Next()
	for i := 0; i < arrivals; i++ {
		m.BuildQueue.Append(NewBuild(now, m.params.BuildRunTime))
	}

	for _, b := range m.Builders {
		b.Advance(now, m.BuildQueue)
	}

	m.reapTerminal()

	depth := m.BuildQueue.Depth()
	m.Metric.Append(depth)
	m.recordUtilization()

	if m.autoscale {
		m.runAutoscale(now)
	}
}

func (m *Model) reapTerminal() {
	alive := m.Builders[:0]

	for _, b := range m.Builders {
		if finished := b.DetachFinished(); finished != nil {
			m.finishedBuilds = append(m.finishedBuilds, finished)
		}

		if b.Terminal() {
			continue
		}

		alive = append(alive, b)
	}

	m.Builders = alive
}

func (m *Model) recordUtilization() {
	total := len(m.Builders)

	m.fleetSizeSum += float64(total)
	m.utilTicks++

	if total == 0 {
		return
	}

	busy := 0

	for _, b := range m.Builders {
		if b.Busy() {
			busy++
		}
	}

	m.utilSum += float64(busy) / float64(total)
}

func (m *Model) runAutoscale(now Tick) {
	if m.upAlarm.State() == Alarmed {
		if delta := m.upPolicy.MaybeScale(now); delta > 0 {
			m.scaleUp(delta, now)
		}
	}

	if m.downAlarm.State() == Alarmed {
		if delta := m.downPolicy.MaybeScale(now); delta < 0 {
			m.scaleDownSelect(-delta)
		}
	}
}

func (m *Model) scaleUp(count int, now Tick) {
	bootedTime := now + m.params.BuilderBootTime
	for i := 0; i < count; i++ {
		m.Builders = append(m.Builders, NewBuilder(bootedTime))
	}
}

// ShutdownBuilders marks up to n builders as shutting down, preferring
// currently idle builders (most-recently-created first), then booting
// builders, then — only for this direct, out-of-band call — busy builders
// as a last resort, since a caller explicitly requesting n shutdowns should
// eventually see n builders leave the fleet even if every builder happens
// to be busy.
func (m *Model) ShutdownBuilders(n int) {
	m.selectForShutdown(n, true)
}

// scaleDownSelect is the autoscale-driven selection: idle then booting,
// never busy, per spec.md §4.7.
func (m *Model) scaleDownSelect(n int) {
	m.selectForShutdown(n, false)
}

func (m *Model) selectForShutdown(n int, allowBusy bool) {
	if n <= 0 {
		return
	}

	now := m.tick

	var idle, booting, busy []*Builder

	for _, b := range m.Builders {
		if b.ShuttingDown {
			continue
		}

		switch {
		case b.Booting(now):
			booting = append(booting, b)
		case b.Busy():
			busy = append(busy, b)
		default:
			idle = append(idle, b)
		}
	}

	n -= markLIFO(idle, n)
	n -= markLIFO(booting, n)

	if allowBusy {
		n -= markLIFO(busy, n)
	}
}

// markLIFO marks up to n builders from the back of candidates (most
// recently created first) as shutting down, returning the count marked.
func markLIFO(candidates []*Builder, n int) int {
	marked := 0

	for i := len(candidates) - 1; i >= 0 && marked < n; i-- {
		candidates[i].ShuttingDown = true
		marked++
	}

	return marked
}

// MeanPercentUtilization averages (busy builders)/(total builders) across
// every completed tick, expressed as a percentage.
func (m *Model) MeanPercentUtilization() float64 {
	if m.utilTicks == 0 {
		return 0
	}

	return (m.utilSum / float64(m.utilTicks)) * 100
}

// MeanQueueTime averages finished.StartedTime - finished.EnqueuedTime
// across finished builds, or 0 if none have finished.
func (m *Model) MeanQueueTime() float64 {
	if len(m.finishedBuilds) == 0 {
		return 0
	}

	var sum Tick

	for _, b := range m.finishedBuilds {
		sum += b.QueueTime()
	}

	return float64(sum) / float64(len(m.finishedBuilds))
}

// MeanFleetSize averages the builder count across every completed tick, so
// an autoscaling trial that spends part of its horizon at a smaller or
// larger fleet size is billed accordingly by pkg/cost rather than by
// whatever size the fleet happens to end at.
func (m *Model) MeanFleetSize() float64 {
	if m.utilTicks == 0 {
		return float64(len(m.Builders))
	}

	return m.fleetSizeSum / float64(m.utilTicks)
}
