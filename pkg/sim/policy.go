package sim

// ScalingPolicy is a stateful cooldown gate that converts a latched alarm
// into a fleet-size delta. Its only mutable state is the tick of its last
// fire; a freshly constructed policy behaves as though it last fired at
// tick 0, so a policy consulted before Cooldown ticks have elapsed never
// fires.
type ScalingPolicy struct {
	Cooldown Tick
	Change   int

	lastScaleTick Tick
}

// NewScalingPolicy constructs a policy with the given cooldown (ideally
// builder_boot_time + alarm_period_duration) and per-fire fleet delta.
func NewScalingPolicy(cooldown Tick, change int) *ScalingPolicy {
	return &ScalingPolicy{Cooldown: cooldown, Change: change}
}

// MaybeScale returns Change if at least Cooldown ticks have elapsed since
// the last fire, recording now as the new last-fire tick; otherwise
// returns 0 and leaves state untouched.
func (p *ScalingPolicy) MaybeScale(now Tick) int {
	if now-p.lastScaleTick < p.Cooldown {
		return 0
	}

	p.lastScaleTick = now

	return p.Change
}
