package sim

// JobRecord describes one trial batch's worth of work: the fixed parameters
// that hold across every trial, plus the autoscale-only fields consulted
// only when Autoscale is true. It is the unit the batch driver reads from
// and writes back to disk.
type JobRecord struct {
	Autoscale           bool    `yaml:"autoscale"`
	Trials              int     `yaml:"trials"`
	BuildRunTime        int     `yaml:"build_run_time"`
	BuildsPerHour       float64 `yaml:"builds_per_hour"`
	InitialBuilderCount int     `yaml:"initial_builder_count"`

	BuilderBootTime     int     `yaml:"builder_boot_time,omitempty"`
	AlarmPeriodDuration int     `yaml:"alarm_period_duration,omitempty"`
	AlarmPeriodCount    int     `yaml:"alarm_period_count,omitempty"`
	ScaleUpThreshold    float64 `yaml:"scale_up_threshold,omitempty"`
	ScaleDownThreshold  float64 `yaml:"scale_down_threshold,omitempty"`
	ScaleUpChange       int     `yaml:"scale_up_change,omitempty"`
	ScaleDownChange     int     `yaml:"scale_down_change,omitempty"`
}

// SecPerTick derives the tick size for this job, per spec.md's 120s
// resolution split: any duration field under 120 selects the 10s tick.
func (j JobRecord) SecPerTick() int {
	if !j.Autoscale {
		return SecondsPerTick(j.BuildRunTime)
	}

	return SecondsPerTick(j.BuildRunTime, j.BuilderBootTime, j.AlarmPeriodDuration)
}

// Ticks derives the tick count spanning the trial's fixed horizon.
func (j JobRecord) Ticks() int {
	return TicksForHorizon(j.SecPerTick())
}

// Validate reports the first invalid-parameter error found in the job, per
// spec.md §7, ahead of attempting to build a Model from it.
func (j JobRecord) Validate() error {
	if j.Trials <= 0 {
		return ErrInvalidTrials
	}

	return j.toParams(0).Validate()
}

// toParams converts the job into the ModelParams a single trial needs,
// quantizing every duration field into ticks at the job's derived
// resolution and attaching the trial's seed.
func (j JobRecord) toParams(seed int64) ModelParams {
	secPerTick := j.SecPerTick()

	p := ModelParams{
		BuildRunTime:        Tick(j.BuildRunTime / secPerTick),
		BuildsPerHour:       j.BuildsPerHour,
		SecPerTick:          secPerTick,
		InitialBuilderCount: j.InitialBuilderCount,
		Autoscale:           j.Autoscale,
		Seed:                seed,
	}

	if j.Autoscale {
		p.BuilderBootTime = Tick(j.BuilderBootTime / secPerTick)
		p.AlarmPeriodDuration = Tick(j.AlarmPeriodDuration / secPerTick)
		p.AlarmPeriodCount = j.AlarmPeriodCount
		p.ScaleUpThreshold = j.ScaleUpThreshold
		p.ScaleDownThreshold = j.ScaleDownThreshold
		p.ScaleUpChange = j.ScaleUpChange
		p.ScaleDownChange = j.ScaleDownChange
	}

	return p
}
