// Package sim implements the discrete-event build-fleet autoscaling kernel:
// a deterministic, tick-driven model of workers, a build queue, Poisson
// arrivals and a metric-alarm-plus-cooldown autoscaling controller.
package sim

import (
	"math"
	"math/rand"
)

// Tick is the fixed simulation time step, counted from trial start.
type Tick int64

// SecondsPerTick chooses the tick size in seconds. Any of the supplied
// durations being under 120s selects the high-resolution 10s tick; otherwise
// the low-resolution 60s tick is used. 120s is the authoritative boundary.
func SecondsPerTick(durations ...int) int {
	const (
		highResolution  = 10
		lowResolution   = 60
		resolutionSplit = 120
	)

	for _, d := range durations {
		if d < resolutionSplit {
			return highResolution
		}
	}

	return lowResolution
}

// TrialDurationSeconds is the wall-clock horizon every trial covers.
const TrialDurationSeconds = 100000

// TicksForHorizon derives the number of ticks a trial advances given its
// tick size, matching spec.md's ticks = 100000 / sec_per_tick.
func TicksForHorizon(secPerTick int) int {
	if secPerTick <= 0 {
		return 0
	}

	return TrialDurationSeconds / secPerTick
}

// ArrivalGenerator draws the per-tick build arrival count from a Poisson
// process with rate buildsPerHour, expressed in arrivals-per-tick via the
// tick size. It owns no tick state of its own; Model advances the clock.
type ArrivalGenerator struct {
	lambda float64
	rng    *rand.Rand
}

// NewArrivalGenerator constructs a generator with expected arrivals per tick
// derived from buildsPerHour and secPerTick.
func NewArrivalGenerator(buildsPerHour float64, secPerTick int, rng *rand.Rand) *ArrivalGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(1)) //nolint:gosec // deterministic trial, not a security context
	}

	lambda := buildsPerHour * float64(secPerTick) / 3600.0
	if lambda < 0 {
		lambda = 0
	}

	return &ArrivalGenerator{lambda: lambda, rng: rng}
}

// Next draws one tick's arrival count using Knuth's direct Poisson sampler.
// The long-run mean equals lambda and draws are independent across calls.
func (g *ArrivalGenerator) Next() int {
	if g.lambda <= 0 {
		return 0
	}

	threshold := math.Exp(-g.lambda)

	count := 0
	product := 1.0

	for {
		product *= g.rng.Float64()
		if product <= threshold {
			return count
		}

		count++
	}
}
