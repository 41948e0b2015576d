package sim

import "fleetsim/pkg/cost"

// TrialResult is the record the trial runner emits for one job: the job
// that produced it, the averaged aggregates, and (for a job rejected at
// load time) an error string in place of aggregates. Error is populated
// instead of the numeric fields, never alongside them.
type TrialResult struct {
	Job           JobRecord `yaml:"job"`
	Utilization   float64   `yaml:"utilization"`
	QueueTime     float64   `yaml:"queue_time"`
	MeanFleetSize float64   `yaml:"mean_fleet_size"`
	Cost          float64   `yaml:"cost"`
	Error         string    `yaml:"error,omitempty"`
}

// RunTrial builds a Model from params, advances it the full horizon, and
// returns its raw per-trial aggregates. It is the one-shot driver
// described in spec.md's trial runner: one Model, one seed, one pass.
func RunTrial(job JobRecord, seed int64) (utilization, queueTime, meanFleetSize float64, err error) {
	params := job.toParams(seed)

	m, err := NewModel(params)
	if err != nil {
		return 0, 0, 0, err
	}

	m.Advance(job.Ticks())

	return m.MeanPercentUtilization(), m.MeanQueueTime(), m.MeanFleetSize(), nil
}

// RunJob runs job.Trials independent, distinctly seeded trials and
// averages their aggregates, matching the original source's practice of
// repeating a job many times to smooth Poisson-arrival noise before
// costing it.
func RunJob(job JobRecord, weights cost.Weights) (TrialResult, error) {
	if err := job.Validate(); err != nil {
		return TrialResult{Job: job, Error: err.Error()}, err
	}

	var sumUtil, sumQueue, sumFleet float64

	for trial := 0; trial < job.Trials; trial++ {
		util, queueTime, fleet, err := RunTrial(job, int64(trial))
		if err != nil {
			return TrialResult{Job: job, Error: err.Error()}, err
		}

		sumUtil += util
		sumQueue += queueTime
		sumFleet += fleet
	}

	n := float64(job.Trials)
	meanUtil := sumUtil / n
	meanQueue := sumQueue / n
	meanFleet := sumFleet / n

	horizonSeconds := job.Ticks() * job.SecPerTick()
	c := cost.Compute(meanFleet, meanQueue, job.SecPerTick(), horizonSeconds, weights)

	return TrialResult{
		Job:           job,
		Utilization:   meanUtil,
		QueueTime:     meanQueue,
		MeanFleetSize: meanFleet,
		Cost:          c,
	}, nil
}
