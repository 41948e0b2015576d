package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"fleetsim/pkg/cost"
	"fleetsim/pkg/sim"
)

// ErrNoInputBatches is returned by Run when the root path has no input
// batches to execute.
var ErrNoInputBatches = errors.New("batch: no input batches found")

// Archiver uploads a completed output batch file elsewhere once it has
// been durably written. A nil Archiver disables archival.
type Archiver interface {
	Archive(ctx context.Context, path string) error
}

// ProgressReporter is notified as batches complete, for the optional
// status/metrics surface. A nil ProgressReporter is a no-op.
type ProgressReporter interface {
	BatchStarted(index int)
	BatchCompleted(index int, jobCount int, err error)
}

// Driver generates and executes fleetsim batches against a root directory
// laid out per spec.md §6: root/input/NNNN and root/output/NNNN.
type Driver struct {
	Root     string
	Workers  int
	Weights  cost.Weights
	Logger   *zap.Logger
	Archive  Archiver
	Progress ProgressReporter
}

// NewDriver constructs a Driver with cost.DefaultWeights and
// DefaultWorkers; callers override fields on the returned value as needed.
func NewDriver(root string, logger *zap.Logger) *Driver {
	return &Driver{
		Root:    root,
		Workers: DefaultWorkers,
		Weights: cost.DefaultWeights,
		Logger:  logger,
	}
}

// GenerateStatic writes the fixed static-fleet job list as input batches.
func (d *Driver) GenerateStatic() error {
	return d.writeJobBatches(StaticJobs())
}

// GenerateAuto lazily enumerates the autoscaling grid and writes it out in
// MaxJobsPerBatch-sized input batches without ever holding the full grid
// in memory.
func (d *Driver) GenerateAuto() error {
	start := countInputBatches(d.Root)
	index := start

	var buf []sim.JobRecord

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}

		if err := writeInputBatch(d.Root, index, buf); err != nil {
			return err
		}

		index++
		buf = buf[:0]

		return nil
	}

	var flushErr error

	for job := range AutoscalingGrid() {
		buf = append(buf, job)

		if len(buf) == MaxJobsPerBatch {
			if flushErr = flush(); flushErr != nil {
				break
			}
		}
	}

	if flushErr != nil {
		return flushErr
	}

	if err := flush(); err != nil {
		return err
	}

	if d.Logger != nil {
		d.Logger.Info("generated autoscaling grid batches",
			zap.Int("batches", index-start),
			zap.Int("startIndex", start),
		)
	}

	return nil
}

// writeJobBatches chunks jobs and writes each chunk as the next sequential
// input batch, appending after whatever batches already exist.
func (d *Driver) writeJobBatches(jobs []sim.JobRecord) error {
	start := countInputBatches(d.Root)

	for i, chunk := range chunkJobs(jobs) {
		if err := writeInputBatch(d.Root, start+i, chunk); err != nil {
			return err
		}
	}

	return nil
}

// Run executes every input batch under Root that has no output batch yet,
// fanning work out across a worker pool. Batches that already have output
// are skipped, making re-runs idempotent and crash-safe: a killed run
// simply leaves some batches unwritten, to be picked up next time.
func (d *Driver) Run(ctx context.Context) error {
	total := countInputBatches(d.Root)
	if total == 0 {
		return ErrNoInputBatches
	}

	tasks := make(chan Task, total)

	pending := 0

	for i := 0; i < total; i++ {
		if outputExists(d.Root, i) {
			continue
		}

		tasks <- Task{Index: i}
		pending++
	}

	close(tasks)

	if pending == 0 {
		if d.Logger != nil {
			d.Logger.Info("all batches already complete", zap.Int("batches", total))
		}

		return nil
	}

	if setter, ok := d.Progress.(interface{ SetTotal(total int) }); ok {
		setter.SetTotal(pending)
	}

	if d.Logger != nil {
		d.Logger.Info("running batches", zap.Int("pending", pending), zap.Int("total", total), zap.Int("workers", d.Workers))
	}

	p := newPool(d.Workers, d.Logger)
	p.run(ctx, tasks, d.processBatch)

	return nil
}

func (d *Driver) processBatch(ctx context.Context, task Task) error {
	if d.Progress != nil {
		d.Progress.BatchStarted(task.Index)
	}

	jobCount, err := d.runBatch(ctx, task.Index)

	if d.Progress != nil {
		d.Progress.BatchCompleted(task.Index, jobCount, err)
	}

	return err
}

func (d *Driver) runBatch(ctx context.Context, index int) (int, error) {
	jobs, err := readInputBatch(d.Root, index)
	if err != nil {
		return 0, err
	}

	lock, err := d.lockBatch(index)
	if err != nil {
		return 0, err
	}
	defer d.unlockBatch(lock)

	if outputExists(d.Root, index) {
		return 0, nil
	}

	results := make([]sim.TrialResult, len(jobs))

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		result, runErr := sim.RunJob(job, d.Weights)
		if runErr != nil && d.Logger != nil {
			d.Logger.Warn("job failed, recording error at its ordinal position",
				zap.Int("batch", index),
				zap.Int("job", i),
				zap.Error(runErr),
			)
		}

		results[i] = result
	}

	if err := writeOutputBatch(d.Root, index, results); err != nil {
		return 0, err
	}

	if d.Archive != nil {
		path := outputPath(d.Root, index)
		if err := d.Archive.Archive(ctx, path); err != nil && d.Logger != nil {
			d.Logger.Warn("archival failed, output batch remains valid locally",
				zap.Int("batch", index),
				zap.Error(err),
			)
		}
	}

	return len(jobs), nil
}

// lockBatch takes an exclusive file lock on a sibling .lock file for the
// batch, so two driver processes pointed at the same root never race to
// write the same output file.
func (d *Driver) lockBatch(index int) (*flock.Flock, error) {
	lockPath := filepath.Join(d.Root, "output", fmt.Sprintf("%04d.lock", index))

	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir for lock %q: %w", lockPath, err)
	}

	lock := flock.New(lockPath)

	locked, err := lock.TryLockContext(context.Background(), 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("lock batch %04d: %w", index, err)
	}

	if !locked {
		return nil, fmt.Errorf("batch %04d already locked by another process", index)
	}

	return lock, nil
}

func (d *Driver) unlockBatch(lock *flock.Flock) {
	if err := lock.Unlock(); err != nil && d.Logger != nil {
		d.Logger.Warn("failed to release batch lock", zap.Error(err))
	}
}
