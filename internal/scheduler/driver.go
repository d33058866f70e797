package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"

	"github.com/riskibarqy/matchday-tipster/internal/platform/logging"
	"github.com/riskibarqy/matchday-tipster/internal/usecase"
)

var ErrUnknownTask = errors.New("unknown scheduled task")

// Action is the body of a scheduled task.
type Action func(ctx context.Context) error

// Task is one entry of the cron grid. An empty Spec disables the task.
// With IsolateFailures set, errors and panics go to the failure handler;
// otherwise they are only logged.
type Task struct {
	Name            string
	Spec            string
	Action          Action
	IsolateFailures bool
}

// Gate decides whether fired tasks may do any work.
type Gate interface {
	IsRunning() bool
}

type FailureHandler func(ctx context.Context, task string, err error)

type Outcome string

const (
	OutcomeCompleted      Outcome = "completed"
	OutcomeFailed         Outcome = "failed"
	OutcomeSkippedNoData  Outcome = "skipped_no_data"
	OutcomeSkippedStopped Outcome = "skipped_stopped"
	OutcomeSkippedBusy    Outcome = "skipped_busy"
)

type Config struct {
	Location    *time.Location
	Workers     int
	TaskTimeout time.Duration
}

type registeredTask struct {
	Task
	entryID cron.EntryID
	busy    atomic.Bool
}

// Driver fires tasks on a cron grid in one timezone and runs them on a
// bounded worker pool. A task never overlaps itself.
type Driver struct {
	cron      *cron.Cron
	pool      *ants.Pool
	gate      Gate
	onFailure FailureHandler
	cfg       Config
	logger    *logging.Logger

	mu    sync.RWMutex
	tasks map[string]*registeredTask
	order []string

	baseCtx context.Context
	cancel  context.CancelFunc
	running sync.WaitGroup
}

func New(gate Gate, onFailure FailureHandler, cfg Config, logger *logging.Logger) (*Driver, error) {
	if gate == nil {
		return nil, fmt.Errorf("scheduler gate is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("scheduler")
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 2 * time.Minute
	}
	if onFailure == nil {
		onFailure = func(ctx context.Context, task string, err error) {
			logger.ErrorContext(ctx, "scheduled task failed", "task", task, "error", err)
		}
	}

	// A saturated pool rejects the fire instead of parking a cron goroutine
	// until a worker frees up.
	pool, err := ants.NewPool(cfg.Workers,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p any) {
			logger.Error("scheduler worker panic", "panic", fmt.Sprint(p))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler worker pool: %w", err)
	}

	cronLogger := logger.CronLogger()
	baseCtx, cancel := context.WithCancel(context.Background())

	return &Driver{
		cron: cron.New(
			cron.WithLocation(cfg.Location),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		pool:      pool,
		gate:      gate,
		onFailure: onFailure,
		cfg:       cfg,
		logger:    logger,
		tasks:     make(map[string]*registeredTask),
		baseCtx:   baseCtx,
		cancel:    cancel,
	}, nil
}

// Add registers task on the grid. Tasks with an empty spec are kept out of
// the grid but can still be fired with Run.
func (d *Driver) Add(task Task) error {
	task.Name = strings.TrimSpace(task.Name)
	if task.Name == "" {
		return fmt.Errorf("task name is required")
	}
	if task.Action == nil {
		return fmt.Errorf("task %s: action is required", task.Name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.tasks[task.Name]; exists {
		return fmt.Errorf("task %s: already registered", task.Name)
	}

	rt := &registeredTask{Task: task}
	if strings.TrimSpace(task.Spec) != "" {
		entryID, err := d.cron.AddFunc(task.Spec, func() { d.fire(rt) })
		if err != nil {
			return fmt.Errorf("task %s: parse spec %q: %w", task.Name, task.Spec, err)
		}
		rt.entryID = entryID
	} else {
		d.logger.Debug("task has no schedule", "task", task.Name)
	}

	d.tasks[task.Name] = rt
	d.order = append(d.order, task.Name)
	return nil
}

func (d *Driver) Start() {
	d.cron.Start()
	d.logger.Info("scheduler started",
		"timezone", d.cfg.Location.String(),
		"tasks", len(d.order),
		"workers", d.cfg.Workers,
	)
}

// Shutdown stops the grid and waits for in-flight runs or ctx.
func (d *Driver) Shutdown(ctx context.Context) error {
	stopped := d.cron.Stop()

	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		d.running.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	d.cancel()
	d.pool.Release()
	return err
}

func (d *Driver) Location() *time.Location {
	return d.cfg.Location
}

// NextRuns lists the next fire time of every scheduled task, soonest first.
func (d *Driver) NextRuns() []usecase.ScheduledRun {
	d.mu.RLock()
	runs := make([]usecase.ScheduledRun, 0, len(d.order))
	for _, name := range d.order {
		rt := d.tasks[name]
		if rt.entryID == 0 {
			continue
		}
		entry := d.cron.Entry(rt.entryID)
		runs = append(runs, usecase.ScheduledRun{
			Task: name,
			Spec: rt.Spec,
			Next: entry.Next.In(d.cfg.Location),
		})
	}
	d.mu.RUnlock()

	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].Next.IsZero() != runs[j].Next.IsZero() {
			return !runs[i].Next.IsZero()
		}
		return runs[i].Next.Before(runs[j].Next)
	})
	return runs
}

// Run fires name now through the same gate, overlap guard and error
// boundary as a timer fire, and waits for it to finish.
func (d *Driver) Run(ctx context.Context, name string) (Outcome, error) {
	d.mu.RLock()
	rt, ok := d.tasks[name]
	d.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	if !d.gate.IsRunning() {
		return OutcomeSkippedStopped, nil
	}
	if !rt.busy.CompareAndSwap(false, true) {
		return OutcomeSkippedBusy, nil
	}

	result := make(chan Outcome, 1)
	d.running.Add(1)
	err := d.pool.Submit(func() {
		defer d.running.Done()
		defer rt.busy.Store(false)
		result <- d.execute(context.WithoutCancel(ctx), rt)
	})
	if err != nil {
		d.running.Done()
		rt.busy.Store(false)
		if errors.Is(err, ants.ErrPoolOverload) {
			d.logger.WarnContext(ctx, "task skipped, worker pool saturated", "task", name, "workers", d.cfg.Workers)
			return OutcomeSkippedBusy, nil
		}
		return "", fmt.Errorf("submit task %s: %w", name, err)
	}

	select {
	case outcome := <-result:
		return outcome, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (d *Driver) fire(rt *registeredTask) {
	if !d.gate.IsRunning() {
		d.logger.Debug("task skipped, automation stopped", "task", rt.Name)
		return
	}
	if !rt.busy.CompareAndSwap(false, true) {
		d.logger.Warn("task skipped, previous run still in flight", "task", rt.Name)
		return
	}

	d.running.Add(1)
	err := d.pool.Submit(func() {
		defer d.running.Done()
		defer rt.busy.Store(false)
		d.execute(d.baseCtx, rt)
	})
	if err != nil {
		d.running.Done()
		rt.busy.Store(false)
		if errors.Is(err, ants.ErrPoolOverload) {
			d.logger.Warn("task skipped, worker pool saturated", "task", rt.Name, "workers", d.cfg.Workers)
			return
		}
		d.logger.Error("submit scheduled task failed", "task", rt.Name, "error", err)
	}
}

func (d *Driver) execute(ctx context.Context, rt *registeredTask) Outcome {
	runCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()

	start := time.Now()
	err := invoke(runCtx, rt.Action)
	elapsed := time.Since(start)

	switch {
	case err == nil:
		d.logger.DebugContext(runCtx, "task completed", "task", rt.Name, "duration_ms", elapsed.Milliseconds())
		return OutcomeCompleted
	case rt.IsolateFailures:
		d.onFailure(runCtx, rt.Name, err)
	default:
		d.logger.WarnContext(runCtx, "task failed", "task", rt.Name, "error", err)
	}

	if usecase.IsNoData(err) {
		return OutcomeSkippedNoData
	}
	return OutcomeFailed
}

func invoke(ctx context.Context, action Action) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panic: %v", p)
		}
	}()
	return action(ctx)
}
