package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	schedCmd "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	schedQuery "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
)

// DefaultSweepInterval is how often the sweeper reconciles and collects due tasks
const DefaultSweepInterval = 60 * time.Second

// SweepResult summarizes one sweep
type SweepResult struct {
	TasksCreated int
	Due          int
	Triggered    int
	Errors       int
}

// SweeperOption configures a TaskSweeper
type SweeperOption func(*TaskSweeper)

// WithSweepInterval overrides the ticker interval
func WithSweepInterval(d time.Duration) SweeperOption {
	return func(s *TaskSweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithAutoTrigger makes the sweeper trigger due tasks itself, at most ratePerSec per second
func WithAutoTrigger(ratePerSec float64, burst int) SweeperOption {
	return func(s *TaskSweeper) {
		if burst < 1 {
			burst = 1
		}
		s.autoTrigger = true
		s.limiter = rate.NewLimiter(rate.Limit(ratePerSec), burst)
	}
}

// WithDueLimit caps how many due tasks one sweep collects
func WithDueLimit(n int) SweeperOption {
	return func(s *TaskSweeper) {
		s.dueLimit = n
	}
}

// TaskSweeper is the daemon's background loop over the task table.
// Each tick repairs missing tasks for growing crops, publishes due tasks to the
// operation log and optionally triggers them.
type TaskSweeper struct {
	mediator    mediator.Mediator
	logger      logging.OperationLogger
	interval    time.Duration
	autoTrigger bool
	limiter     *rate.Limiter
	dueLimit    int

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewTaskSweeper creates a sweeper. logger is optional.
func NewTaskSweeper(m mediator.Mediator, logger logging.OperationLogger, opts ...SweeperOption) *TaskSweeper {
	s := &TaskSweeper{
		mediator: m,
		logger:   logger,
		interval: DefaultSweepInterval,
		dueLimit: 500,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs the sweep loop until ctx is cancelled or Stop is called
func (s *TaskSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if _, err := s.Sweep(loopCtx); err != nil && loopCtx.Err() == nil {
					fmt.Printf("Sweeper: %v\n", err)
				}
			}
		}
	}()
	fmt.Printf("Task sweeper started (interval: %v, auto-trigger: %v)\n", s.interval, s.autoTrigger)
}

// Stop cancels the loop and waits for the in-flight sweep to return
func (s *TaskSweeper) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
}

// Sweep runs one reconcile + due-collection pass
func (s *TaskSweeper) Sweep(ctx context.Context) (*SweepResult, error) {
	if s.logger != nil {
		ctx = logging.WithLogger(ctx, s.logger)
	}
	start := time.Now()
	result := &SweepResult{}

	resp, err := s.mediator.Send(ctx, &schedCmd.ReconcileTasksCommand{})
	if err != nil {
		metrics.RecordSweep(time.Since(start).Seconds(), false)
		return result, fmt.Errorf("reconcile failed: %w", err)
	}
	if r, ok := resp.(*schedCmd.ReconcileTasksResponse); ok {
		result.TasksCreated = r.TasksCreated
	}

	resp, err = s.mediator.Send(ctx, &schedQuery.DueTasksQuery{Limit: s.dueLimit})
	if err != nil {
		metrics.RecordSweep(time.Since(start).Seconds(), false)
		return result, fmt.Errorf("due task query failed: %w", err)
	}
	due, ok := resp.(*schedQuery.DueTasksResponse)
	if !ok {
		return result, fmt.Errorf("unexpected due task response type %T", resp)
	}
	result.Due = len(due.Tasks)
	metrics.RecordDueTasks(result.Due)

	logger := logging.LoggerFromContext(ctx)
	for _, t := range due.Tasks {
		logger.Log(logging.LevelInfo, fmt.Sprintf("Task due: %s for crop %s", t.TaskType, t.CropID), map[string]interface{}{
			"task_id":      t.ID,
			"crop_id":      t.CropID,
			"task_type":    t.TaskType,
			"stage_code":   t.StageCode,
			"scheduled_at": t.ScheduledAt.Format(time.RFC3339),
		})
	}

	if s.autoTrigger {
		for _, t := range due.Tasks {
			if err := s.limiter.Wait(ctx); err != nil {
				metrics.RecordSweep(time.Since(start).Seconds(), false)
				return result, err
			}
			if _, err := s.mediator.Send(ctx, &schedCmd.TriggerTaskCommand{TaskID: t.ID}); err != nil {
				result.Errors++
				s.markError(ctx, t.ID, err)
				continue
			}
			result.Triggered++
		}
	}

	metrics.RecordSweep(time.Since(start).Seconds(), true)
	return result, nil
}

func (s *TaskSweeper) markError(ctx context.Context, taskID string, cause error) {
	if _, err := s.mediator.Send(ctx, &schedCmd.MarkTaskErrorCommand{TaskID: taskID, Message: cause.Error()}); err != nil {
		fmt.Printf("Sweeper: failed to mark task %s as error: %v\n", taskID, err)
	}
}
