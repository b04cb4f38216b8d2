package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/feedhaus/storyvec/app/database"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Only two periodic tasks exist, so a small fixed worker count is plenty;
// the ingestion run parallelizes internally through its own batch pool.
const schedulerWorkerCount = 2

// taskTimeout bounds a single task execution. Ingestion runs cover every
// source, so this is deliberately generous.
const taskTimeout = 30 * time.Minute

type Scheduler struct {
	runner        Runner
	cacheRepo     database.EmbeddingCacheRepository
	runInterval   time.Duration
	sweepInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	taskQueue     chan TaskInterface
}

func NewScheduler(runner Runner, cacheRepo database.EmbeddingCacheRepository, runInterval, sweepInterval time.Duration) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:        runner,
		cacheRepo:     cacheRepo,
		runInterval:   runInterval,
		sweepInterval: sweepInterval,
		ctx:           ctx,
		cancel:        cancel,
		taskQueue:     make(chan TaskInterface, 10),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < schedulerWorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		runTicker := time.NewTicker(s.runInterval)
		defer runTicker.Stop()
		sweepTicker := time.NewTicker(s.sweepInterval)
		defer sweepTicker.Stop()

		s.enqueueStartupTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-runTicker.C:
				if err := s.EnqueueTask(NewIngestRunTask(s.runner)); err != nil {
					slog.Warn("Failed to enqueue IngestRunTask", "error", err)
				}
			case <-sweepTicker.C:
				if err := s.EnqueueTask(NewCacheSweepTask(s.cacheRepo)); err != nil {
					slog.Warn("Failed to enqueue CacheSweepTask", "error", err)
				}
			}
		}
	}()
}

// Stop cancels all workers and waits for them, including pending retry
// timers. The queue is never closed: workers exit on the context, so a late
// EnqueueTask gets an error instead of a send on a closed channel.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueStartupTasks kicks off an immediate run and sweep so a fresh process
// does not idle until the first tick
func (s *Scheduler) enqueueStartupTasks() {
	if err := s.EnqueueTask(NewIngestRunTask(s.runner)); err != nil {
		slog.Warn("Failed to enqueue startup IngestRunTask", "error", err)
	}
	if err := s.EnqueueTask(NewCacheSweepTask(s.cacheRepo)); err != nil {
		slog.Warn("Failed to enqueue startup CacheSweepTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, taskTimeout)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-time.After(retryDelay):
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
