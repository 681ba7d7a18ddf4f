// Package taskrunner executes clip tasks with in-memory workers. It is the
// fallback used when the redis-backed queue is disabled, so a single binary
// still gets bounded background concurrency.
package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"clipforge/internal/dto"
	"clipforge/internal/service"
	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig returns a single-binary friendly default config.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// ClipTaskPayload contains clip task enqueue data.
type ClipTaskPayload struct {
	TaskID    string `json:"task_id"`
	MediaPath string `json:"media_path"`
	Language  string `json:"language,omitempty"`
}

// Runner executes queued clip tasks with in-memory workers.
type Runner struct {
	service *service.Service
	config  Config

	queue  chan ClipTaskPayload
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New creates and starts a task runner.
func New(svc *service.Service, cfg Config) *Runner {
	if svc == nil {
		svc = service.NewService()
	}

	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		service: svc,
		config:  cfg,
		queue:   make(chan ClipTaskPayload, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// SubmitClipTask queues a clip extraction job.
func (r *Runner) SubmitClipTask(payload ClipTaskPayload) error {
	if payload.MediaPath == "" {
		return errors.New("clip task media path is required")
	}
	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.queue <- payload:
		log.GetLogger().Info("[TaskRunner] task submitted",
			zap.String("task_id", payload.TaskID),
			zap.String("media_path", payload.MediaPath))
		return nil
	default:
		return ErrQueueFull
	}
}

// DispatchClipTask submits a prepared task by id. It adapts SubmitClipTask to
// the dispatcher shape the HTTP handler expects.
func (r *Runner) DispatchClipTask(taskId, mediaPath, language string) error {
	return r.SubmitClipTask(ClipTaskPayload{
		TaskID:    taskId,
		MediaPath: mediaPath,
		Language:  language,
	})
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case payload := <-r.queue:
			r.processTask(workerID, payload)
		}
	}
}

func (r *Runner) processTask(workerID int, payload ClipTaskPayload) {
	req := dto.StartClipTaskReq{
		MediaPath:   payload.MediaPath,
		Language:    payload.Language,
		ReuseTaskId: payload.TaskID,
	}

	_, err := r.service.StartClipTask(req)
	if err != nil {
		r.markTaskFailed(payload.TaskID, err)
		log.GetLogger().Error("[TaskRunner] task failed",
			zap.Int("worker_id", workerID),
			zap.String("task_id", payload.TaskID),
			zap.Error(err))
		return
	}

	log.GetLogger().Info("[TaskRunner] task started",
		zap.Int("worker_id", workerID),
		zap.String("task_id", payload.TaskID))
}

func (r *Runner) markTaskFailed(taskID string, taskErr error) {
	if taskID == "" {
		return
	}

	task, err := storage.GetTask(taskID)
	if err != nil || task == nil {
		return
	}

	task.Status = types.ClipTaskStatusFailed
	task.FailReason = taskErr.Error()
	task.StatusMsg = "任务失败 Failed"
	_ = storage.SaveTask(task)
}

// Close stops workers and rejects new tasks.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued tasks waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
