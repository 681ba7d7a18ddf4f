// Package queue provides background clip task processing using Asynq.
// It supports reliable task queueing with retry logic and persistence.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/log"
)

// Task type names
const (
	TypeClipTask = "clipper:analyze"
)

// ClipTaskPayload contains the data for a clip extraction task
type ClipTaskPayload struct {
	TaskID    string `json:"task_id"`
	MediaPath string `json:"media_path"`
	Language  string `json:"language,omitempty"`
}

// Queue manages task enqueueing and processing
type Queue struct {
	client *asynq.Client
	server *asynq.Server
	config config.QueueConfig
}

// NewQueue creates a new Queue instance from the redis settings in cfg
func NewQueue(cfg config.QueueConfig) *Queue {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			RetryDelayFunc: func(n int, e error, t *asynq.Task) time.Duration {
				// Exponential backoff: 10s, 20s, 40s, 80s, ...
				return time.Duration(10<<uint(n)) * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.GetLogger().Error("Task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)

	return &Queue{
		client: client,
		server: server,
		config: cfg,
	}
}

// EnqueueClipTask adds a clip extraction task to the queue. When the payload
// has no task id one is assigned, and the id is returned either way so the
// caller can poll progress.
func (q *Queue) EnqueueClipTask(payload ClipTaskPayload) (string, error) {
	if payload.TaskID == "" {
		payload.TaskID = uuid.NewString()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeClipTask, data,
		asynq.MaxRetry(2),
		asynq.Timeout(2*time.Hour),
		asynq.Queue("default"),
	)

	info, err := q.client.Enqueue(task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue task: %w", err)
	}

	log.GetLogger().Info("Clip task enqueued",
		zap.String("task_id", payload.TaskID),
		zap.String("queue_id", info.ID),
		zap.String("queue", info.Queue))

	return payload.TaskID, nil
}

// DispatchClipTask enqueues a prepared task by id. It adapts EnqueueClipTask
// to the dispatcher shape the HTTP handler expects.
func (q *Queue) DispatchClipTask(taskId, mediaPath, language string) error {
	_, err := q.EnqueueClipTask(ClipTaskPayload{
		TaskID:    taskId,
		MediaPath: mediaPath,
		Language:  language,
	})
	return err
}

// Close gracefully shuts down the queue
func (q *Queue) Close() error {
	if err := q.client.Close(); err != nil {
		return err
	}
	q.server.Shutdown()
	return nil
}

// Client returns the underlying Asynq client for advanced usage
func (q *Queue) Client() *asynq.Client {
	return q.client
}

// Server returns the underlying Asynq server for advanced usage
func (q *Queue) Server() *asynq.Server {
	return q.server
}
