package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/voiceagent/internal/apperr"
	"github.com/nikhilbhutani/voiceagent/internal/config"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type inspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	Close() error
}

// Client enqueues deferred workflows and reports their status.
type Client struct {
	client    enqueuer
	inspector inspector
	timeout   time.Duration
	retention time.Duration
}

// RedisOpt converts the Redis settings into asynq's connection option.
func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(rcfg config.RedisConfig, qcfg config.QueueConfig) *Client {
	opt := RedisOpt(rcfg)
	return newClient(asynq.NewClient(opt), asynq.NewInspector(opt), qcfg)
}

func newClient(enq enqueuer, insp inspector, qcfg config.QueueConfig) *Client {
	return &Client{
		client:    enq,
		inspector: insp,
		timeout:   qcfg.TaskTimeout,
		retention: qcfg.ResultTTL,
	}
}

func (c *Client) Close() error {
	return errors.Join(c.client.Close(), c.inspector.Close())
}

// EnqueueEcho schedules the echo workflow for a stored upload and returns the job ID.
func (c *Client) EnqueueEcho(ctx context.Context, payload EchoPayload) (string, error) {
	id := uuid.NewString()
	opts := []asynq.Option{
		asynq.TaskID(id),
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(0),
	}
	if c.timeout > 0 {
		opts = append(opts, asynq.Timeout(c.timeout))
	}
	if c.retention > 0 {
		opts = append(opts, asynq.Retention(c.retention))
	}

	if err := c.enqueue(ctx, TypeEcho, payload, opts...); err != nil {
		return "", apperr.Wrap(apperr.KindUpstreamUnavailable, "queue.enqueue", err, "Failed to schedule job.")
	}
	return id, nil
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// Status reports the state of a job. Unknown or expired IDs are NotFound.
func (c *Client) Status(_ context.Context, id string) (*JobStatus, error) {
	info, err := c.inspector.GetTaskInfo(DefaultQueue, id)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return nil, apperr.Wrap(apperr.KindNotFound, "queue.status", err, "Job not found.")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstreamUnavailable, "queue.status", err, "Failed to read job status.")
	}

	status := &JobStatus{JobID: id}
	switch info.State {
	case asynq.TaskStateCompleted:
		status.State = JobCompleted
		if len(info.Result) > 0 {
			status.Result = json.RawMessage(info.Result)
		}
	case asynq.TaskStateArchived:
		status.State = JobFailed
		status.Error = info.LastErr
	case asynq.TaskStateActive:
		status.State = JobRunning
	default:
		status.State = JobPending
	}
	return status, nil
}
