package queue

import (
	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/voiceagent/internal/config"
)

// NewServer builds the asynq server the worker process runs.
func NewServer(rcfg config.RedisConfig, qcfg config.QueueConfig) *asynq.Server {
	return asynq.NewServer(RedisOpt(rcfg), asynq.Config{
		Concurrency: qcfg.Concurrency,
		Queues: map[string]int{
			DefaultQueue: 1,
		},
	})
}

// HandlersRegistry maps task types to their workers.
type HandlersRegistry struct {
	mux   *asynq.ServeMux
	types []string
}

func NewHandlersRegistry() *HandlersRegistry {
	return &HandlersRegistry{
		mux: asynq.NewServeMux(),
	}
}

func (r *HandlersRegistry) Register(taskType string, handler asynq.Handler) {
	r.mux.Handle(taskType, handler)
	r.types = append(r.types, taskType)
}

// Types lists registered task types in registration order.
func (r *HandlersRegistry) Types() []string {
	return r.types
}

func (r *HandlersRegistry) Mux() *asynq.ServeMux {
	return r.mux
}
