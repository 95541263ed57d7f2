// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"quote-workers/internal/common/config"
	"quote-workers/internal/common/logger"
)

// JobHandler is implemented by every worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// Registry opens job workers and closes them together on shutdown.
type Registry struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, log logger.Logger) *Registry {
	return &Registry{
		client:  client,
		logger:  log.Named("workers"),
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType unless it is disabled in wcfg.
// It returns false when the worker was not started.
func (r *Registry) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) bool {
	if !wcfg.Enabled {
		r.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workers[taskType]; exists {
		r.logger.Warn("worker already started", map[string]interface{}{"taskType": taskType})
		return false
	}

	r.workers[taskType] = r.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	r.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// Started lists the task types with an open worker.
func (r *Registry) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.workers))
	for taskType := range r.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops every worker and waits for in-flight jobs up to timeout.
func (r *Registry) Close(timeout time.Duration) {
	r.mu.Lock()
	workers := r.workers
	r.workers = make(map[string]worker.JobWorker)
	r.mu.Unlock()

	var wg sync.WaitGroup
	for taskType, w := range workers {
		wg.Add(1)
		go func(taskType string, w worker.JobWorker) {
			defer wg.Done()
			done := make(chan struct{})
			go func() {
				w.Close()
				w.AwaitClose()
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(timeout):
				r.logger.Warn("worker did not stop in time", map[string]interface{}{"taskType": taskType})
			}
		}(taskType, w)
	}
	wg.Wait()
	r.logger.Info("all workers stopped", map[string]interface{}{"count": len(workers)})
}
