// internal/common/camunda/job.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/common/observability"
)

// JobRunner finishes jobs for one task type: it completes or fails the job
// with the engine and records the outcome in prometheus and otel.
type JobRunner struct {
	taskType string
	logger   logger.Logger
	errors   *errors.ErrorHandler
	obs      *observability.Observability
}

// NewJobRunner builds a runner. obs may be nil.
func NewJobRunner(taskType string, log logger.Logger, obs *observability.Observability) *JobRunner {
	return &JobRunner{
		taskType: taskType,
		logger:   log,
		errors:   errors.NewErrorHandler(log),
		obs:      obs,
	}
}

func (r *JobRunner) Complete(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, output interface{}) {
	r.record(ctx, start, "")

	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		r.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}
	r.logger.Info("job completed", map[string]interface{}{
		"jobKey":     job.Key,
		"durationMs": time.Since(start).Milliseconds(),
	})
}

func (r *JobRunner) Fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := errors.Normalize(err)
	r.record(ctx, start, string(stdErr.Code))
	r.errors.HandleJobError(ctx, client, job, stdErr)
}

func (r *JobRunner) record(ctx context.Context, start time.Time, errorCode string) {
	elapsed := time.Since(start)
	metrics.ObserveJob(r.taskType, elapsed.Seconds(), errorCode)

	status := "completed"
	if errorCode != "" {
		status = "failed"
	}
	r.obs.RecordJobProcessed(ctx, r.taskType, status)
	r.obs.RecordJobDuration(ctx, r.taskType, elapsed, status)
}
