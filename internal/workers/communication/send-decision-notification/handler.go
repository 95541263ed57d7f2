// internal/workers/communication/send-decision-notification/handler.go
package senddecisionnotification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quote-workers/internal/common/camunda"
	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/observability"
)

const (
	TaskType = "send-decision-notification"
)

type Executor interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}

type Handler struct {
	config  *Config
	service Executor
	jobs    *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service Executor, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		jobs:    camunda.NewJobRunner(TaskType, log, obs),
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := parseInput(job)
	if err != nil {
		h.jobs.Fail(ctx, client, job, start, err)
		return
	}

	output, err := h.service.Execute(ctx, input)
	if err != nil {
		h.jobs.Fail(ctx, client, job, start, err)
		return
	}

	h.jobs.Complete(ctx, client, job, start, output)
}

func parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}
