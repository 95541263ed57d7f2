// internal/workers/proposal/reject-proposal/handler.go
package rejectproposal

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
	"quote-workers/internal/models"
	"quote-workers/internal/proposal"
)

const (
	TaskType = "reject-proposal"
)

type Rejecter interface {
	Reject(ctx context.Context, in proposal.RejectInput) (*models.Proposal, error)
}

type Handler struct {
	config  *Config
	service Rejecter
	jobs    *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service Rejecter, obs *observability.Observability, log logger.Logger) *Handler {
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

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.jobs.Fail(ctx, client, job, start, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.jobs.Fail(ctx, client, job, start, err)
		return
	}

	h.jobs.Complete(ctx, client, job, start, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	p, err := h.service.Reject(ctx, proposal.RejectInput{
		ProposalID: input.ProposalID,
		OwnerID:    input.OwnerID,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ProposalID: p.ID,
		RequestID:  p.RequestID,
		CompanyID:  p.CompanyID,
		Status:     string(p.Status),
	}, nil
}
