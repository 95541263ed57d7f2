// internal/workers/proposal/submit-proposal/handler.go
package submitproposal

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
	"quote-workers/internal/common/validation"
	"quote-workers/internal/models"
	"quote-workers/internal/proposal"
)

const (
	TaskType = "submit-proposal"
)

type Submitter interface {
	Submit(ctx context.Context, in proposal.SubmitInput) (*models.Proposal, error)
}

type Handler struct {
	config  *Config
	service Submitter
	schema  *validation.Schema
	jobs    *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service Submitter, obs *observability.Observability, log logger.Logger) *Handler {
	if config.MinContentLength <= 0 {
		config.MinContentLength = DefaultMinContentLength
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		schema:  validation.MustCompile(validation.ProposalSubmissionSchema(config.MinContentLength)),
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
	result, err := h.schema.Validate(input)
	if err != nil {
		return nil, errors.NewValidationError(err.Error())
	}
	if !result.Valid {
		h.logger.Warn("proposal submission rejected", map[string]interface{}{
			"requestId": input.RequestID,
			"companyId": input.CompanyID,
			"errors":    result.Errors,
		})
		return nil, errors.NewValidationError(result.Error())
	}

	p, err := h.service.Submit(ctx, proposal.SubmitInput{
		RequestID:         input.RequestID,
		CompanyID:         input.CompanyID,
		EstimatedCost:     input.EstimatedCost,
		EstimatedDuration: input.EstimatedDuration,
		Content:           input.Content,
		Attachments:       input.Attachments,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		ProposalID:  p.ID,
		RequestID:   p.RequestID,
		CompanyID:   p.CompanyID,
		Status:      string(p.Status),
		RespondedAt: p.RespondedAt,
	}, nil
}
