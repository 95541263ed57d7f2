// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

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
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

const (
	TaskType = "calculate-match-score"
)

// Reader is the subset of repository.Reader this worker needs. A
// repository.CachedReader serves companies from Redis.
type Reader interface {
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
}

type Handler struct {
	config     *Config
	reader     Reader
	calculator *matching.Calculator
	obs        *observability.Observability
	jobs       *camunda.JobRunner
	logger     logger.Logger
}

func NewHandler(config *Config, reader Reader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		reader:     reader,
		calculator: matching.NewCalculator(config.Scoring),
		obs:        obs,
		jobs:       camunda.NewJobRunner(TaskType, log, obs),
		logger:     log,
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
	request, err := h.resolveRequest(ctx, input)
	if err != nil {
		return nil, err
	}
	company, err := h.resolveCompany(ctx, input)
	if err != nil {
		return nil, err
	}

	score := h.calculator.Calculate(*company, *request)
	tier := matching.GetMatchTier(score.Total)
	h.obs.RecordMatchScore(ctx, score.Total)

	h.logger.Info("match score calculated", map[string]interface{}{
		"requestId": request.ID,
		"companyId": company.ID,
		"score":     score.Total,
		"tier":      string(tier.Tier),
	})

	return &Output{
		RequestID:  request.ID,
		CompanyID:  company.ID,
		MatchScore: score,
		MatchTier:  tier,
	}, nil
}

func (h *Handler) resolveRequest(ctx context.Context, input *Input) (*models.Request, error) {
	if input.Request != nil {
		return input.Request, nil
	}
	if input.RequestID == "" {
		return nil, errors.NewInvalidInputError("requestId or request is required")
	}
	return h.reader.GetRequest(ctx, input.RequestID)
}

func (h *Handler) resolveCompany(ctx context.Context, input *Input) (*models.Company, error) {
	if input.Company != nil {
		return input.Company, nil
	}
	if input.CompanyID == "" {
		return nil, errors.NewInvalidInputError("companyId or company is required")
	}
	return h.reader.GetCompany(ctx, input.CompanyID)
}
