// internal/workers/matching/find-matching-companies/handler.go
package findmatchingcompanies

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
	"quote-workers/internal/common/metrics"
	"quote-workers/internal/common/observability"
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
	"quote-workers/internal/repository"
)

const (
	TaskType = "find-matching-companies"
)

// RequestReader loads the request being matched.
type RequestReader interface {
	GetRequest(ctx context.Context, id string) (*models.Request, error)
}

// PendingEnsurer opens PENDING proposals for matched companies.
type PendingEnsurer interface {
	EnsurePending(ctx context.Context, requestID string, companyIDs ...string) ([]string, error)
}

type Handler struct {
	config     *Config
	requests   RequestReader
	candidates repository.CandidateSource
	pending    PendingEnsurer
	obs        *observability.Observability
	jobs       *camunda.JobRunner
	logger     logger.Logger
}

// NewHandler wires the worker. pending may be nil when EnsurePending is off.
func NewHandler(config *Config, requests RequestReader, candidates repository.CandidateSource, pending PendingEnsurer,
	obs *observability.Observability, log logger.Logger) *Handler {
	if config.Scoring == nil {
		config.Scoring = matching.DefaultConfig()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		requests:   requests,
		candidates: candidates,
		pending:    pending,
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

	input, err := parseInput(job)
	if err != nil {
		h.jobs.Fail(ctx, client, job, start, err)
		return
	}

	output, err := h.Execute(ctx, input)
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.RequestID == "" {
		return nil, errors.NewInvalidInputError("requestId is required")
	}

	request, err := h.requests.GetRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if request.Status == models.RequestStatusClosed || request.Status == models.RequestStatusCancelled {
		return nil, errors.NewStateConflictError(fmt.Sprintf("request %s is %s", request.ID, request.Status))
	}

	companies, err := h.candidates.Candidates(ctx, *request)
	if err != nil {
		if _, ok := errors.AsStandardError(err); ok {
			return nil, err
		}
		return nil, errors.NewMatchingFailedError(err)
	}

	found := matching.FindMatchingCompanies(companies, *request, input.Filters, h.config.Scoring)

	metrics.MatchRuns.WithLabelValues(h.candidates.Name()).Inc()
	metrics.MatchResults.Observe(float64(len(found)))

	output := &Output{
		RequestID:      request.ID,
		Matches:        make([]Match, 0, len(found)),
		CandidateCount: len(companies),
		Source:         h.candidates.Name(),
		PendingCreated: []string{},
	}
	companyIDs := make([]string, 0, len(found))
	for _, m := range found {
		h.obs.RecordMatchScore(ctx, m.MatchScore.Total)
		output.Matches = append(output.Matches, Match{
			CompanyID:   m.Company.ID,
			CompanyName: m.Company.Name,
			MatchScore:  m.MatchScore,
			MatchTier:   matching.GetMatchTier(m.MatchScore.Total),
		})
		companyIDs = append(companyIDs, m.Company.ID)
	}
	output.MatchCount = len(output.Matches)

	if h.config.EnsurePending && h.pending != nil && request.Status.IsOpen() && len(companyIDs) > 0 {
		created, err := h.pending.EnsurePending(ctx, request.ID, companyIDs...)
		if err != nil {
			return nil, err
		}
		output.PendingCreated = created
	}

	h.logger.Info("matching completed", map[string]interface{}{
		"requestId":      request.ID,
		"candidates":     output.CandidateCount,
		"matches":        output.MatchCount,
		"source":         output.Source,
		"pendingCreated": len(output.PendingCreated),
	})
	return output, nil
}
