// internal/workers/proposal/compare-proposals/handler.go
package compareproposals

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
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
	TaskType = "compare-proposals"
)

type Reader interface {
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	GetCompanies(ctx context.Context, ids []string) ([]models.Company, error)
	ListProposals(ctx context.Context, requestID string) ([]models.Proposal, error)
}

type Handler struct {
	config *Config
	reader Reader
	jobs   *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, reader Reader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		reader: reader,
		jobs:   camunda.NewJobRunner(TaskType, log, obs),
		logger: log,
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
	if input.RequestID == "" || input.OwnerID == "" {
		return nil, errors.NewInvalidInputError("requestId and ownerId are required")
	}
	switch input.SortBy {
	case "", SortByCreated, SortByScore, SortByCost:
	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown sortBy %q", input.SortBy))
	}

	request, err := h.reader.GetRequest(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if input.OwnerID != request.OwnerID {
		return nil, errors.NewForbiddenError(fmt.Sprintf("request %s is not owned by %s", request.ID, input.OwnerID))
	}

	proposals, err := h.reader.ListProposals(ctx, request.ID)
	if err != nil {
		return nil, err
	}

	companyIDs := make([]string, 0, len(proposals))
	for _, p := range proposals {
		if p.Status != models.ProposalStatusPending {
			companyIDs = append(companyIDs, p.CompanyID)
		}
	}
	companies, err := h.reader.GetCompanies(ctx, companyIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}

	compared := proposal.Annotate(proposals, byID, *request)
	sortCompared(compared, input.SortBy)
	summary := proposal.Summarize(compared)

	h.logger.Info("proposals compared", map[string]interface{}{
		"requestId":    request.ID,
		"proposals":    summary.Count,
		"averageScore": summary.AverageScore,
	})

	return &Output{
		RequestID: request.ID,
		Proposals: compared,
		Summary:   summary,
	}, nil
}

// sortCompared orders proposals in place. Unscored or uncosted proposals sort
// last; ties keep the listing order.
func sortCompared(compared []proposal.ComparedProposal, sortBy string) {
	switch sortBy {
	case SortByScore:
		sort.SliceStable(compared, func(i, j int) bool {
			a, b := compared[i].MatchScore, compared[j].MatchScore
			if a == nil || b == nil {
				return a != nil
			}
			return a.Total > b.Total
		})
	case SortByCost:
		sort.SliceStable(compared, func(i, j int) bool {
			a, b := compared[i].Proposal.EstimatedCost, compared[j].Proposal.EstimatedCost
			if a == nil || b == nil {
				return a != nil
			}
			return *a < *b
		})
	}
}
