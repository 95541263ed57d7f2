// internal/workers/matching/refresh-company-cache/handler.go
package refreshcompanycache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"quote-workers/internal/common/camunda"
	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/common/observability"
)

const (
	TaskType = "refresh-company-cache"
)

// Invalidator drops cached company records. Implemented by
// repository.CachedReader.
type Invalidator interface {
	Invalidate(ctx context.Context, companyIDs ...string) error
}

type Handler struct {
	config *Config
	cache  Invalidator
	jobs   *camunda.JobRunner
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, cache Invalidator, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		cache:  cache,
		jobs:   camunda.NewJobRunner(TaskType, log, obs),
		logger: log,
		now:    time.Now,
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
	ids := companyIDs(input)
	if len(ids) == 0 {
		return nil, errors.NewInvalidInputError("companyId or companyIds is required")
	}

	if err := h.cache.Invalidate(ctx, ids...); err != nil {
		return nil, errors.NewQueryExecutionFailedError("company_cache_invalidate", err)
	}

	h.logger.Info("company cache invalidated", map[string]interface{}{"companyIds": ids})
	return &Output{InvalidatedCompanyIDs: ids, RefreshedAt: h.now().UTC()}, nil
}

// companyIDs merges both input fields, dropping blanks and duplicates.
func companyIDs(input *Input) []string {
	seen := make(map[string]bool)
	ids := []string{}
	for _, id := range append([]string{input.CompanyID}, input.CompanyIDs...) {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
