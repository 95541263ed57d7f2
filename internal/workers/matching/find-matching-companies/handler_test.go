// internal/workers/matching/find-matching-companies/handler_test.go
package findmatchingcompanies

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

// ==========================
// Mocks
// ==========================

type mockRequests struct{ mock.Mock }

func (m *mockRequests) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

type mockCandidates struct{ mock.Mock }

func (m *mockCandidates) Candidates(ctx context.Context, request models.Request) ([]models.Company, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Company), args.Error(1)
}

func (m *mockCandidates) Name() string { return "postgres" }

type mockPending struct{ mock.Mock }

func (m *mockPending) EnsurePending(ctx context.Context, requestID string, companyIDs ...string) ([]string, error) {
	args := m.Called(ctx, requestID, companyIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// ==========================
// Test Helpers
// ==========================

func int64Ptr(v int64) *int64 { return &v }

func publishedRequest() *models.Request {
	return &models.Request{
		ID:          "req-1",
		OwnerID:     "owner-1",
		ProjectType: models.ProjectTypeWebDevelopment,
		BudgetMin:   int64Ptr(1_000_000),
		BudgetMax:   int64Ptr(3_000_000),
		Status:      models.RequestStatusPublished,
		Requirements: &models.Requirements{
			TechStacks: []string{"react", "postgresql"},
		},
	}
}

func candidateCompanies() []models.Company {
	return []models.Company{
		{
			ID: "acme", Name: "Acme", IsVerified: true, AcceptsNewProjects: true,
			TechStacks: []string{"React", "Node.js"}, Specialties: []string{"Web Development"},
			AverageRating: 4.5, ReviewCount: 30,
		},
		{
			ID: "globex", Name: "Globex", IsVerified: true, AcceptsNewProjects: true,
			TechStacks: []string{"React", "PostgreSQL"}, Specialties: []string{"Fullstack web"},
			AverageRating: 4.9, ReviewCount: 60,
		},
		{
			ID: "busy", Name: "Busy", IsVerified: true, AcceptsNewProjects: false,
			TechStacks: []string{"React", "PostgreSQL"}, Specialties: []string{"Web Development"},
		},
		{
			ID: "cobol", Name: "Legacy Ltd", AcceptsNewProjects: true,
			TechStacks: []string{"COBOL"}, Specialties: []string{"Mainframe"},
		},
	}
}

func createMockJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                12345,
		Type:               TaskType,
		ProcessInstanceKey: 123450,
		Retries:            3,
		Variables:          variables,
	}}
}

func newHandler(t *testing.T, cfg *Config, requests *mockRequests, candidates *mockCandidates, pending PendingEnsurer) *Handler {
	return NewHandler(cfg, requests, candidates, pending, nil, logger.NewTestLogger(t))
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_RanksAndFilters(t *testing.T) {
	requests := &mockRequests{}
	candidates := &mockCandidates{}
	requests.On("GetRequest", mock.Anything, "req-1").Return(publishedRequest(), nil)
	candidates.On("Candidates", mock.Anything, mock.Anything).Return(candidateCompanies(), nil)

	h := newHandler(t, LoadConfig(), requests, candidates, nil)
	output, err := h.Execute(context.Background(), &Input{RequestID: "req-1"})

	require.NoError(t, err)
	assert.Equal(t, 4, output.CandidateCount)
	require.Equal(t, 2, output.MatchCount)
	assert.Equal(t, "globex", output.Matches[0].CompanyID)
	assert.Equal(t, "acme", output.Matches[1].CompanyID)
	assert.Equal(t, 57, output.Matches[1].MatchScore.Total)
	assert.Equal(t, matching.TierFair, output.Matches[1].MatchTier.Tier)
	assert.GreaterOrEqual(t, output.Matches[0].MatchScore.Total, output.Matches[1].MatchScore.Total)
	assert.Empty(t, output.PendingCreated)
	assert.Equal(t, "postgres", output.Source)
}

func TestHandler_Execute_AppliesFilters(t *testing.T) {
	requests := &mockRequests{}
	candidates := &mockCandidates{}
	requests.On("GetRequest", mock.Anything, "req-1").Return(publishedRequest(), nil)
	candidates.On("Candidates", mock.Anything, mock.Anything).Return(candidateCompanies(), nil)

	minRating := 4.8
	h := newHandler(t, LoadConfig(), requests, candidates, nil)
	output, err := h.Execute(context.Background(), &Input{
		RequestID: "req-1",
		Filters:   &matching.Filters{VerifiedOnly: true, MinRating: &minRating},
	})

	require.NoError(t, err)
	require.Len(t, output.Matches, 1)
	assert.Equal(t, "globex", output.Matches[0].CompanyID)
}

func TestHandler_Execute_EnsuresPendingProposals(t *testing.T) {
	requests := &mockRequests{}
	candidates := &mockCandidates{}
	pending := &mockPending{}
	requests.On("GetRequest", mock.Anything, "req-1").Return(publishedRequest(), nil)
	candidates.On("Candidates", mock.Anything, mock.Anything).Return(candidateCompanies(), nil)
	pending.On("EnsurePending", mock.Anything, "req-1", []string{"globex", "acme"}).Return([]string{"acme"}, nil)

	cfg := LoadConfig()
	cfg.EnsurePending = true
	h := newHandler(t, cfg, requests, candidates, pending)

	output, err := h.Execute(context.Background(), &Input{RequestID: "req-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, output.PendingCreated)
	pending.AssertExpectations(t)
}

func TestHandler_Execute_DraftRequestSkipsPending(t *testing.T) {
	requests := &mockRequests{}
	candidates := &mockCandidates{}
	pending := &mockPending{}
	draft := publishedRequest()
	draft.Status = models.RequestStatusDraft
	requests.On("GetRequest", mock.Anything, "req-1").Return(draft, nil)
	candidates.On("Candidates", mock.Anything, mock.Anything).Return(candidateCompanies(), nil)

	cfg := LoadConfig()
	cfg.EnsurePending = true
	h := newHandler(t, cfg, requests, candidates, pending)

	output, err := h.Execute(context.Background(), &Input{RequestID: "req-1"})

	require.NoError(t, err)
	assert.Equal(t, 2, output.MatchCount)
	pending.AssertNotCalled(t, "EnsurePending", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     *Input
		setup     func(*mockRequests, *mockCandidates)
		wantCode  errors.ErrorCode
	}{
		{
			name:     "missing request id",
			input:    &Input{},
			setup:    func(*mockRequests, *mockCandidates) {},
			wantCode: errors.ErrCodeInvalidInput,
		},
		{
			name:  "unknown request",
			input: &Input{RequestID: "nope"},
			setup: func(r *mockRequests, _ *mockCandidates) {
				r.On("GetRequest", mock.Anything, "nope").Return(nil, errors.NewRequestNotFoundError("nope"))
			},
			wantCode: errors.ErrCodeRequestNotFound,
		},
		{
			name:  "closed request",
			input: &Input{RequestID: "req-1"},
			setup: func(r *mockRequests, _ *mockCandidates) {
				closed := publishedRequest()
				closed.Status = models.RequestStatusClosed
				r.On("GetRequest", mock.Anything, "req-1").Return(closed, nil)
			},
			wantCode: errors.ErrCodeProposalStateConflict,
		},
		{
			name:  "candidate source failure",
			input: &Input{RequestID: "req-1"},
			setup: func(r *mockRequests, c *mockCandidates) {
				r.On("GetRequest", mock.Anything, "req-1").Return(publishedRequest(), nil)
				c.On("Candidates", mock.Anything, mock.Anything).Return(nil, stderrors.New("boom"))
			},
			wantCode: errors.ErrCodeMatchingFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := &mockRequests{}
			candidates := &mockCandidates{}
			tt.setup(requests, candidates)

			h := newHandler(t, LoadConfig(), requests, candidates, nil)
			_, err := h.Execute(context.Background(), tt.input)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok, "expected StandardError, got %v", err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	input, err := parseInput(createMockJob(`{"requestId":"req-1","filters":{"verifiedOnly":true,"minRating":4.2}}`))
	require.NoError(t, err)
	assert.Equal(t, "req-1", input.RequestID)
	require.NotNil(t, input.Filters)
	assert.True(t, input.Filters.VerifiedOnly)
	assert.Equal(t, 4.2, *input.Filters.MinRating)

	_, err = parseInput(createMockJob(`{"requestId":`))
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)
}
