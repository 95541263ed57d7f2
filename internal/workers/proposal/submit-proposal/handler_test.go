// internal/workers/proposal/submit-proposal/handler_test.go
package submitproposal

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/models"
	"quote-workers/internal/proposal"
)

type mockSubmitter struct{ mock.Mock }

func (m *mockSubmitter) Submit(ctx context.Context, in proposal.SubmitInput) (*models.Proposal, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Proposal), args.Error(1)
}

func costPtr(v int64) *int64 { return &v }

func validInput() *Input {
	return &Input{
		RequestID:         "req-1",
		CompanyID:         "comp-1",
		EstimatedCost:     costPtr(2_400_000),
		EstimatedDuration: "3 months",
		Content:           strings.Repeat("We will deliver the platform in three phases. ", 3),
		Attachments:       []string{"s3://quotes/req-1/comp-1/plan.pdf"},
	}
}

func TestHandler_Execute_Success(t *testing.T) {
	svc := &mockSubmitter{}
	respondedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	input := validInput()

	svc.On("Submit", mock.Anything, mock.MatchedBy(func(in proposal.SubmitInput) bool {
		return in.RequestID == "req-1" && in.CompanyID == "comp-1" &&
			*in.EstimatedCost == 2_400_000 && len(in.Attachments) == 1
	})).Return(&models.Proposal{
		ID:          "p-1",
		RequestID:   "req-1",
		CompanyID:   "comp-1",
		Status:      models.ProposalStatusResponded,
		RespondedAt: &respondedAt,
	}, nil)

	h := NewHandler(LoadConfig(), svc, nil, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "p-1", output.ProposalID)
	assert.Equal(t, "RESPONDED", output.Status)
	assert.Equal(t, &respondedAt, output.RespondedAt)
	svc.AssertExpectations(t)
}

func TestHandler_Execute_SchemaValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing cost", func(in *Input) { in.EstimatedCost = nil }},
		{"zero cost", func(in *Input) { in.EstimatedCost = costPtr(0) }},
		{"missing duration", func(in *Input) { in.EstimatedDuration = "" }},
		{"short content", func(in *Input) { in.Content = "cheap and fast" }},
		{"missing company", func(in *Input) { in.CompanyID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSubmitter{}
			input := validInput()
			tt.mutate(input)

			h := NewHandler(LoadConfig(), svc, nil, logger.NewTestLogger(t))
			_, err := h.Execute(context.Background(), input)

			assert.ErrorIs(t, err, errors.ErrValidation)
			svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_Execute_MinContentLengthConfigurable(t *testing.T) {
	svc := &mockSubmitter{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(&models.Proposal{ID: "p-2", Status: models.ProposalStatusResponded}, nil)

	input := validInput()
	input.Content = "short but fine"

	h := NewHandler(&Config{Timeout: time.Second, MinContentLength: 5}, svc, nil, logger.NewTestLogger(t))
	output, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "p-2", output.ProposalID)
}

func TestHandler_Execute_ServiceErrorPassesThrough(t *testing.T) {
	svc := &mockSubmitter{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.NewStateConflictError("proposal p-1 is SELECTED"))

	h := NewHandler(LoadConfig(), svc, nil, logger.NewTestLogger(t))
	_, err := h.Execute(context.Background(), validInput())

	assert.ErrorIs(t, err, errors.ErrStateConflict)
}
