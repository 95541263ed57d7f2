// internal/workers/matching/refresh-company-cache/handler_test.go
package refreshcompanycache

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
)

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Invalidate(ctx context.Context, companyIDs ...string) error {
	args := m.Called(ctx, companyIDs)
	return args.Error(0)
}

func newTestHandler(t *testing.T, cache Invalidator) *Handler {
	h := NewHandler(LoadConfig(), cache, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return h
}

func TestHandler_Execute_InvalidatesMergedIDs(t *testing.T) {
	cache := new(mockCache)
	cache.On("Invalidate", mock.Anything, []string{"acme", "globex"}).Return(nil)

	out, err := newTestHandler(t, cache).Execute(context.Background(), &Input{
		CompanyID:  "acme",
		CompanyIDs: []string{"globex", "acme", " "},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"acme", "globex"}, out.InvalidatedCompanyIDs)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), out.RefreshedAt)
	cache.AssertExpectations(t)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    *Input
		cacheErr error
		wantCode errors.ErrorCode
	}{
		{name: "no ids", input: &Input{CompanyIDs: []string{""}}, wantCode: errors.ErrCodeInvalidInput},
		{name: "redis failure", input: &Input{CompanyID: "acme"}, cacheErr: stderrors.New("connection reset"), wantCode: errors.ErrCodeQueryExecutionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := new(mockCache)
			cache.On("Invalidate", mock.Anything, mock.Anything).Return(tt.cacheErr).Maybe()

			_, err := newTestHandler(t, cache).Execute(context.Background(), tt.input)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
		})
	}
}
