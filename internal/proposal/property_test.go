package proposal

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/models"
)

// seedResponded builds a published request with n RESPONDED proposals p-000..p-(n-1).
func seedResponded(n int) *memStore {
	store := newMemStore()
	store.requests["req-1"] = models.Request{ID: "req-1", OwnerID: "owner-1", Status: models.RequestStatusPublished}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("p-%03d", i)
		store.proposals[id] = models.Proposal{
			ID:        id,
			RequestID: "req-1",
			CompanyID: fmt.Sprintf("c-%03d", i),
			Status:    models.ProposalStatusResponded,
		}
	}
	return store
}

func TestProperty_SelectionExclusivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 25).Draw(t, "n")
		k := rapid.IntRange(0, n-1).Draw(t, "k")
		pending := rapid.IntRange(0, 5).Draw(t, "pending")

		store := seedResponded(n)
		for i := 0; i < pending; i++ {
			id := fmt.Sprintf("pending-%d", i)
			store.proposals[id] = models.Proposal{ID: id, RequestID: "req-1", CompanyID: id, Status: models.ProposalStatusPending}
		}
		svc := NewService(store, logger.NewNoOpLogger())
		target := fmt.Sprintf("p-%03d", k)

		result, err := svc.Select(context.Background(), SelectInput{ProposalID: target, OwnerID: "owner-1"})
		require.NoError(t, err)
		assert.Len(t, result.RejectedIDs, n-1+pending)

		selected, rejected := 0, 0
		for _, p := range store.proposalsFor("req-1") {
			switch p.Status {
			case models.ProposalStatusSelected:
				selected++
				assert.Equal(t, target, p.ID)
			case models.ProposalStatusRejected:
				rejected++
			default:
				t.Fatalf("proposal %s left in %s", p.ID, p.Status)
			}
		}
		assert.Equal(t, 1, selected)
		assert.Equal(t, n-1+pending, rejected)
		assert.Equal(t, models.RequestStatusClosed, store.request("req-1").Status)

		other := fmt.Sprintf("p-%03d", rapid.IntRange(0, n-1).Draw(t, "retry"))
		_, err = svc.Select(context.Background(), SelectInput{ProposalID: other, OwnerID: "owner-1"})
		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeProposalStateConflict, stdErr.Code)
	})
}

func TestProperty_NoDoubleSubmission(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		terminal := rapid.SampledFrom([]models.ProposalStatus{models.ProposalStatusSelected, models.ProposalStatusRejected}).Draw(t, "terminal")

		store := seedResponded(1)
		store.companies["c-000"] = models.Company{ID: "c-000", IsVerified: true}
		p := store.proposals["p-000"]
		p.Status = terminal
		store.proposals["p-000"] = p

		svc := NewService(store, logger.NewNoOpLogger())
		_, err := svc.Submit(context.Background(), SubmitInput{RequestID: "req-1", CompanyID: "c-000"})

		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeProposalStateConflict, stdErr.Code)
		assert.Equal(t, terminal, store.proposal("p-000").Status)
	})
}

func TestConcurrentSelections_ExactlyOneWins(t *testing.T) {
	const n = 12
	store := seedResponded(n)
	svc := NewService(store, logger.NewNoOpLogger())

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.Select(context.Background(), SelectInput{ProposalID: id, OwnerID: "owner-1"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, id)
				return
			}
			if stdErr, ok := errors.AsStandardError(err); ok && stdErr.Code == errors.ErrCodeProposalStateConflict {
				conflicts++
			}
		}(fmt.Sprintf("p-%03d", i))
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, n-1, conflicts)
	for _, p := range store.proposalsFor("req-1") {
		if p.ID == winners[0] {
			assert.Equal(t, models.ProposalStatusSelected, p.Status)
		} else {
			assert.Equal(t, models.ProposalStatusRejected, p.Status)
		}
	}
}
