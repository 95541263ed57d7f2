package proposal

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
	"quote-workers/internal/models"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func costPtr(v int64) *int64 { return &v }

type fixture struct {
	store   *memStore
	service *Service
	nextID  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: newMemStore()}
	f.service = NewService(f.store, logger.NewTestLogger(t),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			f.nextID++
			return fmt.Sprintf("p-%03d", f.nextID)
		}),
	)

	f.store.requests["req-1"] = models.Request{
		ID:          "req-1",
		OwnerID:     "owner-1",
		Title:       "Booking platform",
		ProjectType: models.ProjectTypeWebDevelopment,
		Status:      models.RequestStatusPublished,
	}
	f.store.companies["acme"] = models.Company{ID: "acme", Name: "Acme", IsVerified: true, AcceptsNewProjects: true}
	f.store.companies["globex"] = models.Company{ID: "globex", Name: "Globex", IsVerified: true, AcceptsNewProjects: true}
	f.store.companies["initech"] = models.Company{ID: "initech", Name: "Initech", IsVerified: true, AcceptsNewProjects: true}
	f.store.companies["unverified"] = models.Company{ID: "unverified", Name: "Shady", IsVerified: false}
	return f
}

func (f *fixture) submit(t *testing.T, companyID string) *models.Proposal {
	t.Helper()
	p, err := f.service.Submit(context.Background(), submitInput(companyID))
	require.NoError(t, err)
	return p
}

func submitInput(companyID string) SubmitInput {
	return SubmitInput{
		RequestID:         "req-1",
		CompanyID:         companyID,
		EstimatedCost:     costPtr(1_500_000),
		EstimatedDuration: "3 months",
		Content:           strings.Repeat("We will deliver. ", 5),
	}
}

func assertCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok, "expected StandardError, got %T: %v", err, err)
	assert.Equal(t, code, stdErr.Code)
}

// ==========================
// Submit
// ==========================

func TestSubmit_FirstSubmissionCreatesResponded(t *testing.T) {
	f := newFixture(t)

	p := f.submit(t, "acme")

	assert.Equal(t, "p-001", p.ID)
	assert.Equal(t, models.ProposalStatusResponded, p.Status)
	require.NotNil(t, p.RespondedAt)
	assert.Equal(t, fixedNow, *p.RespondedAt)
	assert.Equal(t, int64(1_500_000), *p.EstimatedCost)
	assert.Equal(t, p.Status, f.store.proposal(p.ID).Status)
}

func TestSubmit_PendingBecomesResponded(t *testing.T) {
	f := newFixture(t)
	created, err := f.service.EnsurePending(context.Background(), "req-1", "acme")
	require.NoError(t, err)
	require.Equal(t, []string{"acme"}, created)

	p := f.submit(t, "acme")

	assert.Equal(t, "p-001", p.ID)
	assert.Equal(t, models.ProposalStatusResponded, p.Status)
	assert.Equal(t, "3 months", f.store.proposal("p-001").EstimatedDuration)
}

func TestSubmit_ResubmissionUpdatesAndResetsRespondedAt(t *testing.T) {
	f := newFixture(t)
	first := f.submit(t, "acme")

	later := fixedNow.Add(2 * time.Hour)
	f.service.now = func() time.Time { return later }

	in := submitInput("acme")
	in.EstimatedCost = costPtr(900_000)
	second, err := f.service.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(900_000), *second.EstimatedCost)
	assert.Equal(t, later, *second.RespondedAt)
	assert.Len(t, f.store.proposalsFor("req-1"), 1)
}

func TestSubmit_Guards(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		input   SubmitInput
		wantErr errors.ErrorCode
	}{
		{
			name:    "missing identifiers",
			input:   SubmitInput{},
			wantErr: errors.ErrCodeProposalValidationFailed,
		},
		{
			name:    "unknown request",
			input:   SubmitInput{RequestID: "nope", CompanyID: "acme"},
			wantErr: errors.ErrCodeRequestNotFound,
		},
		{
			name:    "unknown company",
			input:   submitInput("ghost"),
			wantErr: errors.ErrCodeCompanyNotFound,
		},
		{
			name:    "unverified company",
			input:   submitInput("unverified"),
			wantErr: errors.ErrCodeForbiddenProposalAction,
		},
		{
			name: "request not published",
			setup: func(f *fixture) {
				r := f.store.requests["req-1"]
				r.Status = models.RequestStatusDraft
				f.store.requests["req-1"] = r
			},
			input:   submitInput("acme"),
			wantErr: errors.ErrCodeProposalStateConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.service.Submit(context.Background(), tt.input)
			assertCode(t, err, tt.wantErr)
			assert.Empty(t, f.store.proposalsFor("req-1"))
		})
	}
}

func TestSubmit_NoResubmissionAfterTerminal(t *testing.T) {
	for _, terminal := range []models.ProposalStatus{models.ProposalStatusSelected, models.ProposalStatusRejected} {
		t.Run(string(terminal), func(t *testing.T) {
			f := newFixture(t)
			p := f.submit(t, "acme")

			stored := f.store.proposals[p.ID]
			stored.Status = terminal
			f.store.proposals[p.ID] = stored

			_, err := f.service.Submit(context.Background(), submitInput("acme"))
			assertCode(t, err, errors.ErrCodeProposalStateConflict)
			assert.True(t, stderrors.Is(err, errors.ErrStateConflict))
			assert.Equal(t, terminal, f.store.proposal(p.ID).Status)
		})
	}
}

// ==========================
// Select
// ==========================

func TestSelect_SelectsRejectsSiblingsAndClosesRequest(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")
	b := f.submit(t, "globex")
	_, err := f.service.EnsurePending(context.Background(), "req-1", "initech")
	require.NoError(t, err)

	result, err := f.service.Select(context.Background(), SelectInput{ProposalID: b.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	assert.Equal(t, models.ProposalStatusSelected, result.Proposal.Status)
	require.NotNil(t, result.Proposal.SelectedAt)
	assert.Equal(t, fixedNow, *result.Proposal.SelectedAt)
	assert.ElementsMatch(t, []string{a.ID, "p-003"}, result.RejectedIDs)

	for _, p := range f.store.proposalsFor("req-1") {
		if p.ID == b.ID {
			assert.Equal(t, models.ProposalStatusSelected, p.Status)
		} else {
			assert.Equal(t, models.ProposalStatusRejected, p.Status, p.ID)
		}
	}
	assert.Equal(t, models.RequestStatusClosed, f.store.request("req-1").Status)
}

func TestSelect_RepeatFailsWithConflict(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")
	b := f.submit(t, "globex")

	_, err := f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	_, err = f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalStateConflict)

	_, err = f.service.Select(context.Background(), SelectInput{ProposalID: b.ID, OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalStateConflict)
}

func TestSelect_Guards(t *testing.T) {
	t.Run("not the owner", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, "acme")
		_, err := f.service.Select(context.Background(), SelectInput{ProposalID: p.ID, OwnerID: "intruder"})
		assertCode(t, err, errors.ErrCodeForbiddenProposalAction)
		assert.Equal(t, models.ProposalStatusResponded, f.store.proposal(p.ID).Status)
	})

	t.Run("unknown proposal", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.Select(context.Background(), SelectInput{ProposalID: "missing", OwnerID: "owner-1"})
		assertCode(t, err, errors.ErrCodeProposalNotFound)
		assert.True(t, stderrors.Is(err, errors.ErrProposalNotFound))
	})

	t.Run("pending proposal", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.service.EnsurePending(context.Background(), "req-1", "acme")
		require.NoError(t, err)
		_, err = f.service.Select(context.Background(), SelectInput{ProposalID: "p-001", OwnerID: "owner-1"})
		assertCode(t, err, errors.ErrCodeProposalStateConflict)
	})

	t.Run("request cancelled", func(t *testing.T) {
		f := newFixture(t)
		p := f.submit(t, "acme")
		r := f.store.requests["req-1"]
		r.Status = models.RequestStatusCancelled
		f.store.requests["req-1"] = r

		_, err := f.service.Select(context.Background(), SelectInput{ProposalID: p.ID, OwnerID: "owner-1"})
		assertCode(t, err, errors.ErrCodeProposalStateConflict)
	})
}

func TestSelect_FailureMidTransactionLeavesNoPartialState(t *testing.T) {
	for _, method := range []string{"RejectSiblings", "CloseRequest"} {
		t.Run(method, func(t *testing.T) {
			f := newFixture(t)
			a := f.submit(t, "acme")
			b := f.submit(t, "globex")

			f.store.failOn = method
			f.store.failErr = errors.NewTransactionFailedError(method, stderrors.New("connection reset"))

			_, err := f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
			assertCode(t, err, errors.ErrCodeProposalTransactionFailed)
			assert.True(t, stderrors.Is(err, errors.ErrTransactionFailed))

			assert.Equal(t, models.ProposalStatusResponded, f.store.proposal(a.ID).Status)
			assert.Nil(t, f.store.proposal(a.ID).SelectedAt)
			assert.Equal(t, models.ProposalStatusResponded, f.store.proposal(b.ID).Status)
			assert.Equal(t, models.RequestStatusPublished, f.store.request("req-1").Status)
		})
	}
}

func TestSelect_CommitFailureIsTransactionFailure(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")
	f.store.commitErr = stderrors.New("could not serialize access")

	_, err := f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalTransactionFailed)
	assert.Equal(t, models.ProposalStatusResponded, f.store.proposal(a.ID).Status)
}

// ==========================
// Reject
// ==========================

func TestReject_SingleRecordOnly(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")
	b := f.submit(t, "globex")

	p, err := f.service.Reject(context.Background(), RejectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	assert.Equal(t, models.ProposalStatusRejected, p.Status)
	assert.Equal(t, models.ProposalStatusRejected, f.store.proposal(a.ID).Status)
	assert.Equal(t, models.ProposalStatusResponded, f.store.proposal(b.ID).Status)
	assert.Equal(t, models.RequestStatusPublished, f.store.request("req-1").Status)
}

func TestReject_Guards(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")

	_, err := f.service.Reject(context.Background(), RejectInput{ProposalID: a.ID, OwnerID: "someone-else"})
	assertCode(t, err, errors.ErrCodeForbiddenProposalAction)

	_, err = f.service.Reject(context.Background(), RejectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), RejectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalStateConflict)

	_, err = f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalStateConflict)
}

func TestReject_PendingIsConflict(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.EnsurePending(context.Background(), "req-1", "acme")
	require.NoError(t, err)

	_, err = f.service.Reject(context.Background(), RejectInput{ProposalID: "p-001", OwnerID: "owner-1"})
	assertCode(t, err, errors.ErrCodeProposalStateConflict)
}

// ==========================
// EnsurePending
// ==========================

func TestEnsurePending_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "acme")

	created, err := f.service.EnsurePending(context.Background(), "req-1", "acme", "globex")
	require.NoError(t, err)
	assert.Equal(t, []string{"globex"}, created)

	created, err = f.service.EnsurePending(context.Background(), "req-1", "acme", "globex")
	require.NoError(t, err)
	assert.Empty(t, created)

	assert.Len(t, f.store.proposalsFor("req-1"), 2)
}

func TestEnsurePending_ClosedRequestIsConflict(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "acme")
	_, err := f.service.Select(context.Background(), SelectInput{ProposalID: a.ID, OwnerID: "owner-1"})
	require.NoError(t, err)

	_, err = f.service.EnsurePending(context.Background(), "req-1", "globex")
	assertCode(t, err, errors.ErrCodeProposalStateConflict)
	assert.Len(t, f.store.proposalsFor("req-1"), 1)
}
