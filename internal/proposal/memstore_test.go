package proposal

import (
	"context"
	"sort"
	"sync"
	"time"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/models"
)

// memStore is an in-memory Store. Each WithTx runs under one mutex against a
// copy of the data and publishes the copy only when fn succeeds.
type memStore struct {
	mu        sync.Mutex
	requests  map[string]models.Request
	companies map[string]models.Company
	proposals map[string]models.Proposal

	// failOn makes the named Tx method return failErr.
	failOn    string
	failErr   error
	commitErr error
}

func newMemStore() *memStore {
	return &memStore{
		requests:  map[string]models.Request{},
		companies: map[string]models.Company{},
		proposals: map[string]models.Proposal{},
	}
}

func (m *memStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		store:     m,
		requests:  make(map[string]models.Request, len(m.requests)),
		proposals: make(map[string]models.Proposal, len(m.proposals)),
	}
	for k, v := range m.requests {
		tx.requests[k] = v
	}
	for k, v := range m.proposals {
		tx.proposals[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}
	if m.commitErr != nil {
		return errors.NewTransactionFailedError("commit", m.commitErr)
	}

	m.requests = tx.requests
	m.proposals = tx.proposals
	return nil
}

func (m *memStore) proposal(id string) models.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.proposals[id]
}

func (m *memStore) request(id string) models.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id]
}

func (m *memStore) proposalsFor(requestID string) []models.Proposal {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Proposal
	for _, p := range m.proposals {
		if p.RequestID == requestID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memTx struct {
	store     *memStore
	requests  map[string]models.Request
	proposals map[string]models.Proposal
}

func (t *memTx) injected(method string) error {
	if t.store.failOn == method {
		return t.store.failErr
	}
	return nil
}

func (t *memTx) GetRequestForUpdate(_ context.Context, id string) (*models.Request, error) {
	if err := t.injected("GetRequestForUpdate"); err != nil {
		return nil, err
	}
	r, ok := t.requests[id]
	if !ok {
		return nil, errors.NewRequestNotFoundError(id)
	}
	return &r, nil
}

func (t *memTx) GetCompany(_ context.Context, id string) (*models.Company, error) {
	c, ok := t.store.companies[id]
	if !ok {
		return nil, errors.NewCompanyNotFoundError(id)
	}
	return &c, nil
}

func (t *memTx) GetProposal(_ context.Context, id string) (*models.Proposal, error) {
	p, ok := t.proposals[id]
	if !ok {
		return nil, errors.NewProposalNotFoundError(id)
	}
	return &p, nil
}

func (t *memTx) GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return t.GetProposal(ctx, id)
}

func (t *memTx) GetProposalByPairForUpdate(_ context.Context, requestID, companyID string) (*models.Proposal, error) {
	for _, p := range t.proposals {
		if p.RequestID == requestID && p.CompanyID == companyID {
			return &p, nil
		}
	}
	return nil, nil
}

func (t *memTx) InsertProposal(_ context.Context, p *models.Proposal) (bool, error) {
	if err := t.injected("InsertProposal"); err != nil {
		return false, err
	}
	for _, existing := range t.proposals {
		if existing.RequestID == p.RequestID && existing.CompanyID == p.CompanyID {
			return false, nil
		}
	}
	t.proposals[p.ID] = *p
	return true, nil
}

func (t *memTx) UpdateProposalSubmission(_ context.Context, p *models.Proposal, expected models.ProposalStatus) (bool, error) {
	current, ok := t.proposals[p.ID]
	if !ok || current.Status != expected {
		return false, nil
	}
	t.proposals[p.ID] = *p
	return true, nil
}

func (t *memTx) UpdateProposalStatus(_ context.Context, id string, from, to models.ProposalStatus, at time.Time) (bool, error) {
	if err := t.injected("UpdateProposalStatus"); err != nil {
		return false, err
	}
	p, ok := t.proposals[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = at
	if to == models.ProposalStatusSelected {
		p.SelectedAt = &at
	}
	t.proposals[id] = p
	return true, nil
}

func (t *memTx) RejectSiblings(_ context.Context, requestID, exceptID string, at time.Time) ([]string, error) {
	if err := t.injected("RejectSiblings"); err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	for id, p := range t.proposals {
		if p.RequestID != requestID || id == exceptID || !isSiblingRejectable(p.Status) {
			continue
		}
		p.Status = models.ProposalStatusRejected
		p.UpdatedAt = at
		t.proposals[id] = p
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (t *memTx) CloseRequest(_ context.Context, requestID string) (bool, error) {
	if err := t.injected("CloseRequest"); err != nil {
		return false, err
	}
	r, ok := t.requests[requestID]
	if !ok || r.Status != models.RequestStatusPublished {
		return false, nil
	}
	r.Status = models.RequestStatusClosed
	t.requests[requestID] = r
	return true, nil
}
