// Package repository holds the read side used by the workers: Postgres
// lookups, a Redis cache in front of company reads, and an optional
// Elasticsearch prefilter for match candidates. All proposal writes go
// through internal/proposal.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/models"
	"quote-workers/internal/proposal"
)

// Reader is the read API the workers depend on.
type Reader interface {
	GetRequest(ctx context.Context, id string) (*models.Request, error)
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	GetCompanies(ctx context.Context, ids []string) ([]models.Company, error)
	ListCandidateCompanies(ctx context.Context) ([]models.Company, error)
	ListProposals(ctx context.Context, requestID string) ([]models.Proposal, error)
	GetProposal(ctx context.Context, id string) (*models.Proposal, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetRequest(ctx context.Context, id string) (*models.Request, error) {
	req, err := proposal.ScanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+proposal.RequestColumns+` FROM requests WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewRequestNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_request", err)
	}
	return req, nil
}

func (r *PostgresRepository) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := proposal.ScanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+proposal.CompanyColumns+` FROM companies WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewCompanyNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_company", err)
	}
	return c, nil
}

// GetCompanies loads the given companies in the order of ids. Unknown ids are
// skipped.
func (r *PostgresRepository) GetCompanies(ctx context.Context, ids []string) ([]models.Company, error) {
	if len(ids) == 0 {
		return []models.Company{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposal.CompanyColumns+` FROM companies WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_companies", err)
	}
	byID, err := scanCompanies(rows)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_companies", err)
	}

	out := make([]models.Company, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// ListCandidateCompanies returns every company accepting new projects,
// ordered by id so that ranking ties are deterministic.
func (r *PostgresRepository) ListCandidateCompanies(ctx context.Context) ([]models.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposal.CompanyColumns+` FROM companies WHERE accepts_new_projects = true ORDER BY id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_candidate_companies", err)
	}
	defer rows.Close()

	companies := make([]models.Company, 0)
	for rows.Next() {
		c, err := proposal.ScanCompany(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_candidate_companies", err)
		}
		companies = append(companies, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_candidate_companies", err)
	}
	return companies, nil
}

func (r *PostgresRepository) ListProposals(ctx context.Context, requestID string) ([]models.Proposal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposal.ProposalColumns+` FROM proposals WHERE request_id = $1 ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_proposals", err)
	}
	defer rows.Close()

	proposals := make([]models.Proposal, 0)
	for rows.Next() {
		p, err := proposal.ScanProposal(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list_proposals", err)
		}
		proposals = append(proposals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_proposals", err)
	}
	return proposals, nil
}

func (r *PostgresRepository) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	p, err := proposal.ScanProposal(r.db.QueryRowContext(ctx,
		`SELECT `+proposal.ProposalColumns+` FROM proposals WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewProposalNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_proposal", err)
	}
	return p, nil
}

func scanCompanies(rows *sql.Rows) (map[string]models.Company, error) {
	defer rows.Close()
	out := make(map[string]models.Company)
	for rows.Next() {
		c, err := proposal.ScanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out[c.ID] = *c
	}
	return out, rows.Err()
}
