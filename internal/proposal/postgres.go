package proposal

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/models"
)

// SQLSTATE codes
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// PostgresStore implements Store on database/sql with the lib/pq driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.NewTransactionFailedError("begin", err)
	}

	if err := fn(&pgTx{tx: sqlTx}); err != nil {
		_ = sqlTx.Rollback()
		return classifyTxError("execute", err)
	}

	if err := sqlTx.Commit(); err != nil {
		return classifyTxError("commit", err)
	}
	return nil
}

// classifyTxError keeps business errors as they are and turns everything
// else into a transaction failure. Unique violations mean a concurrent writer
// got there first, which the caller sees as a state conflict.
func classifyTxError(op string, err error) error {
	if _, ok := errors.AsStandardError(err); ok {
		return err
	}

	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return errors.NewStateConflictError(fmt.Sprintf("concurrent write on %s: %s", pqErr.Table, pqErr.Message))
		case pqSerializationFailure, pqDeadlockDetected:
			return errors.NewTransactionFailedError(op, err)
		}
	}
	return errors.NewTransactionFailedError(op, err)
}

type pgTx struct {
	tx *sql.Tx
}

// RequestColumns is the column list ScanRequest expects.
const RequestColumns = `id, owner_id, title, project_type, budget_min, budget_max, requirements, status, created_at`

func (t *pgTx) GetRequestForUpdate(ctx context.Context, id string) (*models.Request, error) {
	row := t.tx.QueryRowContext(ctx, `SELECT `+RequestColumns+` FROM requests WHERE id = $1 FOR UPDATE`, id)
	req, err := ScanRequest(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewRequestNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (t *pgTx) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	c, err := ScanCompany(t.tx.QueryRowContext(ctx, `SELECT `+CompanyColumns+` FROM companies WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewCompanyNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}
	return c, nil
}

// ProposalColumns is the column list ScanProposal expects.
const ProposalColumns = `id, request_id, company_id, estimated_cost, estimated_duration, content, attachments,
	status, responded_at, selected_at, created_at, updated_at`

func (t *pgTx) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	return t.getProposal(ctx, `SELECT `+ProposalColumns+` FROM proposals WHERE id = $1`, id)
}

func (t *pgTx) GetProposalForUpdate(ctx context.Context, id string) (*models.Proposal, error) {
	return t.getProposal(ctx, `SELECT `+ProposalColumns+` FROM proposals WHERE id = $1 FOR UPDATE`, id)
}

func (t *pgTx) getProposal(ctx context.Context, query, id string) (*models.Proposal, error) {
	p, err := ScanProposal(t.tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewProposalNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (t *pgTx) GetProposalByPairForUpdate(ctx context.Context, requestID, companyID string) (*models.Proposal, error) {
	p, err := ScanProposal(t.tx.QueryRowContext(ctx,
		`SELECT `+ProposalColumns+` FROM proposals WHERE request_id = $1 AND company_id = $2 FOR UPDATE`,
		requestID, companyID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal by pair: %w", err)
	}
	return p, nil
}

func (t *pgTx) InsertProposal(ctx context.Context, p *models.Proposal) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO proposals (id, request_id, company_id, estimated_cost, estimated_duration, content, attachments,
		                        status, responded_at, selected_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (request_id, company_id) DO NOTHING`,
		p.ID, p.RequestID, p.CompanyID, nullInt64(p.EstimatedCost), p.EstimatedDuration, p.Content,
		pq.Array(p.Attachments), string(p.Status), p.RespondedAt, p.SelectedAt, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert proposal: %w", err)
	}
	return affected(res)
}

func (t *pgTx) UpdateProposalSubmission(ctx context.Context, p *models.Proposal, expected models.ProposalStatus) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE proposals
		 SET estimated_cost = $1, estimated_duration = $2, content = $3, attachments = $4,
		     status = $5, responded_at = $6, updated_at = $7
		 WHERE id = $8 AND status = $9`,
		nullInt64(p.EstimatedCost), p.EstimatedDuration, p.Content, pq.Array(p.Attachments),
		string(p.Status), p.RespondedAt, p.UpdatedAt, p.ID, string(expected),
	)
	if err != nil {
		return false, fmt.Errorf("update proposal submission: %w", err)
	}
	return affected(res)
}

func (t *pgTx) UpdateProposalStatus(ctx context.Context, id string, from, to models.ProposalStatus, at time.Time) (bool, error) {
	var selectedAt *time.Time
	if to == models.ProposalStatusSelected {
		selectedAt = &at
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE proposals
		 SET status = $1, selected_at = COALESCE($2, selected_at), updated_at = $3
		 WHERE id = $4 AND status = $5`,
		string(to), selectedAt, at, id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update proposal status: %w", err)
	}
	return affected(res)
}

func (t *pgTx) RejectSiblings(ctx context.Context, requestID, exceptID string, at time.Time) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx,
		`UPDATE proposals
		 SET status = 'REJECTED', updated_at = $1
		 WHERE request_id = $2 AND id <> $3 AND status IN ('PENDING', 'RESPONDED')
		 RETURNING id`,
		at, requestID, exceptID,
	)
	if err != nil {
		return nil, fmt.Errorf("reject siblings: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("reject siblings scan: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reject siblings rows: %w", err)
	}
	return ids, nil
}

func (t *pgTx) CloseRequest(ctx context.Context, requestID string) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE requests SET status = 'CLOSED' WHERE id = $1 AND status = 'PUBLISHED'`,
		requestID,
	)
	if err != nil {
		return false, fmt.Errorf("close request: %w", err)
	}
	return affected(res)
}

// ─── Scanning ────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...interface{}) error
}

// ScanRequest scans a row selected with RequestColumns.
func ScanRequest(row scanner) (*models.Request, error) {
	var (
		r            models.Request
		title        sql.NullString
		budgetMin    sql.NullInt64
		budgetMax    sql.NullInt64
		requirements []byte
		projectType  string
		status       string
	)
	if err := row.Scan(&r.ID, &r.OwnerID, &title, &projectType, &budgetMin, &budgetMax, &requirements, &status, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Title = title.String
	r.ProjectType = models.ProjectType(projectType)
	r.Status = models.RequestStatus(status)
	r.BudgetMin = int64Ptr(budgetMin)
	r.BudgetMax = int64Ptr(budgetMax)
	if len(requirements) > 0 && string(requirements) != "null" {
		var req models.Requirements
		if err := json.Unmarshal(requirements, &req); err != nil {
			return nil, fmt.Errorf("decode requirements: %w", err)
		}
		r.Requirements = &req
	}
	return &r, nil
}

// CompanyColumns is the column list ScanCompany expects.
const CompanyColumns = `id, name, email, phone, is_verified, accepts_new_projects, average_rating, review_count,
	tech_stacks, specialties`

// ScanCompany scans a row selected with CompanyColumns.
func ScanCompany(row scanner) (*models.Company, error) {
	var (
		c     models.Company
		email sql.NullString
		phone sql.NullString
	)
	if err := row.Scan(
		&c.ID, &c.Name, &email, &phone, &c.IsVerified, &c.AcceptsNewProjects, &c.AverageRating, &c.ReviewCount,
		pq.Array(&c.TechStacks), pq.Array(&c.Specialties),
	); err != nil {
		return nil, err
	}
	c.Email, c.Phone = email.String, phone.String
	return &c, nil
}

// ScanProposal scans a row selected with ProposalColumns.
func ScanProposal(row scanner) (*models.Proposal, error) {
	var (
		p           models.Proposal
		cost        sql.NullInt64
		duration    sql.NullString
		content     sql.NullString
		status      string
		respondedAt sql.NullTime
		selectedAt  sql.NullTime
	)
	if err := row.Scan(
		&p.ID, &p.RequestID, &p.CompanyID, &cost, &duration, &content, pq.Array(&p.Attachments),
		&status, &respondedAt, &selectedAt, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.EstimatedCost = int64Ptr(cost)
	p.EstimatedDuration = duration.String
	p.Content = content.String
	p.Status = models.ProposalStatus(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		p.RespondedAt = &t
	}
	if selectedAt.Valid {
		t := selectedAt.Time
		p.SelectedAt = &t
	}
	return &p, nil
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
