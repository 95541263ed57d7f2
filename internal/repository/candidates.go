package repository

import (
	"context"

	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

const (
	SourcePostgres      = "postgres"
	SourceElasticsearch = "elasticsearch"
)

// CandidateSource supplies the companies a request is matched against.
type CandidateSource interface {
	Candidates(ctx context.Context, request models.Request) ([]models.Company, error)
	Name() string
}

// AllCandidates scores every company accepting new projects.
type AllCandidates struct {
	reader Reader
}

func NewAllCandidates(reader Reader) *AllCandidates {
	return &AllCandidates{reader: reader}
}

func (a *AllCandidates) Candidates(ctx context.Context, _ models.Request) ([]models.Company, error) {
	return a.reader.ListCandidateCompanies(ctx)
}

func (a *AllCandidates) Name() string { return SourcePostgres }

// SearchCandidates prefilters with Elasticsearch and hydrates the hits from
// the reader, so scores are computed on authoritative rows.
//
// The prefilter only keeps companies sharing a requested stack, specialty or
// keyword. It is used only when a company outside that set cannot reach
// minScore and the hit list was not cut at the search size; otherwise every
// accepting company is read from the reader.
type SearchCandidates struct {
	search   *CompanySearch
	reader   Reader
	minScore int
}

func NewSearchCandidates(search *CompanySearch, reader Reader, minScore int) *SearchCandidates {
	return &SearchCandidates{search: search, reader: reader, minScore: minScore}
}

func (s *SearchCandidates) Candidates(ctx context.Context, request models.Request) ([]models.Company, error) {
	if !s.Prefilters(request) {
		return s.reader.ListCandidateCompanies(ctx)
	}

	ids, err := s.search.CandidateIDs(ctx, request)
	if err != nil {
		return nil, err
	}
	if len(ids) >= s.search.size {
		return s.reader.ListCandidateCompanies(ctx)
	}
	return s.reader.GetCompanies(ctx, ids)
}

// Prefilters reports whether the search result can stand in for the full
// candidate list for request.
func (s *SearchCandidates) Prefilters(request models.Request) bool {
	return matching.NoStackOverlapCeiling(request) < s.minScore
}

func (s *SearchCandidates) Name() string { return SourceElasticsearch }
