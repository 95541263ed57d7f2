package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"quote-workers/internal/common/errors"
	"quote-workers/internal/matching"
	"quote-workers/internal/models"
)

// CompanySearch narrows the candidate set with an Elasticsearch query over
// the company index. It only returns ids; scoring always happens on the
// Postgres rows.
type CompanySearch struct {
	client *elasticsearch.Client
	index  string
	size   int
}

func NewCompanySearch(client *elasticsearch.Client, index string, size int) *CompanySearch {
	if size <= 0 {
		size = 200
	}
	return &CompanySearch{client: client, index: index, size: size}
}

// CandidateIDs returns ids of companies accepting new projects that share at
// least one requested tech stack, requested specialty or project-type keyword
// with the request. With nothing to match on, every accepting company
// qualifies up to the configured size.
func (s *CompanySearch) CandidateIDs(ctx context.Context, request models.Request) ([]string, error) {
	body, err := json.Marshal(buildCandidateQuery(request, s.size))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("company_candidates", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{s.index},
		Body:           bytes.NewReader(body),
		SourceIncludes: []string{"id"},
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("company_candidates", fmt.Errorf("status %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string `json:"_id"`
				Source struct {
					ID string `json:"id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchQueryFailedError("company_candidates", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		id := hit.Source.ID
		if id == "" {
			id = hit.ID
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func buildCandidateQuery(request models.Request, size int) map[string]interface{} {
	should := []interface{}{}

	if stacks := lowerAll(request.RequestedTechStacks()); len(stacks) > 0 {
		should = append(should, map[string]interface{}{
			"terms": map[string]interface{}{"tech_stacks": stacks},
		})
	}

	phrases := append(lowerAll(request.RequestedSpecialties()), matching.ProjectTypeKeywords(request.ProjectType)...)
	for _, phrase := range phrases {
		should = append(should, map[string]interface{}{
			"match_phrase": map[string]interface{}{"specialties": phrase},
		})
	}

	boolQuery := map[string]interface{}{
		"filter": []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"accepts_new_projects": true}},
		},
	}
	if len(should) > 0 {
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	return map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort":  []interface{}{"_score", map[string]interface{}{"id": "asc"}},
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
