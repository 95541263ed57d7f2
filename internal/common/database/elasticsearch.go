// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"

	"quote-workers/internal/common/config"
	"quote-workers/internal/common/errors"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient holds the client for the company search index.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses:  cfg.Addresses,
		MaxRetries: cfg.MaxRetries,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}

	return &ElasticsearchClient{Client: es, Index: cfg.CompanyIndex}, nil
}

// Ping checks the cluster and, when Index is set, that the company index exists.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewElasticsearchConnectionFailedError(fmt.Errorf("ping: %s", res.Status()))
	}

	if c.Index == "" {
		return nil
	}
	exists, err := c.Client.Indices.Exists([]string{c.Index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer exists.Body.Close()
	if exists.IsError() {
		return errors.NewElasticsearchConnectionFailedError(fmt.Errorf("index %s: %s", c.Index, exists.Status()))
	}
	return nil
}
