package database

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quote-workers/internal/common/config"
	apperrors "quote-workers/internal/common/errors"
	"quote-workers/internal/common/logger"
)

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer client.Close()

	require.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := config.PostgresConfig{
		Host: "db", Port: 5432, User: "quotes", Password: "pw", Database: "quotes", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=quotes password=pw dbname=quotes sslmode=disable", cfg.GetDSN())
}

func TestConnect_GivesUpWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cfg := config.PostgresConfig{
		Host: "127.0.0.1", Port: 1, User: "u", Database: "d", SSLMode: "disable",
		MaxConnections: 1, MaxIdle: 1, ConnectRetries: 10,
	}

	_, err := Connect(ctx, cfg, logger.NewTestLogger(t))
	assert.Error(t, err)
}

func TestNewElasticsearch(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{
		Addresses: []string{"http://localhost:9200"}, CompanyIndex: "companies",
	})
	require.NoError(t, err)
	assert.NotNil(t, client.Client)
	assert.Equal(t, "companies", client.Index)
}

func TestElasticsearch_PingUnreachable(t *testing.T) {
	client, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://127.0.0.1:1"}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err = client.Ping(ctx)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, &apperrors.StandardError{Code: apperrors.ErrCodeElasticsearchConnectionFailed}))
}

func TestNewRedis_PoolDefaults(t *testing.T) {
	client := NewRedis(config.RedisConfig{Address: "localhost:6379"})
	defer client.Close()
	assert.Equal(t, defaultRedisPoolSize, client.Client.Options().PoolSize)

	sized := NewRedis(config.RedisConfig{Address: "localhost:6379", PoolSize: 3, MinIdleConns: 1})
	defer sized.Close()
	assert.Equal(t, 3, sized.Client.Options().PoolSize)
	assert.Equal(t, 1, sized.Client.Options().MinIdleConns)
}
