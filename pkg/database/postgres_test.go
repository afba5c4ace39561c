package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deisterstuff/investment/pkg/config"
)

func integrationConfig(t *testing.T) *config.Config {
	t.Helper()
	url := os.Getenv("DATABASE_URL")
	if url == "" || testing.Short() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	return &config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 4}}
}

func TestNew_NotConfigured(t *testing.T) {
	_, err := New(context.Background(), &config.Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			URL:             "invalid://url",
			MaxConns:        5,
			MaxConnLifetime: time.Hour,
		},
	}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestClose_Nil(t *testing.T) {
	var db *DB
	assert.NotPanics(t, db.Close)
}

func TestHealthCheck(t *testing.T) {
	cfg := integrationConfig(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := New(ctx, cfg)
	require.NoError(t, err)
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
	assert.Equal(t, int32(4), status.Stats.MaxConns)

	db.Close()
	assert.NotPanics(t, db.Close)
}
