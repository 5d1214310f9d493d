package database_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofulfill/internal/pkg/database"
)

func TestConfigure_AppliesPoolLimits(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	database.Configure(db, database.PoolConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetime: time.Minute, ConnMaxIdleTime: time.Second})

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestOpen_FailsFastOnUnreachableServer(t *testing.T) {
	cfg := database.DefaultPoolConfig
	cfg.PingTimeout = 200 * time.Millisecond

	_, err := database.Open("postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1", cfg)
	assert.Error(t, err)
}
