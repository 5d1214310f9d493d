package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // driver "postgres"
)

// PoolConfig controla o pool de conexões com o PostgreSQL.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DefaultPoolConfig é usado por NewPostgresDB.
var DefaultPoolConfig = PoolConfig{
	MaxOpenConns:    25,
	MaxIdleConns:    10,
	ConnMaxLifetime: 5 * time.Minute,
	ConnMaxIdleTime: 2 * time.Minute,
	PingTimeout:     5 * time.Second,
}

// NewPostgresDB abre o pool com DefaultPoolConfig e verifica a conexão.
func NewPostgresDB(dataSourceName string) (*sql.DB, error) {
	return Open(dataSourceName, DefaultPoolConfig)
}

// Open abre o pool, aplica cfg e faz o ping inicial. Em falha o pool é fechado.
func Open(dataSourceName string, cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao abrir a conexão com o DB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao realizar o ping inicial no DB: %w", err)
	}

	Configure(db, cfg)
	return db, nil
}

// Configure aplica os limites do pool. Cada pedido usa uma transação curta,
// então o pool não precisa passar do limite do servidor.
func Configure(db *sql.DB, cfg PoolConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}
