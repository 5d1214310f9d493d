package stockrepo

import (
	"context"
	"database/sql"
	"time"

	"gofulfill/internal/domain"
	"gofulfill/internal/errors"
	"gofulfill/internal/pkg/logger"
)

// Execer é o subconjunto de *sql.DB / *sql.Tx usado para gravar níveis de estoque,
// permitindo que outra transação (e.g., a do pedido) reutilize o mesmo upsert.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const upsertStockSQL = `
        INSERT INTO stock_levels (warehouse_id, product_id, quantity, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $5)
        ON CONFLICT (warehouse_id, product_id)
        DO UPDATE SET quantity = EXCLUDED.quantity, version = EXCLUDED.version, updated_at = EXCLUDED.updated_at`

const seedStockSQL = `
        INSERT INTO stock_levels (warehouse_id, product_id, quantity, version, created_at, updated_at)
        VALUES ($1, $2, $3, 1, $4, $4)
        ON CONFLICT (warehouse_id, product_id) DO NOTHING`

// UpsertStockLevel grava a quantidade absoluta e a versão do armazém no nível de estoque.
// A versão é a do inventário em memória, para que um restart a retome do disco.
func UpsertStockLevel(ctx context.Context, exec Execer, level domain.StockLevel) error {
	updatedAt := level.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := exec.ExecContext(ctx, upsertStockSQL, level.WarehouseID, level.ProductID, level.Quantity, level.Version, updatedAt)
	return err
}

// StockRepository persiste os níveis de estoque no PostgreSQL.
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// SeedStockLevels insere o estoque inicial do catálogo sem sobrescrever linhas existentes.
func (r *StockRepository) SeedStockLevels(ctx context.Context, levels []domain.StockLevel) error {
	r.logger.Debug("Semeando níveis de estoque.", map[string]interface{}{"levels": len(levels)})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de seed.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, level := range levels {
		if _, err := tx.ExecContext(ctxTimeout, seedStockSQL, level.WarehouseID, level.ProductID, level.Quantity, now); err != nil {
			r.logger.Error("Falha ao semear nível de estoque.", err)
			return errors.NewDBError("Falha ao semear estoque", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar seed de estoque.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}
	return nil
}

// ListStockLevels busca todos os níveis de estoque persistidos.
func (r *StockRepository) ListStockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT warehouse_id, product_id, quantity, version, updated_at
        FROM stock_levels
        ORDER BY warehouse_id, product_id`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar ListStockLevels query.", err)
		return nil, errors.NewDBError("Falha ao buscar níveis de estoque", err)
	}
	defer rows.Close()

	var levels []domain.StockLevel
	for rows.Next() {
		var sl domain.StockLevel
		if err := rows.Scan(&sl.WarehouseID, &sl.ProductID, &sl.Quantity, &sl.Version, &sl.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear nível de estoque.", err)
			return nil, errors.NewDBError("Falha ao mapear níveis de estoque do DB", err)
		}
		levels = append(levels, sl)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração dos níveis de estoque.", err)
		return nil, errors.NewDBError("Erro após iteração de estoque", err)
	}

	r.logger.Debug("Níveis de estoque carregados.", map[string]interface{}{"levels": len(levels)})
	return levels, nil
}

// SaveStockLevel grava o novo nível de estoque (usado pela reposição).
func (r *StockRepository) SaveStockLevel(ctx context.Context, level domain.StockLevel) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if err := UpsertStockLevel(ctxTimeout, r.DB, level); err != nil {
		r.logger.Error("Falha ao gravar nível de estoque.", err)
		return errors.NewDBError("Falha ao gravar estoque", err)
	}

	r.logger.Info("Nível de estoque gravado.", map[string]interface{}{
		"warehouse_id": level.WarehouseID,
		"product_id":   level.ProductID,
		"quantity":     level.Quantity,
	})
	return nil
}
