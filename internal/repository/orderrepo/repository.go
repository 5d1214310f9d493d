package orderrepo

import (
	"context"
	"database/sql"
	"time"

	"gofulfill/internal/domain"
	"gofulfill/internal/errors"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/repository/stockrepo"
)

// OrderRepository persiste o ledger de pedidos no PostgreSQL.
type OrderRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewOrderRepository cria e retorna uma nova instância do Repositório de Pedidos.
func NewOrderRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *OrderRepository {
	return &OrderRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// CommitOrder grava, na mesma transação, o novo nível de estoque do armazém e o registro
// do pedido. Ou ambos ficam no disco, ou nenhum.
func (r *OrderRepository) CommitOrder(ctx context.Context, order domain.OrderRecord, level domain.StockLevel) error {
	r.logger.Debug("Iniciando commit de pedido no repositório.", map[string]interface{}{
		"order_id":     order.ID,
		"warehouse_id": level.WarehouseID,
		"quantity":     level.Quantity,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação do pedido.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Baixa de estoque (quantidade absoluta calculada sob o lock do armazém)
	if err := stockrepo.UpsertStockLevel(ctxTimeout, tx, level); err != nil {
		r.logger.Error("Falha ao gravar baixa de estoque.", err)
		return errors.NewDBError("Falha ao gravar baixa de estoque", err)
	}

	// 2. Registro imutável do pedido
	const insertSQL = `
        INSERT INTO orders (sequence, id, customer, product_id, quantity, warehouse_id, warehouse_city,
                            location, price_per_item, total_cost, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.ExecContext(ctxTimeout, insertSQL,
		order.Sequence,
		order.ID,
		order.Customer,
		order.Product,
		order.Quantity,
		order.Warehouse,
		order.WarehouseCity,
		order.Location,
		order.PricePerItem,
		order.TotalCost,
		order.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pedido.", err)
		return errors.NewDBError("Falha ao inserir pedido", err)
	}

	// 3. Commit
	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação do pedido.", err)
		return errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Pedido persistido com sucesso.", map[string]interface{}{"order_id": order.ID, "sequence": order.Sequence})
	return nil
}

// ListOrders busca o ledger completo em ordem de sequência.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT sequence, id, customer, product_id, quantity, warehouse_id, warehouse_city,
               location, price_per_item, total_cost, created_at
        FROM orders
        ORDER BY sequence`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar ListOrders query.", err)
		return nil, errors.NewDBError("Falha ao buscar pedidos", err)
	}
	defer rows.Close()

	var orders []domain.OrderRecord
	for rows.Next() {
		var o domain.OrderRecord
		err := rows.Scan(
			&o.Sequence, &o.ID, &o.Customer, &o.Product, &o.Quantity, &o.Warehouse, &o.WarehouseCity,
			&o.Location, &o.PricePerItem, &o.TotalCost, &o.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Falha ao mapear pedido na iteração de ListOrders.", err)
			return nil, errors.NewDBError("Falha ao mapear pedidos do DB", err)
		}
		o.CreatedAt = o.CreatedAt.UTC()
		o.Date = o.CreatedAt.Format(domain.OrderDateLayout)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de pedidos.", err)
		return nil, errors.NewDBError("Erro após iteração de pedidos", err)
	}

	r.logger.Debug("ListOrders concluído com sucesso.", map[string]interface{}{"total_orders": len(orders)})
	return orders, nil
}
