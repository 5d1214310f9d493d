package orderservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gofulfill/internal/allocator"
	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/inventory"
	"gofulfill/internal/ledger"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/metrics"
)

// OrderRepository define o contrato que o Serviço de Pedidos espera da camada de Persistência.
type OrderRepository interface {
	CommitOrder(ctx context.Context, order domain.OrderRecord, level domain.StockLevel) error
	ListOrders(ctx context.Context) ([]domain.OrderRecord, error)
}

// CatalogSource fornece o snapshot corrente do catálogo.
type CatalogSource interface {
	Snapshot() *domain.Catalog
}

// Options controla as novas tentativas de PlaceOrder.
type Options struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// Service orquestra alocação, baixa de estoque e registro no ledger.
type Service struct {
	repo      OrderRepository
	catalog   CatalogSource
	inventory *inventory.Store
	ledger    *ledger.Ledger
	opts      Options
	logger    logger.Logger
	newID     func() string
}

// NewService cria e retorna uma nova instância do Serviço de Pedidos.
func NewService(repo OrderRepository, catalog CatalogSource, inv *inventory.Store, l *ledger.Ledger, opts Options, logger logger.Logger) *Service {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Service{
		repo:      repo,
		catalog:   catalog,
		inventory: inv,
		ledger:    l,
		opts:      opts,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}
}

// RestoreLedger carrega no ledger em memória os pedidos já persistidos.
func (s *Service) RestoreLedger(ctx context.Context) error {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		s.logger.Error("Falha ao restaurar ledger do repositório.", err)
		return err
	}
	s.ledger.Restore(orders)
	return nil
}

// Quote retorna o armazém que atenderia o pedido agora, sem reservar estoque.
func (s *Service) Quote(ctx context.Context, city, product string, quantity int) (domain.Allocation, error) {
	req := allocator.Request{City: strings.TrimSpace(city), Product: strings.TrimSpace(product), Quantity: quantity}

	alloc, found, err := allocator.Allocate(s.catalog.Snapshot(), s.inventory.Snapshot(), req)
	if err != nil {
		return domain.Allocation{}, err
	}
	if !found {
		return domain.Allocation{}, outOfStock(req)
	}

	s.logger.Debug("Cotação de alocação calculada.", map[string]interface{}{
		"city":         req.City,
		"product_id":   req.Product,
		"quantity":     req.Quantity,
		"warehouse_id": alloc.WarehouseID,
		"score":        alloc.Score.String(),
	})
	return alloc, nil
}

// PlaceOrder aloca o pedido, baixa o estoque do armazém escolhido e registra o pedido no ledger.
// Baixa e registro são gravados juntos: em caso de falha nada muda.
func (s *Service) PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Placement, error) {
	start := time.Now()
	placement, outcome, err := s.placeOrder(ctx, req)
	metrics.RecordPlacement(outcome, time.Since(start))
	return placement, err
}

func (s *Service) placeOrder(ctx context.Context, req domain.OrderRequest) (domain.Placement, string, error) {
	customer := strings.TrimSpace(req.Customer)
	s.logger.Debug("Iniciando PlaceOrder no serviço.", map[string]interface{}{
		"customer":   customer,
		"city":       req.City,
		"product_id": req.Product,
		"quantity":   req.Quantity,
	})

	if customer == "" {
		return domain.Placement{}, "invalid", apperror.NewValidationError("O nome do cliente é obrigatório.")
	}
	if req.Quantity < 1 {
		return domain.Placement{}, "invalid", apperror.NewValidationError("A quantidade deve ser um inteiro positivo.")
	}

	// Preço e alocação vêm do mesmo snapshot do catálogo.
	c := s.catalog.Snapshot()
	areq := allocator.Request{City: strings.TrimSpace(req.City), Product: strings.TrimSpace(req.Product), Quantity: req.Quantity}

	var lastErr error
	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		alloc, found, err := allocator.Allocate(c, s.inventory.Snapshot(), areq)
		if err != nil {
			return domain.Placement{}, "invalid", err
		}
		if !found {
			return domain.Placement{}, "out_of_stock", outOfStock(areq)
		}

		order, err := s.commit(ctx, customer, areq, alloc)
		if err == nil {
			metrics.RecordOrderPlaced(order.Warehouse, order.Product, order.Quantity)
			s.logger.Info("Pedido realizado com sucesso.", map[string]interface{}{
				"order_id":     order.ID,
				"sequence":     order.Sequence,
				"warehouse_id": order.Warehouse,
				"total_cost":   order.TotalCost.String(),
				"attempt":      attempt,
			})
			return domain.Placement{
				Message: fmt.Sprintf("Pedido realizado a partir de %s (%s).", order.Warehouse, order.WarehouseCity),
				Order:   order,
			}, "placed", nil
		}

		lastErr = err
		switch {
		case apperror.IsOutOfStock(err):
			// Outro pedido levou o estoque entre a alocação e o lock: realoca.
			s.logger.Debug("Revalidação falhou; realocando.", map[string]interface{}{"warehouse_id": alloc.WarehouseID, "attempt": attempt})
		case apperror.IsBusy(err):
			s.logger.Warn("Armazém ou ledger ocupado; nova tentativa.", map[string]interface{}{"warehouse_id": alloc.WarehouseID, "attempt": attempt})
			if attempt < s.opts.MaxAttempts {
				if werr := s.wait(ctx); werr != nil {
					return domain.Placement{}, "busy", apperror.NewBusyError(fmt.Sprintf("pedido interrompido: %v", werr))
				}
			}
		default:
			s.logger.Error("Falha ao registrar pedido.", err)
			return domain.Placement{}, "error", err
		}
	}

	if apperror.IsBusy(lastErr) {
		return domain.Placement{}, "busy", lastErr
	}
	return domain.Placement{}, "out_of_stock", apperror.NewOutOfStockError(
		fmt.Sprintf("nenhum armazém conseguiu reservar %d unidade(s) de %s após %d tentativa(s).", areq.Quantity, areq.Product, s.opts.MaxAttempts))
}

// commit baixa o estoque sob o lock do armazém e, ainda com o lock, anexa o pedido ao ledger.
// O repositório grava o novo nível e o pedido numa única transação.
func (s *Service) commit(ctx context.Context, customer string, req allocator.Request, alloc domain.Allocation) (domain.OrderRecord, error) {
	var placed domain.OrderRecord

	_, err := s.inventory.Adjust(ctx, alloc.WarehouseID, req.Product, -req.Quantity, func(ctx context.Context, level domain.StockLevel) error {
		rec := domain.OrderRecord{
			ID:            s.newID(),
			Customer:      customer,
			Product:       req.Product,
			Quantity:      req.Quantity,
			Warehouse:     alloc.WarehouseID,
			WarehouseCity: alloc.WarehouseCity,
			Location:      req.City,
			PricePerItem:  alloc.UnitPrice,
			TotalCost:     alloc.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		}
		appended, err := s.ledger.Append(ctx, rec, func(ctx context.Context, r domain.OrderRecord) error {
			return s.repo.CommitOrder(ctx, r, level)
		})
		if err != nil {
			return err
		}
		placed = appended
		return nil
	})
	return placed, err
}

func (s *Service) wait(ctx context.Context) error {
	if s.opts.RetryBackoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.opts.RetryBackoff)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ListOrders retorna o ledger completo em ordem de inserção.
func (s *Service) ListOrders(ctx context.Context) ([]domain.OrderRecord, error) {
	orders := s.ledger.List()
	s.logger.Debug("ListOrders concluído.", map[string]interface{}{"total_orders": len(orders)})
	return orders, nil
}

func outOfStock(req allocator.Request) error {
	return apperror.NewOutOfStockError(fmt.Sprintf("nenhum armazém tem %d unidade(s) de %s para atender %s.", req.Quantity, req.Product, req.City))
}
