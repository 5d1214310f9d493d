package stockservice

import (
	"context"
	"fmt"
	"strings"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/inventory"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/metrics"
)

// StockRepository define o contrato que o Serviço de Estoque espera da camada de Persistência.
type StockRepository interface {
	SeedStockLevels(ctx context.Context, levels []domain.StockLevel) error
	ListStockLevels(ctx context.Context) ([]domain.StockLevel, error)
	SaveStockLevel(ctx context.Context, level domain.StockLevel) error
}

// CatalogSource fornece o snapshot corrente do catálogo.
type CatalogSource interface {
	Snapshot() *domain.Catalog
}

// Service concentra a reposição e a carga do estoque dos armazéns.
type Service struct {
	repo      StockRepository
	catalog   CatalogSource
	inventory *inventory.Store
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Estoque.
func NewService(repo StockRepository, catalog CatalogSource, inv *inventory.Store, logger logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, inventory: inv, logger: logger}
}

// Restock soma quantity ao estoque de product no armazém. O novo nível é gravado
// no repositório antes de ficar visível; nenhum registro vai para o ledger.
func (s *Service) Restock(ctx context.Context, warehouseID string, req domain.RestockRequest) (domain.RestockResult, error) {
	warehouseID = strings.TrimSpace(warehouseID)
	product := strings.TrimSpace(req.ProductID)
	s.logger.Debug("Iniciando reposição de estoque no serviço.", map[string]interface{}{
		"warehouse_id": warehouseID,
		"product_id":   product,
		"quantity":     req.Quantity,
	})

	c := s.catalog.Snapshot()
	if _, declared := c.Warehouse(warehouseID); !declared || !s.inventory.Has(warehouseID) {
		return domain.RestockResult{}, apperror.NewNotFoundError(fmt.Sprintf("Armazém %s não encontrado.", warehouseID))
	}
	if req.Quantity < 1 {
		return domain.RestockResult{}, apperror.NewValidationError("A quantidade de reposição deve ser um inteiro positivo.")
	}
	if !c.HasProduct(product) {
		return domain.RestockResult{}, apperror.NewValidationError(fmt.Sprintf("Produto %s não existe no catálogo.", product))
	}

	level, err := s.inventory.Adjust(ctx, warehouseID, product, req.Quantity, s.repo.SaveStockLevel)
	if err != nil {
		s.logger.Error("Falha ao repor estoque.", err)
		return domain.RestockResult{}, err
	}

	metrics.RecordRestock(warehouseID)
	s.logger.Info("Estoque reposto com sucesso.", map[string]interface{}{
		"warehouse_id": warehouseID,
		"product_id":   product,
		"new_quantity": level.Quantity,
		"new_version":  level.Version,
	})
	return domain.RestockResult{
		Message: fmt.Sprintf("%d unidade(s) de %s adicionada(s) ao armazém %s. Estoque atual: %d.", req.Quantity, product, warehouseID, level.Quantity),
		Stock:   level,
	}, nil
}

// ListWarehouseStock retorna a visão atual (cidade + estoque) dos armazéns do catálogo vigente.
func (s *Service) ListWarehouseStock(ctx context.Context) ([]domain.WarehouseStock, error) {
	return s.catalog.Snapshot().Reconcile(s.inventory.Snapshot()), nil
}

// LoadInventory semeia no repositório o estoque inicial dos armazéns do catálogo que
// ainda não estão no inventário, lê o estoque persistido e registra esses armazéns.
// Armazéns já registrados mantêm o estoque vivo. Retorna quantos foram registrados.
func (s *Service) LoadInventory(ctx context.Context, c *domain.Catalog) (int, error) {
	var pending []domain.Warehouse
	var seed []domain.StockLevel
	for _, wh := range c.Warehouses {
		if s.inventory.Has(wh.ID) {
			continue
		}
		pending = append(pending, wh)
		for product, qty := range wh.Stock {
			seed = append(seed, domain.StockLevel{WarehouseID: wh.ID, ProductID: product, Quantity: qty})
		}
	}
	if len(pending) == 0 {
		return 0, nil
	}

	if len(seed) > 0 {
		if err := s.repo.SeedStockLevels(ctx, seed); err != nil {
			return 0, err
		}
	}

	levels, err := s.repo.ListStockLevels(ctx)
	if err != nil {
		return 0, err
	}

	stockByWarehouse := make(map[string]map[string]int)
	versionByWarehouse := make(map[string]int64)
	for _, l := range levels {
		if _, known := c.Warehouse(l.WarehouseID); !known {
			s.logger.Warn("Estoque persistido de armazém fora do catálogo ignorado.", map[string]interface{}{
				"warehouse_id": l.WarehouseID,
				"product_id":   l.ProductID,
			})
			continue
		}
		if stockByWarehouse[l.WarehouseID] == nil {
			stockByWarehouse[l.WarehouseID] = make(map[string]int)
		}
		stockByWarehouse[l.WarehouseID][l.ProductID] = l.Quantity
		// A versão do armazém é a maior entre suas linhas.
		if l.Version > versionByWarehouse[l.WarehouseID] {
			versionByWarehouse[l.WarehouseID] = l.Version
		}
	}

	registered := 0
	for _, wh := range pending {
		if s.inventory.Register(wh.ID, wh.City, stockByWarehouse[wh.ID], versionByWarehouse[wh.ID]) {
			registered++
		}
	}

	s.logger.Info("Inventário carregado.", map[string]interface{}{"registered": registered, "stock_rows": len(levels)})
	return registered, nil
}
