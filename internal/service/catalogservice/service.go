package catalogservice

import (
	"context"

	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/logger"
)

// CatalogStore é a fonte do snapshot do catálogo e da sua recarga.
type CatalogStore interface {
	Snapshot() *domain.Catalog
	Reload() (*domain.Catalog, error)
}

// InventoryLoader registra no inventário os armazéns que ainda não estão nele.
type InventoryLoader interface {
	LoadInventory(ctx context.Context, c *domain.Catalog) (int, error)
}

// Service expõe o catálogo somente para leitura. Cada chamada lê um único snapshot.
type Service struct {
	store     CatalogStore
	inventory InventoryLoader
	logger    logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Catálogo.
func NewService(store CatalogStore, inv InventoryLoader, logger logger.Logger) *Service {
	return &Service{store: store, inventory: inv, logger: logger}
}

// ListProducts lista os produtos na ordem do catálogo.
func (s *Service) ListProducts(ctx context.Context) ([]string, error) {
	return s.store.Snapshot().ProductIDs(), nil
}

// ListCities lista as cidades conhecidas pela tabela de distâncias.
func (s *Service) ListCities(ctx context.Context) ([]string, error) {
	return s.store.Snapshot().CityIDs(), nil
}

// ListWarehouses lista os IDs dos armazéns em ordem lexicográfica.
func (s *Service) ListWarehouses(ctx context.Context) ([]string, error) {
	return s.store.Snapshot().WarehouseIDs(), nil
}

// Summary devolve as três listagens do mesmo snapshot.
func (s *Service) Summary(ctx context.Context) (domain.CatalogSummary, error) {
	c := s.store.Snapshot()
	return domain.CatalogSummary{
		Products:   c.ProductIDs(),
		Cities:     c.CityIDs(),
		Warehouses: c.WarehouseIDs(),
	}, nil
}

// Reload relê o catálogo e registra no inventário os armazéns novos.
// Se o arquivo for inválido, o snapshot anterior continua em uso.
func (s *Service) Reload(ctx context.Context) (domain.CatalogSummary, error) {
	c, err := s.store.Reload()
	if err != nil {
		return domain.CatalogSummary{}, err
	}

	added, err := s.inventory.LoadInventory(ctx, c)
	if err != nil {
		s.logger.Error("Catálogo recarregado, mas falhou ao registrar armazéns novos.", err)
		return domain.CatalogSummary{}, err
	}

	s.logger.Info("Recarga do catálogo concluída.", map[string]interface{}{"new_warehouses": added})
	return domain.CatalogSummary{
		Products:   c.ProductIDs(),
		Cities:     c.CityIDs(),
		Warehouses: c.WarehouseIDs(),
	}, nil
}
