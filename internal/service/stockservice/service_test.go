package stockservice_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gofulfill/internal/catalog"
	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/inventory"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/service/stockservice"
)

// MockStockRepository é uma implementação mock da interface StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) SeedStockLevels(ctx context.Context, levels []domain.StockLevel) error {
	args := m.Called(ctx, levels)
	return args.Error(0)
}

func (m *MockStockRepository) ListStockLevels(ctx context.Context) ([]domain.StockLevel, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StockLevel), args.Error(1)
}

func (m *MockStockRepository) SaveStockLevel(ctx context.Context, level domain.StockLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func testCatalog() *domain.Catalog {
	return domain.NewCatalog(
		[]domain.Product{{ID: "widget", Price: decimal.NewFromInt(10)}, {ID: "gadget", Price: decimal.NewFromInt(20)}},
		domain.DistanceTable{"X": {"Y": 100}},
		[]domain.Warehouse{
			{ID: "A", City: "X", Stock: map[string]int{"widget": 5}},
			{ID: "B", City: "Y", Stock: map[string]int{}},
		},
	)
}

func newService(repo *MockStockRepository) (*stockservice.Service, *inventory.Store) {
	log := logger.NewLoggerWithOutput("error", io.Discard)
	inv := inventory.NewStore(time.Second, log)
	inv.Register("A", "X", map[string]int{"widget": 5}, 0)
	inv.Register("B", "Y", nil, 0)
	return stockservice.NewService(repo, catalog.NewStaticStore(testCatalog(), log), inv, log), inv
}

func TestRestock_Success(t *testing.T) {
	repo := new(MockStockRepository)
	svc, inv := newService(repo)
	repo.On("SaveStockLevel", mock.Anything, mock.MatchedBy(func(l domain.StockLevel) bool {
		return l.WarehouseID == "A" && l.ProductID == "widget" && l.Quantity == 12
	})).Return(nil)

	result, err := svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 7})
	require.NoError(t, err)

	assert.Equal(t, 12, result.Stock.Quantity)
	assert.Contains(t, result.Message, "armazém A")
	ws, _ := inv.Get("A")
	assert.Equal(t, 12, ws.Quantity("widget"))
	repo.AssertExpectations(t)
}

func TestRestock_CreatesEntryForAbsentProduct(t *testing.T) {
	repo := new(MockStockRepository)
	svc, inv := newService(repo)
	repo.On("SaveStockLevel", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Restock(context.Background(), "B", domain.RestockRequest{ProductID: "gadget", Quantity: 3})
	require.NoError(t, err)

	ws, _ := inv.Get("B")
	assert.Equal(t, map[string]int{"gadget": 3}, ws.Stock)
}

func TestRestock_Errors(t *testing.T) {
	repo := new(MockStockRepository)
	svc, _ := newService(repo)

	_, err := svc.Restock(context.Background(), "Z", domain.RestockRequest{ProductID: "widget", Quantity: 1})
	assert.IsType(t, &apperror.NotFoundError{}, err)

	_, err = svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 0})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "gizmo", Quantity: 1})
	assert.IsType(t, &apperror.ValidationError{}, err)

	repo.AssertNotCalled(t, "SaveStockLevel", mock.Anything, mock.Anything)
}

func TestRestock_StorageFailureKeepsStock(t *testing.T) {
	repo := new(MockStockRepository)
	svc, inv := newService(repo)
	repo.On("SaveStockLevel", mock.Anything, mock.Anything).Return(apperror.NewDBError("Falha ao gravar estoque", errors.New("read-only")))

	_, err := svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 4})
	assert.IsType(t, &apperror.StorageError{}, err)

	ws, _ := inv.Get("A")
	assert.Equal(t, 5, ws.Quantity("widget"))
}

func TestRestock_ConcurrentRestocksAddUp(t *testing.T) {
	repo := new(MockStockRepository)
	svc, inv := newService(repo)
	repo.On("SaveStockLevel", mock.Anything, mock.Anything).Return(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 3})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := svc.Restock(context.Background(), "B", domain.RestockRequest{ProductID: "widget", Quantity: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	a, _ := inv.Get("A")
	b, _ := inv.Get("B")
	assert.Equal(t, 5+60, a.Quantity("widget"))
	assert.Equal(t, 40, b.Quantity("widget"))
}

func TestLoadInventory_SeedsAndRegistersFromPersistedRows(t *testing.T) {
	repo := new(MockStockRepository)
	log := logger.NewLoggerWithOutput("error", io.Discard)
	inv := inventory.NewStore(time.Second, log)
	svc := stockservice.NewService(repo, catalog.NewStaticStore(testCatalog(), log), inv, log)

	repo.On("SeedStockLevels", mock.Anything, []domain.StockLevel{{WarehouseID: "A", ProductID: "widget", Quantity: 5}}).Return(nil)
	repo.On("ListStockLevels", mock.Anything).Return([]domain.StockLevel{
		{WarehouseID: "A", ProductID: "widget", Quantity: 2, Version: 6},
		{WarehouseID: "A", ProductID: "gadget", Quantity: 1, Version: 4},
		{WarehouseID: "Gone", ProductID: "widget", Quantity: 9, Version: 50},
	}, nil)

	n, err := svc.LoadInventory(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	a, _ := inv.Get("A")
	assert.Equal(t, 2, a.Quantity("widget"), "o estoque persistido prevalece sobre o semeado")
	assert.Equal(t, int64(6), a.Version, "a versão retoma a maior linha persistida do armazém")
	assert.True(t, inv.Has("B"))
	assert.False(t, inv.Has("Gone"))

	// Segunda carga não toca o repositório nem o estoque vivo.
	n, err = svc.LoadInventory(context.Background(), testCatalog())
	require.NoError(t, err)
	assert.Zero(t, n)
	repo.AssertNumberOfCalls(t, "ListStockLevels", 1)
}

func TestLoadInventory_SeedFailure(t *testing.T) {
	repo := new(MockStockRepository)
	log := logger.NewLoggerWithOutput("error", io.Discard)
	inv := inventory.NewStore(time.Second, log)
	svc := stockservice.NewService(repo, catalog.NewStaticStore(testCatalog(), log), inv, log)
	repo.On("SeedStockLevels", mock.Anything, mock.Anything).Return(apperror.NewDBError("Falha ao semear estoque", errors.New("down")))

	_, err := svc.LoadInventory(context.Background(), testCatalog())
	assert.IsType(t, &apperror.StorageError{}, err)
	assert.False(t, inv.Has("A"))
}

func TestLoadInventory_RestockContinuesPersistedVersion(t *testing.T) {
	repo := new(MockStockRepository)
	log := logger.NewLoggerWithOutput("error", io.Discard)
	inv := inventory.NewStore(time.Second, log)
	svc := stockservice.NewService(repo, catalog.NewStaticStore(testCatalog(), log), inv, log)

	repo.On("SeedStockLevels", mock.Anything, mock.Anything).Return(nil)
	repo.On("ListStockLevels", mock.Anything).Return([]domain.StockLevel{
		{WarehouseID: "A", ProductID: "widget", Quantity: 2, Version: 11},
	}, nil)
	repo.On("SaveStockLevel", mock.Anything, mock.MatchedBy(func(l domain.StockLevel) bool {
		return l.WarehouseID == "A" && l.Quantity == 5 && l.Version == 12
	})).Return(nil)

	_, err := svc.LoadInventory(context.Background(), testCatalog())
	require.NoError(t, err)

	result, err := svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(12), result.Stock.Version)
	repo.AssertExpectations(t)
}

func TestStock_RemovedWarehouseIsHiddenAndNotRestockable(t *testing.T) {
	repo := new(MockStockRepository)
	log := logger.NewLoggerWithOutput("error", io.Discard)
	inv := inventory.NewStore(time.Second, log)
	inv.Register("A", "X", map[string]int{"widget": 5}, 0)
	inv.Register("B", "Y", nil, 0)
	// Catálogo vigente: A foi removido e B mudou para a cidade X.
	reloaded := domain.NewCatalog(
		[]domain.Product{{ID: "widget", Price: decimal.NewFromInt(10)}},
		domain.DistanceTable{"X": {"Y": 100}},
		[]domain.Warehouse{{ID: "B", City: "X"}},
	)
	svc := stockservice.NewService(repo, catalog.NewStaticStore(reloaded, log), inv, log)

	warehouses, err := svc.ListWarehouseStock(context.Background())
	require.NoError(t, err)
	if assert.Len(t, warehouses, 1) {
		assert.Equal(t, "B", warehouses[0].ID)
		assert.Equal(t, "X", warehouses[0].City)
	}

	_, err = svc.Restock(context.Background(), "A", domain.RestockRequest{ProductID: "widget", Quantity: 1})
	assert.IsType(t, &apperror.NotFoundError{}, err)
	repo.AssertNotCalled(t, "SaveStockLevel", mock.Anything, mock.Anything)
}
