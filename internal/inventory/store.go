package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/lock"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/metrics"
)

// CommitFunc torna durável o novo nível de estoque. É chamada com o lock do armazém
// adquirido; se retornar erro, a mutação é descartada e o estoque em memória não muda.
type CommitFunc func(ctx context.Context, level domain.StockLevel) error

// stockState é imutável depois de publicado (copy-on-write).
type stockState struct {
	stock   map[string]int
	version int64
}

type warehouseRecord struct {
	id    string
	city  string
	mu    *lock.Mutex
	state atomic.Pointer[stockState]
}

// Store é o Inventory Store: armazém → {cidade, estoque por produto}.
// Mutações de um armazém são serializadas pelo lock daquele armazém;
// leituras usam o último estado publicado e não bloqueiam.
type Store struct {
	mu          sync.RWMutex // protege o mapa records (Register)
	records     map[string]*warehouseRecord
	lockTimeout time.Duration
	logger      logger.Logger
	now         func() time.Time
}

// NewStore cria um Inventory Store vazio. lockTimeout limita a espera pelo lock de um armazém.
func NewStore(lockTimeout time.Duration, log logger.Logger) *Store {
	return &Store{
		records:     make(map[string]*warehouseRecord),
		lockTimeout: lockTimeout,
		logger:      log,
		now:         time.Now,
	}
}

// Register adiciona um armazém com o estoque informado, a partir da versão persistida.
// Se o armazém já existe, nada muda e retorna false (o estoque vivo nunca é sobrescrito).
func (s *Store) Register(id, city string, stock map[string]int, version int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[id]; exists {
		return false
	}

	rec := &warehouseRecord{id: id, city: city, mu: lock.New()}
	rec.state.Store(&stockState{stock: cloneStock(stock), version: version})
	s.records[id] = rec

	s.logger.Debug("Armazém registrado no inventário.", map[string]interface{}{"warehouse_id": id, "city": city, "products": len(stock)})
	return true
}

// Has informa se o armazém existe.
func (s *Store) Has(id string) bool {
	_, ok := s.record(id)
	return ok
}

// Get retorna uma cópia do estado atual do armazém.
func (s *Store) Get(id string) (domain.WarehouseStock, bool) {
	rec, ok := s.record(id)
	if !ok {
		return domain.WarehouseStock{}, false
	}
	return rec.view(), true
}

// Snapshot retorna cópias de todos os armazéns, ordenadas por ID.
// Cada armazém é consistente em si; armazéns diferentes podem refletir instantes diferentes.
func (s *Store) Snapshot() []domain.WarehouseStock {
	s.mu.RLock()
	recs := make([]*warehouseRecord, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]domain.WarehouseStock, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.view())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Adjust aplica delta ao estoque de product no armazém, sob o lock exclusivo do armazém.
// A suficiência é verificada de novo dentro do lock: um resultado negativo é rejeitado
// com OutOfStockError, nunca truncado. Sem lock no prazo, retorna BusyError.
func (s *Store) Adjust(ctx context.Context, warehouseID, product string, delta int, commit CommitFunc) (domain.StockLevel, error) {
	rec, ok := s.record(warehouseID)
	if !ok {
		return domain.StockLevel{}, apperror.NewNotFoundError(fmt.Sprintf("Armazém %s não encontrado.", warehouseID))
	}
	if delta == 0 {
		return domain.StockLevel{}, apperror.NewValidationError("O ajuste de estoque (delta) não pode ser zero.")
	}

	if err := rec.mu.Acquire(ctx, s.lockTimeout); err != nil {
		metrics.RecordLockTimeout("warehouse")
		s.logger.Warn("Lock do armazém não obtido no prazo.", map[string]interface{}{"warehouse_id": warehouseID, "error": err.Error()})
		if errors.Is(err, lock.ErrTimeout) {
			return domain.StockLevel{}, apperror.NewBusyError(fmt.Sprintf("armazém %s ocupado, tente novamente.", warehouseID))
		}
		return domain.StockLevel{}, apperror.NewBusyError(fmt.Sprintf("espera pelo armazém %s interrompida: %v", warehouseID, err))
	}
	defer rec.mu.Release()

	current := rec.state.Load()
	newQuantity := current.stock[product] + delta
	if newQuantity < 0 {
		s.logger.Debug("Ajuste rejeitado: estoque ficaria negativo.", map[string]interface{}{
			"warehouse_id":     warehouseID,
			"product_id":       product,
			"current_quantity": current.stock[product],
			"delta":            delta,
		})
		return domain.StockLevel{}, apperror.NewOutOfStockError(fmt.Sprintf("armazém %s tem %d unidade(s) de %s.", warehouseID, current.stock[product], product))
	}

	level := domain.StockLevel{
		WarehouseID: warehouseID,
		ProductID:   product,
		Quantity:    newQuantity,
		Version:     current.version + 1,
		UpdatedAt:   s.now().UTC(),
	}

	if commit != nil {
		if err := commit(ctx, level); err != nil {
			s.logger.Error("Falha ao confirmar ajuste de estoque; estado em memória preservado.", err)
			return domain.StockLevel{}, err
		}
	}

	next := &stockState{stock: cloneStock(current.stock), version: level.Version}
	next.stock[product] = newQuantity
	rec.state.Store(next)

	s.logger.Debug("Estoque ajustado.", map[string]interface{}{"warehouse_id": warehouseID, "product_id": product, "new_quantity": newQuantity, "version": level.Version})
	return level, nil
}

func (s *Store) record(id string) (*warehouseRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok
}

func (r *warehouseRecord) view() domain.WarehouseStock {
	st := r.state.Load()
	return domain.WarehouseStock{
		ID:      r.id,
		City:    r.city,
		Stock:   cloneStock(st.stock),
		Version: st.version,
	}
}

func cloneStock(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
