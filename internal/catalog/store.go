package catalog

import (
	"sync"
	"sync/atomic"

	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/logger"
)

// Store mantém o snapshot corrente do catálogo. Leituras não usam lock;
// Reload troca o snapshot inteiro de forma atômica, nunca parcialmente.
type Store struct {
	path     string
	current  atomic.Pointer[domain.Catalog]
	reloadMu sync.Mutex
	logger   logger.Logger
}

// NewStore carrega o catálogo de path e retorna o Store pronto para uso.
func NewStore(path string, log logger.Logger) (*Store, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: path, logger: log}
	s.current.Store(c)
	log.Info("Catálogo carregado.", map[string]interface{}{
		"path":       path,
		"products":   len(c.Products),
		"warehouses": len(c.Warehouses),
		"cities":     len(c.Distances),
	})
	return s, nil
}

// NewStaticStore cria um Store sobre um catálogo já montado (sem arquivo de origem).
func NewStaticStore(c *domain.Catalog, log logger.Logger) *Store {
	s := &Store{logger: log}
	s.current.Store(c)
	return s
}

// Snapshot retorna o catálogo corrente. O valor retornado é imutável.
func (s *Store) Snapshot() *domain.Catalog {
	return s.current.Load()
}

// Reload relê o arquivo de origem. Em caso de erro o snapshot anterior permanece.
func (s *Store) Reload() (*domain.Catalog, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if s.path == "" {
		return s.Snapshot(), nil
	}

	c, err := Load(s.path)
	if err != nil {
		s.logger.Error("Falha ao recarregar catálogo; mantendo snapshot anterior.", err)
		return nil, err
	}
	s.current.Store(c)
	s.logger.Info("Catálogo recarregado.", map[string]interface{}{"path": s.path, "products": len(c.Products), "warehouses": len(c.Warehouses)})
	return c, nil
}
