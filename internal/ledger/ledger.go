// Package ledger mantém o log append-only de pedidos concluídos.
//
// Appends são serializados por um lock com espera limitada; cada registro recebe
// a próxima sequência e um timestamp nunca anterior ao do registro precedente.
// Um registro só entra no log depois que a função de persistência confirma.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/lock"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/metrics"
)

// PersistFunc grava o registro de forma durável antes de ele ser publicado.
type PersistFunc func(ctx context.Context, rec domain.OrderRecord) error

// Ledger é a sequência ordenada de OrderRecords. Registros nunca são alterados ou removidos.
type Ledger struct {
	appendMu    *lock.Mutex
	lockTimeout time.Duration

	viewMu  sync.RWMutex
	records []domain.OrderRecord
	lastAt  time.Time
	nextSeq int64

	now    func() time.Time
	logger logger.Logger
}

// New cria um ledger vazio.
func New(lockTimeout time.Duration, log logger.Logger) *Ledger {
	return &Ledger{
		appendMu:    lock.New(),
		lockTimeout: lockTimeout,
		nextSeq:     1,
		now:         time.Now,
		logger:      log,
	}
}

// WithClock substitui o relógio (testes).
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// Restore carrega registros já persistidos (boot). Deve ser chamado antes do primeiro Append.
func (l *Ledger) Restore(records []domain.OrderRecord) {
	sorted := make([]domain.OrderRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Sequence < sorted[j].Sequence })

	l.viewMu.Lock()
	defer l.viewMu.Unlock()

	l.records = sorted
	l.nextSeq = 1
	l.lastAt = time.Time{}
	if n := len(sorted); n > 0 {
		l.nextSeq = sorted[n-1].Sequence + 1
		for _, r := range sorted {
			if r.CreatedAt.After(l.lastAt) {
				l.lastAt = r.CreatedAt
			}
		}
	}
	l.logger.Info("Ledger restaurado.", map[string]interface{}{"orders": len(sorted), "next_sequence": l.nextSeq})
}

// Append carimba o registro (sequência, data) e o grava via persist. Em caso de falha
// nada é publicado. Sem lock no prazo, retorna BusyError.
func (l *Ledger) Append(ctx context.Context, rec domain.OrderRecord, persist PersistFunc) (domain.OrderRecord, error) {
	if err := l.appendMu.Acquire(ctx, l.lockTimeout); err != nil {
		metrics.RecordLockTimeout("ledger")
		l.logger.Warn("Lock do ledger não obtido no prazo.", map[string]interface{}{"error": err.Error()})
		if errors.Is(err, lock.ErrTimeout) {
			return domain.OrderRecord{}, apperror.NewBusyError("ledger ocupado, tente novamente.")
		}
		return domain.OrderRecord{}, apperror.NewBusyError(fmt.Sprintf("espera pelo ledger interrompida: %v", err))
	}
	defer l.appendMu.Release()

	l.viewMu.RLock()
	seq, lastAt := l.nextSeq, l.lastAt
	l.viewMu.RUnlock()

	ts := l.now().UTC()
	if ts.Before(lastAt) {
		ts = lastAt
	}
	rec.Sequence = seq
	rec.CreatedAt = ts
	rec.Date = ts.Format(domain.OrderDateLayout)

	if persist != nil {
		if err := persist(ctx, rec); err != nil {
			l.logger.Error("Falha ao persistir pedido; ledger inalterado.", err)
			return domain.OrderRecord{}, err
		}
	}

	l.viewMu.Lock()
	l.records = append(l.records, rec)
	l.nextSeq = seq + 1
	l.lastAt = ts
	l.viewMu.Unlock()

	l.logger.Debug("Pedido anexado ao ledger.", map[string]interface{}{"order_id": rec.ID, "sequence": rec.Sequence})
	return rec, nil
}

// List retorna uma cópia do ledger completo em ordem de inserção.
func (l *Ledger) List() []domain.OrderRecord {
	l.viewMu.RLock()
	defer l.viewMu.RUnlock()

	out := make([]domain.OrderRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len retorna o número de registros.
func (l *Ledger) Len() int {
	l.viewMu.RLock()
	defer l.viewMu.RUnlock()
	return len(l.records)
}
