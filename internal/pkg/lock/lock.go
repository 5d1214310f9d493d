// Package lock fornece um mutex com espera limitada: a aquisição desiste após um
// timeout ou cancelamento do contexto em vez de bloquear indefinidamente.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout é retornado quando o lock não é obtido dentro do prazo.
var ErrTimeout = errors.New("lock: tempo de espera esgotado")

// Mutex é um mutex baseado em canal com capacidade 1. O valor zero não é utilizável; use New.
type Mutex struct {
	ch chan struct{}
}

// New cria um Mutex livre.
func New() *Mutex {
	return &Mutex{ch: make(chan struct{}, 1)}
}

// Acquire tenta obter o lock por até timeout. Retorna ErrTimeout ou o erro do contexto.
// timeout <= 0 significa tentar uma única vez, sem esperar.
func (m *Mutex) Acquire(ctx context.Context, timeout time.Duration) error {
	select {
	case m.ch <- struct{}{}:
		return nil
	default:
	}
	if timeout <= 0 {
		return ErrTimeout
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m.ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release libera o lock. Liberar um lock livre é erro de programação e causa panic.
func (m *Mutex) Release() {
	select {
	case <-m.ch:
	default:
		panic("lock: Release de um Mutex que não está travado")
	}
}
