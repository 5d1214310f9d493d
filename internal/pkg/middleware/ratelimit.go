package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/cache"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/response"
)

// Limiter decide se a requisição identificada por key pode prosseguir.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
}

// RedisLimiter aplica uma janela fixa compartilhada entre instâncias, contada no Redis.
type RedisLimiter struct {
	client  cache.Client
	limit   int
	period  time.Duration
	timeout time.Duration
}

// NewRedisLimiter cria o limitador de janela fixa sobre o cache.
func NewRedisLimiter(client cache.Client, limit int, period, timeout time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, period: period, timeout: timeout}
}

// Allow conta a requisição na janela atual da chave. O contador é incrementado
// atomicamente no Redis; a primeira requisição da janela define a expiração.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	key = "rate-limit:" + key
	n, err := l.client.Incr(ctx, key)
	if err != nil {
		return true, 0, err
	}
	if n == 1 {
		if err := l.client.Expire(ctx, key, l.period); err != nil {
			return true, l.limit - 1, err
		}
	}

	if n > int64(l.limit) {
		return false, 0, nil
	}
	return true, l.limit - int(n), nil
}

// LocalLimiter é o limitador em memória (token bucket por chave), usado sem Redis.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

// NewLocalLimiter cria um limitador que libera limit requisições por period, com rajada de limit.
func NewLocalLimiter(limit int, period time.Duration) *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(period / time.Duration(max(limit, 1))),
		burst:    max(limit, 1),
	}
}

func (l *LocalLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

// Allow consome um token da chave.
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, int, error) {
	lim := l.limiter(key)
	if !lim.Allow() {
		return false, 0, nil
	}
	return true, int(lim.Tokens()), nil
}

// Cleanup descarta os limitadores acumulados quando passam de maxKeys.
func (l *LocalLimiter) Cleanup(maxKeys int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.limiters) > maxKeys {
		l.limiters = make(map[string]*rate.Limiter)
	}
}

// RateLimiter limita requisições por IP. Se o limitador falhar (e.g., Redis fora),
// a requisição segue e o erro é registrado.
func RateLimiter(l Limiter, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}

			allowed, remaining, err := l.Allow(r.Context(), ip)
			if err != nil {
				log.Warn("Falha no rate limiter; requisição liberada.", map[string]interface{}{"error": err.Error(), "ip": ip})
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				response.Error(w, r, log, apperror.NewRateLimitError("muitas requisições, tente novamente mais tarde."))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(remaining, 0)))
			next.ServeHTTP(w, r)
		})
	}
}
