package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"gofulfill/internal/api/catalog"
	"gofulfill/internal/api/docs"
	"gofulfill/internal/api/order"
	"gofulfill/internal/api/stock"
	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/metrics"
	"gofulfill/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	Catalog *catalog.Handler
	Orders  *order.Handler
	Stock   *stock.Handler
}

// NewRouter configura e retorna o roteador HTTP principal.
// As rotas /v1 passam pelo rate limiter; as de operação exigem JWT com papel admin.
func NewRouter(h Handlers, tokenSvc middleware.TokenService, limiter middleware.Limiter, log logger.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)

	// --- 1. Infra: health check, métricas e documentação ---
	r.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc(docs.SpecPath, docs.SpecHandler).Methods(http.MethodGet)
	r.PathPrefix("/swagger/").Handler(docs.UIHandler())

	// --- 2. API v1 ---
	v1 := r.PathPrefix("/v1").Subrouter()
	if limiter != nil {
		v1.Use(middleware.RateLimiter(limiter, log))
	}

	auth := middleware.NewAuthMiddleware(tokenSvc, log)
	adminOnly := func(next http.HandlerFunc) http.HandlerFunc {
		return auth(middleware.PermissionMiddleware(log, domain.RoleAdmin)(next))
	}

	// Catálogo
	v1.HandleFunc("/catalog", h.Catalog.SummaryHandler).Methods(http.MethodGet)
	v1.HandleFunc("/catalog/reload", adminOnly(h.Catalog.ReloadHandler)).Methods(http.MethodPost)
	v1.HandleFunc("/products", h.Catalog.ListProductsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/cities", h.Catalog.ListCitiesHandler).Methods(http.MethodGet)

	// Armazéns e estoque
	v1.HandleFunc("/warehouses", h.Stock.ListWarehousesHandler).Methods(http.MethodGet)
	v1.HandleFunc("/warehouses/{id}/restock", adminOnly(h.Stock.RestockHandler)).Methods(http.MethodPost)

	// Alocação e pedidos
	v1.HandleFunc("/allocation", h.Orders.QuoteHandler).Methods(http.MethodGet)
	v1.HandleFunc("/orders", h.Orders.PlaceOrderHandler).Methods(http.MethodPost)
	v1.HandleFunc("/orders", h.Orders.ListOrdersHandler).Methods(http.MethodGet)

	return r
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
