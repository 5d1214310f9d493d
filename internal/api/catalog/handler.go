package catalog

import (
	"context"
	"net/http"

	"gofulfill/internal/domain"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/response"
)

// CatalogService define o contrato que o Handler espera da camada de Serviço.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]string, error)
	ListCities(ctx context.Context) ([]string, error)
	Summary(ctx context.Context) (domain.CatalogSummary, error)
	Reload(ctx context.Context) (domain.CatalogSummary, error)
}

// Handler agrupa os Handlers de leitura do catálogo.
type Handler struct {
	Service CatalogService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CatalogService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// ListProductsHandler lida com a requisição GET /v1/products.
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	response.Handle(w, r, h.Logger, products, err, http.StatusOK)
}

// ListCitiesHandler lida com a requisição GET /v1/cities.
func (h *Handler) ListCitiesHandler(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Service.ListCities(r.Context())
	response.Handle(w, r, h.Logger, cities, err, http.StatusOK)
}

// SummaryHandler lida com a requisição GET /v1/catalog.
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context())
	response.Handle(w, r, h.Logger, summary, err, http.StatusOK)
}

// ReloadHandler lida com a requisição POST /v1/catalog/reload.
func (h *Handler) ReloadHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Reload(r.Context())
	response.Handle(w, r, h.Logger, summary, err, http.StatusOK)
}
