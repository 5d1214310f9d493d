package stock

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/response"
)

// StockService define o contrato que o Handler espera da camada de Serviço.
type StockService interface {
	Restock(ctx context.Context, warehouseID string, req domain.RestockRequest) (domain.RestockResult, error)
	ListWarehouseStock(ctx context.Context) ([]domain.WarehouseStock, error)
}

// Handler agrupa todos os métodos de Handler de estoque.
type Handler struct {
	Service StockService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc StockService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// RestockHandler lida com a requisição POST /v1/warehouses/{id}/restock.
func (h *Handler) RestockHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	result, err := h.Service.Restock(r.Context(), mux.Vars(r)["id"], req)
	response.Handle(w, r, h.Logger, result, err, http.StatusOK)
}

// ListWarehousesHandler lida com a requisição GET /v1/warehouses.
func (h *Handler) ListWarehousesHandler(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.Service.ListWarehouseStock(r.Context())
	response.Handle(w, r, h.Logger, warehouses, err, http.StatusOK)
}
