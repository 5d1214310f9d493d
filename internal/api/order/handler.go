package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
	"gofulfill/internal/pkg/logger"
	"gofulfill/internal/pkg/response"
)

// OrderService define o contrato que o Handler espera da camada de Serviço.
type OrderService interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.Placement, error)
	Quote(ctx context.Context, city, product string, quantity int) (domain.Allocation, error)
	ListOrders(ctx context.Context) ([]domain.OrderRecord, error)
}

// Handler agrupa os Handlers de pedidos e alocação.
type Handler struct {
	Service OrderService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc OrderService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// PlaceOrderHandler lida com a requisição POST /v1/orders.
func (h *Handler) PlaceOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	placement, err := h.Service.PlaceOrder(r.Context(), req)
	response.Handle(w, r, h.Logger, placement, err, http.StatusCreated)
}

// ListOrdersHandler lida com a requisição GET /v1/orders.
func (h *Handler) ListOrdersHandler(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.ListOrders(r.Context())
	if orders == nil {
		orders = []domain.OrderRecord{}
	}
	response.Handle(w, r, h.Logger, orders, err, http.StatusOK)
}

// QuoteHandler lida com a requisição GET /v1/allocation?city=&product=&quantity=.
func (h *Handler) QuoteHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quantity, err := strconv.Atoi(q.Get("quantity"))
	if err != nil {
		response.Error(w, r, h.Logger, apperror.NewValidationError("O parâmetro 'quantity' deve ser um número inteiro."))
		return
	}

	alloc, err := h.Service.Quote(r.Context(), q.Get("city"), q.Get("product"), quantity)
	response.Handle(w, r, h.Logger, alloc, err, http.StatusOK)
}
