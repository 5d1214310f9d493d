package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderDateLayout é o formato do campo "date" no ledger, sempre em UTC.
const OrderDateLayout = "2006-01-02 15:04:05"

// OrderRecord é o registro imutável de uma alocação concluída.
// Contém todos os campos necessários para renderizar a nota; o chamador não recalcula nada.
type OrderRecord struct {
	ID            string          `json:"id"`
	Sequence      int64           `json:"sequence"`
	Customer      string          `json:"customer"`
	Product       string          `json:"product"`
	Quantity      int             `json:"quantity"`
	Warehouse     string          `json:"warehouse"`
	WarehouseCity string          `json:"warehouse_city"`
	Location      string          `json:"location"` // cidade do pedido
	PricePerItem  decimal.Decimal `json:"price_per_item"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Date          string          `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderRequest é o payload de criação de pedido.
type OrderRequest struct {
	Customer string `json:"customer"`
	City     string `json:"city"`
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

// Placement é o resultado de PlaceOrder: mensagem de status e o registro gravado.
type Placement struct {
	Message string      `json:"message"`
	Order   OrderRecord `json:"order"`
}

// Allocation é a escolha do alocador para um pedido (sem efeitos colaterais).
type Allocation struct {
	WarehouseID   string          `json:"warehouse_id"`
	WarehouseCity string          `json:"warehouse_city"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Score         decimal.Decimal `json:"score"`
}
