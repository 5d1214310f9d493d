package domain

import "github.com/shopspring/decimal"

// Warehouse representa um armazém declarado no catálogo: cidade e estoque inicial.
// Prices contém sobrescritas de preço por produto válidas apenas neste armazém.
type Warehouse struct {
	ID     string                     `json:"id"`
	City   string                     `json:"city"`
	Stock  map[string]int             `json:"stock"`
	Prices map[string]decimal.Decimal `json:"prices,omitempty"`
}

// WarehouseStock é a visão em tempo de execução de um armazém: cidade e estoque atual.
// É uma cópia; alterá-la não afeta o Inventory Store.
type WarehouseStock struct {
	ID      string         `json:"id"`
	City    string         `json:"city"`
	Stock   map[string]int `json:"stock"`
	Version int64          `json:"version"`
}

// Quantity retorna o estoque do produto (zero quando ausente).
func (w WarehouseStock) Quantity(product string) int {
	return w.Stock[product]
}
