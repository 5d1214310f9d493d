package domain

import "time"

// StockLevel representa o nível de estoque de um produto em um armazém.
// A coluna 'version' é incrementada a cada gravação.
type StockLevel struct {
	WarehouseID string    `json:"warehouse_id"`
	ProductID   string    `json:"product_id"`
	Quantity    int       `json:"quantity"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RestockRequest é o payload esperado para a requisição de reposição de estoque.
type RestockRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// RestockResult é a resposta da reposição: mensagem de status e o novo nível.
type RestockResult struct {
	Message string     `json:"message"`
	Stock   StockLevel `json:"stock"`
}
