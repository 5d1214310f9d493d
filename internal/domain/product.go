package domain

import (
	"github.com/shopspring/decimal"
)

// DefaultUnitPrice é o preço aplicado a um produto listado no catálogo sem preço próprio.
var DefaultUnitPrice = decimal.NewFromInt(100)

// Product representa um item do catálogo com seu preço unitário global.
type Product struct {
	ID    string          `json:"id"`
	Price decimal.Decimal `json:"price"`
}
