// Package allocator escolhe o armazém que atende um pedido.
//
// A escolha é uma função pura do catálogo e de um snapshot do inventário:
// não reserva nem altera estoque. Para cada armazém elegível (estoque >= quantidade)
// calcula score = 0.6 × distância + 0.4 × preço e escolhe o menor score; empates
// vão para o menor ID em ordem lexicográfica. Armazéns inalcançáveis (distância
// infinita) nunca são escolhidos, mesmo com o menor preço.
package allocator

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
)

// Pesos do score, em decimal para que empates sejam exatos.
var (
	DistanceWeight = decimal.RequireFromString("0.6")
	PriceWeight    = decimal.RequireFromString("0.4")
)

// Request descreve o pedido a ser alocado.
type Request struct {
	City     string
	Product  string
	Quantity int
}

// Validate confere o pedido contra o catálogo.
func (r Request) Validate(c *domain.Catalog) error {
	if strings.TrimSpace(r.City) == "" {
		return apperror.NewValidationError("A cidade é obrigatória.")
	}
	if r.Quantity < 1 {
		return apperror.NewValidationError("A quantidade deve ser um inteiro positivo.")
	}
	if !c.HasProduct(r.Product) {
		return apperror.NewValidationError(fmt.Sprintf("Produto %q não existe no catálogo.", r.Product))
	}
	if !c.IsKnownCity(r.City) {
		return apperror.NewValidationError(fmt.Sprintf("Cidade %q desconhecida.", r.City))
	}
	return nil
}

// Allocate retorna o melhor armazém para o pedido. Sem armazém elegível, retorna
// found == false e nenhum erro. err só é preenchido quando o pedido é inválido.
// Só concorrem armazéns declarados no catálogo, na cidade que o catálogo declara.
func Allocate(c *domain.Catalog, snapshot []domain.WarehouseStock, req Request) (alloc domain.Allocation, found bool, err error) {
	if err := req.Validate(c); err != nil {
		return domain.Allocation{}, false, err
	}

	var bestScore decimal.Decimal
	for _, wh := range c.Reconcile(snapshot) {
		if wh.Quantity(req.Product) < req.Quantity {
			continue
		}

		distance := c.Distances.Distance(req.City, wh.City)
		if math.IsInf(distance, 1) {
			continue
		}

		price, ok := c.PriceAt(wh.ID, req.Product)
		if !ok {
			continue
		}

		score := Score(decimal.NewFromFloat(distance), price)
		if !found || score.LessThan(bestScore) || (score.Equal(bestScore) && wh.ID < alloc.WarehouseID) {
			bestScore = score
			found = true
			alloc = domain.Allocation{
				WarehouseID:   wh.ID,
				WarehouseCity: wh.City,
				UnitPrice:     price,
				Score:         score,
			}
		}
	}

	return alloc, found, nil
}

// Score é a pontuação de alocação; menor é melhor.
func Score(distance, price decimal.Decimal) decimal.Decimal {
	return DistanceWeight.Mul(distance).Add(PriceWeight.Mul(price))
}
