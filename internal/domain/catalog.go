package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// DistanceTable mapeia (cidade de origem, cidade de destino) para a distância.
// Pares ausentes são inalcançáveis.
type DistanceTable map[string]map[string]float64

// Distance retorna a distância de origin até destination.
// Mesma cidade é sempre 0; par ausente retorna +Inf.
func (t DistanceTable) Distance(origin, destination string) float64 {
	if origin == destination {
		return 0
	}
	if row, ok := t[origin]; ok {
		if d, ok := row[destination]; ok {
			return d
		}
	}
	return math.Inf(1)
}

// Catalog é a visão imutável do catálogo carregado: produtos, preços, distâncias e armazéns.
// Nunca é alterado depois de construído; um reload produz um novo Catalog.
type Catalog struct {
	Products   []Product
	Distances  DistanceTable
	Warehouses []Warehouse

	productIndex   map[string]int
	warehouseIndex map[string]int
}

// NewCatalog monta o Catalog e seus índices. A validação dos dados é feita pelo loader.
func NewCatalog(products []Product, distances DistanceTable, warehouses []Warehouse) *Catalog {
	c := &Catalog{
		Products:       products,
		Distances:      distances,
		Warehouses:     warehouses,
		productIndex:   make(map[string]int, len(products)),
		warehouseIndex: make(map[string]int, len(warehouses)),
	}
	if c.Distances == nil {
		c.Distances = DistanceTable{}
	}
	for i, p := range products {
		c.productIndex[p.ID] = i
	}
	for i, w := range warehouses {
		c.warehouseIndex[w.ID] = i
	}
	return c
}

// HasProduct informa se o produto existe no catálogo.
func (c *Catalog) HasProduct(id string) bool {
	_, ok := c.productIndex[id]
	return ok
}

// Warehouse retorna o armazém declarado com o ID informado.
func (c *Catalog) Warehouse(id string) (Warehouse, bool) {
	i, ok := c.warehouseIndex[id]
	if !ok {
		return Warehouse{}, false
	}
	return c.Warehouses[i], true
}

// PriceAt resolve o preço unitário do produto no armazém: sobrescrita do armazém, senão o preço global.
func (c *Catalog) PriceAt(warehouseID, product string) (decimal.Decimal, bool) {
	i, ok := c.productIndex[product]
	if !ok {
		return decimal.Zero, false
	}
	if w, ok := c.Warehouse(warehouseID); ok {
		if p, ok := w.Prices[product]; ok {
			return p, true
		}
	}
	return c.Products[i].Price, true
}

// IsKnownCity informa se a cidade aparece na tabela de distâncias (origem ou destino)
// ou hospeda algum armazém.
func (c *Catalog) IsKnownCity(city string) bool {
	if _, ok := c.Distances[city]; ok {
		return true
	}
	for _, row := range c.Distances {
		if _, ok := row[city]; ok {
			return true
		}
	}
	for _, w := range c.Warehouses {
		if w.City == city {
			return true
		}
	}
	return false
}

// ProductIDs lista os produtos na ordem do catálogo.
func (c *Catalog) ProductIDs() []string {
	ids := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		ids = append(ids, p.ID)
	}
	return ids
}

// CityIDs lista as cidades de origem da tabela de distâncias, em ordem.
func (c *Catalog) CityIDs() []string {
	cities := make([]string, 0, len(c.Distances))
	for city := range c.Distances {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	return cities
}

// WarehouseIDs lista os armazéns em ordem lexicográfica.
func (c *Catalog) WarehouseIDs() []string {
	ids := make([]string, 0, len(c.Warehouses))
	for _, w := range c.Warehouses {
		ids = append(ids, w.ID)
	}
	sort.Strings(ids)
	return ids
}

// CatalogSummary reúne as listagens de um mesmo snapshot do catálogo.
type CatalogSummary struct {
	Products   []string `json:"products"`
	Cities     []string `json:"cities"`
	Warehouses []string `json:"warehouses"`
}

// Reconcile restringe um snapshot do inventário aos armazéns declarados neste catálogo,
// com a cidade declarada. Um armazém removido ou movido num reload deixa de valer
// aqui, mesmo que o inventário ainda guarde seu registro.
func (c *Catalog) Reconcile(snapshot []WarehouseStock) []WarehouseStock {
	out := make([]WarehouseStock, 0, len(snapshot))
	for _, ws := range snapshot {
		decl, ok := c.Warehouse(ws.ID)
		if !ok {
			continue
		}
		ws.City = decl.City
		out = append(out, ws)
	}
	return out
}
