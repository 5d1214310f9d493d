package catalog

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"gofulfill/internal/domain"
	apperror "gofulfill/internal/errors"
)

// fileDocument espelha o formato do arquivo de inventário (JSON ou YAML).
type fileDocument struct {
	ProductList   []string                      `yaml:"product_list"`
	ProductPrices map[string]price              `yaml:"product_prices"`
	DefaultPrice  *price                        `yaml:"default_price"`
	CityDistances map[string]map[string]float64 `yaml:"city_distances"`
	Warehouses    map[string]fileWarehouse      `yaml:"warehouses"`
}

type fileWarehouse struct {
	City   string           `yaml:"city"`
	Stock  map[string]int   `yaml:"stock"`
	Prices map[string]price `yaml:"prices"`
}

// price guarda o texto bruto do escalar para converter sem perda para decimal.
type price struct {
	text string
}

func (p *price) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("preço deve ser um número (linha %d)", value.Line)
	}
	p.text = value.Value
	return nil
}

func (p price) decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(p.text))
}

// Load lê e valida o arquivo de catálogo.
func Load(path string) (*domain.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.NewStorageError(fmt.Sprintf("não foi possível ler o catálogo %s", path), err)
	}
	return Parse(data)
}

// Parse decodifica e valida um documento de catálogo. YAML é superconjunto de JSON,
// então o inventory.json original é aceito sem conversão.
func Parse(data []byte) (*domain.Catalog, error) {
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("catálogo malformado: %v", err))
	}

	var problems []string
	addProblem := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	defaultPrice := domain.DefaultUnitPrice
	if doc.DefaultPrice != nil {
		d, err := doc.DefaultPrice.decimal()
		switch {
		case err != nil:
			addProblem("default_price inválido: %q", doc.DefaultPrice.text)
		case d.IsNegative():
			addProblem("default_price não pode ser negativo")
		default:
			defaultPrice = d
		}
	}

	// 1. Produtos
	if len(doc.ProductList) == 0 {
		addProblem("product_list não pode ser vazio")
	}
	known := make(map[string]bool, len(doc.ProductList))
	products := make([]domain.Product, 0, len(doc.ProductList))
	for _, id := range doc.ProductList {
		id = strings.TrimSpace(id)
		if id == "" {
			addProblem("product_list contém identificador vazio")
			continue
		}
		if known[id] {
			addProblem("produto duplicado: %s", id)
			continue
		}
		known[id] = true
		products = append(products, domain.Product{ID: id, Price: defaultPrice})
	}

	// 2. Preços globais
	for i := range products {
		raw, ok := doc.ProductPrices[products[i].ID]
		if !ok {
			continue
		}
		d, err := parsePrice(raw)
		if err != nil {
			addProblem("preço de %s: %v", products[i].ID, err)
			continue
		}
		products[i].Price = d
	}
	for id := range doc.ProductPrices {
		if !known[id] {
			addProblem("product_prices referencia produto desconhecido: %s", id)
		}
	}

	// 3. Distâncias
	distances := make(domain.DistanceTable, len(doc.CityDistances))
	for origin, row := range doc.CityDistances {
		distances[origin] = make(map[string]float64, len(row))
		for destination, d := range row {
			if d < 0 || math.IsNaN(d) {
				addProblem("distância negativa ou inválida de %s para %s", origin, destination)
				continue
			}
			distances[origin][destination] = d
		}
	}

	// 4. Armazéns (ordem lexicográfica para uma carga determinística)
	ids := make([]string, 0, len(doc.Warehouses))
	for id := range doc.Warehouses {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	warehouses := make([]domain.Warehouse, 0, len(ids))
	for _, id := range ids {
		fw := doc.Warehouses[id]
		if strings.TrimSpace(id) == "" {
			addProblem("armazém com identificador vazio")
			continue
		}
		if strings.TrimSpace(fw.City) == "" {
			addProblem("armazém %s sem cidade", id)
			continue
		}

		// Armazém sem "stock" é normalizado para estoque vazio.
		stock := make(map[string]int, len(fw.Stock))
		for product, qty := range fw.Stock {
			if !known[product] {
				addProblem("armazém %s tem estoque de produto desconhecido: %s", id, product)
				continue
			}
			if qty < 0 {
				addProblem("armazém %s tem estoque negativo de %s", id, product)
				continue
			}
			stock[product] = qty
		}

		var overrides map[string]decimal.Decimal
		if len(fw.Prices) > 0 {
			overrides = make(map[string]decimal.Decimal, len(fw.Prices))
			for product, raw := range fw.Prices {
				if !known[product] {
					addProblem("armazém %s sobrescreve preço de produto desconhecido: %s", id, product)
					continue
				}
				d, err := parsePrice(raw)
				if err != nil {
					addProblem("preço de %s no armazém %s: %v", product, id, err)
					continue
				}
				overrides[product] = d
			}
		}

		warehouses = append(warehouses, domain.Warehouse{ID: id, City: fw.City, Stock: stock, Prices: overrides})
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, apperror.NewValidationError("catálogo inválido: " + strings.Join(problems, "; "))
	}

	return domain.NewCatalog(products, distances, warehouses), nil
}

func parsePrice(raw price) (decimal.Decimal, error) {
	d, err := raw.decimal()
	if err != nil {
		return decimal.Zero, fmt.Errorf("valor %q não é numérico", raw.text)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor %s é negativo", d.String())
	}
	return d, nil
}
