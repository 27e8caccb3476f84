// Package catalog holds the immutable product and coupon catalog.
//
// The catalog is loaded once from embedded YAML at startup and never
// mutated afterwards; every accessor returns copies.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
)

//go:embed data.yaml
var rawCatalog []byte

// Catalog is the loaded, validated product/coupon catalog.
type Catalog struct {
	products []entity.Product
	coupons  []entity.Coupon
	byID     map[string]int
	byCode   map[string]int
}

type catalogFile struct {
	Products []entity.Product `yaml:"products"`
	Coupons  []entity.Coupon  `yaml:"coupons"`
}

// Load parses the embedded catalog data.
func Load() (*Catalog, error) {
	return Parse(rawCatalog)
}

// Parse builds a Catalog from YAML bytes.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		products: file.Products,
		coupons:  file.Coupons,
		byID:     make(map[string]int, len(file.Products)),
		byCode:   make(map[string]int, len(file.Coupons)),
	}

	for i, p := range c.products {
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		if len(p.Variants) == 0 {
			return nil, fmt.Errorf("product %q has no variants", p.ID)
		}
		weights := make(map[string]bool, len(p.Variants))
		for _, v := range p.Variants {
			if v.Price <= 0 {
				return nil, fmt.Errorf("product %q variant %q has non-positive price %d", p.ID, v.Weight, v.Price)
			}
			if weights[v.Weight] {
				return nil, fmt.Errorf("product %q has duplicate variant weight %q", p.ID, v.Weight)
			}
			weights[v.Weight] = true
		}
		c.byID[p.ID] = i
	}

	for i, cp := range c.coupons {
		if cp.Code == "" {
			return nil, fmt.Errorf("catalog coupon at index %d has no code", i)
		}
		if _, dup := c.byCode[cp.Code]; dup {
			return nil, fmt.Errorf("duplicate coupon code %q", cp.Code)
		}
		switch cp.DiscountType {
		case entity.CouponPercentage, entity.CouponFixed:
		default:
			return nil, fmt.Errorf("coupon %q has unknown discount type %q", cp.Code, cp.DiscountType)
		}
		c.byCode[cp.Code] = i
	}

	return c, nil
}

// Products returns all products in catalog order.
func (c *Catalog) Products() []entity.Product {
	out := make([]entity.Product, len(c.products))
	copy(out, c.products)
	return out
}

// ProductByID looks up a product by its id.
func (c *Catalog) ProductByID(id string) (entity.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return entity.Product{}, false
	}
	return c.products[i], true
}

// VariantOf resolves the variant of a product by weight label.
func (c *Catalog) VariantOf(productID, weight string) (entity.Product, entity.Variant, bool) {
	p, ok := c.ProductByID(productID)
	if !ok {
		return entity.Product{}, entity.Variant{}, false
	}
	for _, v := range p.Variants {
		if v.Weight == weight {
			return p, v, true
		}
	}
	return entity.Product{}, entity.Variant{}, false
}

// Coupons returns all coupons in catalog order.
func (c *Catalog) Coupons() []entity.Coupon {
	out := make([]entity.Coupon, len(c.coupons))
	copy(out, c.coupons)
	return out
}

// CouponByCode looks up a coupon by exact, case-sensitive code.
func (c *Catalog) CouponByCode(code string) (entity.Coupon, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return entity.Coupon{}, false
	}
	return c.coupons[i], true
}
