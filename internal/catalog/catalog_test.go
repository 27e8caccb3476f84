package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MOHD-MOMIN-TRADER/bodyrevivalBR/internal/entity"
)

func TestLoad_EmbeddedData(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.Products(), 3)
	assert.Len(t, c.Coupons(), 2)

	p, ok := c.ProductByID("p1")
	require.True(t, ok)
	assert.Equal(t, "Natural Peanut Butter", p.Name)
	require.Len(t, p.Variants, 2)
	assert.Equal(t, int64(262), p.Variants[0].Price)

	_, v, ok := c.VariantOf("p2", "1kg")
	require.True(t, ok)
	assert.Equal(t, "CND-1000", v.SKU)
	assert.Equal(t, int64(599), v.Price)

	_, _, ok = c.VariantOf("p2", "2kg")
	assert.False(t, ok)
}

func TestLoad_Coupons(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	welcome, ok := c.CouponByCode("WELCOME20")
	require.True(t, ok)
	assert.Equal(t, entity.CouponPercentage, welcome.DiscountType)
	assert.Equal(t, int64(20), welcome.Value)
	assert.Zero(t, welcome.MinOrderValue)

	save, ok := c.CouponByCode("SAVE50")
	require.True(t, ok)
	assert.Equal(t, entity.CouponFixed, save.DiscountType)
	assert.Equal(t, int64(500), save.MinOrderValue)

	// Match is case-sensitive.
	_, ok = c.CouponByCode("welcome20")
	assert.False(t, ok)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "duplicate product id",
			yaml: `
products:
  - id: p1
    name: A
    variants: [{ weight: 500g, price: 10, sku: A-1 }]
  - id: p1
    name: B
    variants: [{ weight: 500g, price: 10, sku: B-1 }]
`,
		},
		{
			name: "duplicate variant weight",
			yaml: `
products:
  - id: p1
    name: A
    variants:
      - { weight: 500g, price: 10, sku: A-1 }
      - { weight: 500g, price: 20, sku: A-2 }
`,
		},
		{
			name: "non-positive price",
			yaml: `
products:
  - id: p1
    name: A
    variants: [{ weight: 500g, price: 0, sku: A-1 }]
`,
		},
		{
			name: "duplicate coupon code",
			yaml: `
coupons:
  - { code: X, discountType: FIXED, value: 5 }
  - { code: X, discountType: FIXED, value: 10 }
`,
		},
		{
			name: "unknown discount type",
			yaml: `
coupons:
  - { code: X, discountType: BOGO, value: 5 }
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
