package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewProduct(t *testing.T) {
	product, err := NewProduct("Vintage Jacket", decimal.NewFromInt(40))

	assert.NoError(t, err)
	assert.Equal(t, "Vintage Jacket", product.Title)
	assert.Equal(t, ProductStatusActive, product.Status)
	assert.True(t, decimal.NewFromInt(40).Equal(product.Price))
	assert.NotEqual(t, product.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestNewProduct_Invalid(t *testing.T) {
	_, err := NewProduct("", decimal.NewFromInt(10))
	assert.Error(t, err)

	_, err = NewProduct("Jacket", decimal.NewFromInt(-1))
	assert.Error(t, err)
}

func TestProduct_Update(t *testing.T) {
	product, _ := NewProduct("Jacket", decimal.NewFromInt(40))

	err := product.Update("Jacket (wool)", "warm winter jacket", decimal.NewFromInt(45))
	assert.NoError(t, err)
	assert.Equal(t, "Jacket (wool)", product.Title)
	assert.Equal(t, "warm winter jacket", product.Description)
	assert.True(t, decimal.NewFromInt(45).Equal(product.Price))

	err = product.Update("", "", decimal.NewFromInt(45))
	assert.Error(t, err)
}

func TestProduct_MarkSold(t *testing.T) {
	product, _ := NewProduct("Jacket", decimal.NewFromInt(40))

	err := product.MarkSold()
	assert.NoError(t, err)
	assert.True(t, product.IsSold())

	// One-directional: selling twice or reviving is rejected
	assert.Error(t, product.MarkSold())
	assert.Error(t, product.MarkPosted())
	assert.Error(t, product.Deactivate())
}

func TestProduct_IsListable(t *testing.T) {
	product, _ := NewProduct("Jacket", decimal.NewFromInt(40))
	assert.True(t, product.IsListable())

	assert.NoError(t, product.MarkPosted())
	assert.True(t, product.IsListable())

	assert.NoError(t, product.Deactivate())
	assert.False(t, product.IsListable())
}

func TestProductStatus_IsValid(t *testing.T) {
	assert.True(t, ProductStatusActive.IsValid())
	assert.True(t, ProductStatusSold.IsValid())
	assert.False(t, ProductStatus("bogus").IsValid())
}
