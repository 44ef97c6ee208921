package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	p, err := NewProduct("Oak Chair", "oak-01", decimal.RequireFromString("4500.005"), 12)
	require.NoError(t, err)

	assert.Equal(t, "OAK-01", p.SKU)
	assert.True(t, p.Price.Equal(decimal.RequireFromString("4500.01")))
	assert.Equal(t, 12, p.Quantity)

	_, err = NewProduct("", "", decimal.Zero, 0)
	assert.Error(t, err)
	_, err = NewProduct("Chair", "", decimal.NewFromInt(-1), 0)
	assert.Error(t, err)
	_, err = NewProduct("Chair", "", decimal.Zero, -1)
	assert.Error(t, err)
}

func TestProduct_Stock(t *testing.T) {
	p, err := NewProduct("Oak Chair", "", decimal.NewFromInt(100), 3)
	require.NoError(t, err)

	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))
	assert.False(t, p.HasStock(0))
	assert.NoError(t, p.EnsureStock(2))
	assert.Error(t, p.EnsureStock(5))

	require.NoError(t, p.AdjustStock(-3))
	assert.Equal(t, 0, p.Quantity)
	assert.Error(t, p.AdjustStock(-1))
	require.NoError(t, p.AdjustStock(10))
	assert.Equal(t, 10, p.Quantity)
}
