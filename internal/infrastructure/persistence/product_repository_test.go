package persistence

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/domain/catalog"
	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProductRepository_SKU(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	cake, err := catalog.NewProduct("Chocolate Cake", "CAKE-001", dec("1500"), 4)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, cake))

	exists, err := repo.ExistsBySKU(ctx, "CAKE-001", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsBySKU(ctx, "CAKE-001", cake.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a product does not conflict with itself")

	// products without SKU do not collide on the unique index
	for _, name := range []string{"Cupcake", "Brownie"} {
		p, err := catalog.NewProduct(name, "", dec("100"), 0)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
	}

	found, err := repo.FindByID(ctx, cake.ID)
	require.NoError(t, err)
	assert.Equal(t, "CAKE-001", found.SKU)
	assert.True(t, dec("1500").Equal(found.Price))
	assert.Equal(t, 4, found.Quantity)
}

func TestGormProductRepository_FindAllInStock(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProductRepository(db)
	ctx := context.Background()

	for i, qty := range []int{0, 3, 7} {
		p, err := catalog.NewProduct("Product", "SKU-"+string(rune('A'+i)), dec("10"), qty)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, p))
	}

	filter := shared.Filter{Filters: map[string]interface{}{"in_stock": true}, OrderBy: "quantity", OrderDir: "asc"}
	found, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, 3, found[0].Quantity)

	count, err := repo.Count(ctx, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
