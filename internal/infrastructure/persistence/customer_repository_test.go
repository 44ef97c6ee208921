package persistence

import (
	"context"
	"testing"

	"github.com/erp/backoffice/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCustomerRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	c := seedCustomer(t, db, "Ayesha")
	require.NoError(t, c.Update("Ayesha Khan", "0300-7654321", "ayesha@example.com", "12 Mall Road", "VIP"))
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ayesha Khan", found.Name)
	assert.Equal(t, "12 Mall Road", found.Address)
	assert.Equal(t, c.Version, found.Version)
	assert.True(t, found.IsActive)
}

func TestGormCustomerRepository_FindActiveByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	c := seedCustomer(t, db, "Bilal")
	require.NoError(t, c.Deactivate())
	require.NoError(t, repo.Save(ctx, c))

	_, err := repo.FindActiveByID(ctx, c.ID)
	assert.True(t, shared.IsNotFound(err))

	found, err := repo.FindByID(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.True(t, shared.IsNotFound(err))
}

func TestGormCustomerRepository_FindAllSearchAndPaging(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCustomerRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Beta", "Gamma", "Alphonse"} {
		seedCustomer(t, db, name)
	}
	hidden := seedCustomer(t, db, "Alpine")
	require.NoError(t, hidden.Deactivate())
	require.NoError(t, repo.Save(ctx, hidden))

	filter := shared.Filter{Search: "ALP", OrderBy: "name", OrderDir: "asc", Page: 1, PageSize: 10}
	found, err := repo.FindAll(ctx, filter)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Alpha", found[0].Name)
	assert.Equal(t, "Alphonse", found[1].Name)

	count, err := repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	filter.IncludeInactive = true
	count, err = repo.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page2, err := repo.FindAll(ctx, shared.Filter{OrderBy: "name", OrderDir: "asc", Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "Gamma", page2[0].Name)
}
