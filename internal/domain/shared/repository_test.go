package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Normalize(t *testing.T) {
	f := Filter{Page: 0, PageSize: 500, OrderDir: "sideways"}.Normalize()

	assert.Equal(t, 1, f.Page)
	assert.Equal(t, MaxPageSize, f.PageSize)
	assert.Equal(t, "desc", f.OrderDir)
	assert.NotNil(t, f.Filters)
	assert.Equal(t, 0, f.Offset())

	f = Filter{Page: 3, PageSize: 10, OrderDir: "asc"}.Normalize()
	assert.Equal(t, 20, f.Offset())
	assert.Equal(t, "asc", f.OrderDir)
}

func TestNewPaginated(t *testing.T) {
	p := NewPaginated([]int{1, 2}, 45, 2, 20)

	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrevious())

	last := NewPaginated([]int{}, 40, 2, 20)
	assert.Equal(t, 2, last.TotalPages)
	assert.False(t, last.HasNext())

	empty := NewPaginated([]int{}, 0, 1, 20)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext())
	assert.False(t, empty.HasPrevious())
}
