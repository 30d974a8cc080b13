package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		limit      int64
		totalPages int64
	}{
		{"empty", 0, 10, 0},
		{"exact", 20, 10, 2},
		{"remainder", 21, 10, 3},
		{"zero limit", 5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.total, 1, tt.limit)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
		})
	}
}

func TestNormalize(t *testing.T) {
	page, limit := Normalize(0, 0)
	assert.Equal(t, int64(1), page)
	assert.Equal(t, DefaultLimit, limit)

	page, limit = Normalize(3, 500)
	assert.Equal(t, int64(3), page)
	assert.Equal(t, MaxLimit, limit)

	assert.Equal(t, 20, Offset(3, 10))
}

func TestNormalize_HugePage(t *testing.T) {
	page, limit := Normalize(math.MaxInt64, 100)
	assert.Equal(t, MaxPage, page)
	assert.Equal(t, int64(100), limit)

	offset := Offset(math.MaxInt64, math.MaxInt64)
	assert.Equal(t, int((MaxPage-1)*MaxLimit), offset)
	assert.Positive(t, offset)
}
