package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_KnownCategories(t *testing.T) {
	for _, c := range Categories() {
		t.Run(c.String(), func(t *testing.T) {
			table, err := Table(c)
			require.NoError(t, err)

			// Header block is shared by every group.
			assert.Equal(t, [10]float64{0, 1799, 0, -1, -1, -181, -1, -1, 0, 0}, [10]float64(table.Base[:10]))
			assert.Equal(t, [10]float64{0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1}, [10]float64(table.Unit[:10]))

			// S1, S3, S5 and M blocks repeat the same four entries.
			for block := 1; block < 4; block++ {
				for v := range VariableCount {
					assert.Equal(t, table.Base[10+v], table.Base[10+block*4+v])
					assert.Equal(t, table.Unit[10+v], table.Unit[10+block*4+v])
				}
			}

			// N block is an unscaled count, D block is in units of two days.
			for slot := 26; slot <= 29; slot++ {
				assert.Equal(t, 0.0, table.Base[slot])
				assert.Equal(t, 1.0, table.Unit[slot])
			}
			for slot := 34; slot <= 37; slot++ {
				assert.Equal(t, 2.0, table.Unit[slot])
			}
		})
	}
}

func TestTable_SpotValues(t *testing.T) {
	tests := []struct {
		c    Category
		slot int
		base float64
		unit float64
	}{
		{Group3, 10, -501, 0.01},
		{Group3, 11, -8801, 0.01},
		{Group3, 13, -1, 0.1},
		{Group4, 13, 86999, 0.01},
		{Group4, 11, -10221, 0.01},
		{Group5, 12, -30001, 0.1},
		{Group6, 10, -6301, 0.01},
		{Group6, 11, -10001, 0.1},
		{Group6, 31, -1, 0.1},
		{Group7, 10, -20001, 0.1},
		{Group9, 12, -1, 0.5},
		{Group9, 13, -1, 5},
		{Group9, 33, -1, 5},
		{Group9, 49, -1, 0.1},
	}
	for _, tt := range tests {
		table, err := Table(tt.c)
		require.NoError(t, err)
		assert.Equal(t, tt.base, table.Base[tt.slot], "%s base[%d]", tt.c, tt.slot)
		assert.Equal(t, tt.unit, table.Unit[tt.slot], "%s unit[%d]", tt.c, tt.slot)
	}
}

func TestTable_UnknownCategory(t *testing.T) {
	for _, id := range []int{0, 1, 2, 8, 10, 15, -3} {
		_, err := Table(Category(id))
		require.ErrorIs(t, err, ErrUnknownCategory, "category %d", id)
	}
}

func TestTable_ReturnsCopy(t *testing.T) {
	table, err := Table(Group3)
	require.NoError(t, err)
	table.Base[10] = 42

	again, err := Table(Group3)
	require.NoError(t, err)
	assert.Equal(t, -501.0, again.Base[10])
}
