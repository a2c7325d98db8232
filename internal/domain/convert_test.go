package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_GoldenHeader(t *testing.T) {
	table, err := Table(Group3)
	require.NoError(t, err)

	p := Convert(goldenCoded(), table)

	assert.Equal(t, 1960.0, p[1], "year")
	assert.Equal(t, 1.0, p[2], "month")
	assert.Equal(t, 4.0, p[3], "box size")
	assert.Equal(t, 300.0, p[4], "longitude")
	assert.Equal(t, -47.0, p[5], "latitude")
	assert.Equal(t, 1.0, p[6], "platform id 1")
	assert.Equal(t, 5.0, p[7], "platform id 2")
	assert.Equal(t, 3.0, p[8], "group")
	assert.Equal(t, 10.0, p[9], "checksum")
}

func TestConvert_MissingSubstitution(t *testing.T) {
	coded := goldenCoded()
	for _, c := range Categories() {
		table, err := Table(c)
		require.NoError(t, err)

		p := Convert(coded, table)
		for i := 10; i < SlotCount; i++ {
			if coded[i] == 0 {
				assert.Equal(t, Missing, p[i], "%s slot %d", c, i)
				continue
			}
			want := (float64(coded[i]) + table.Base[i]) * table.Unit[i]
			assert.Equal(t, want, p[i], "%s slot %d", c, i)
		}
	}
}

func TestConvert_HeaderZeroIsScaled(t *testing.T) {
	table, err := Table(Group4)
	require.NoError(t, err)

	p := Convert(Coded{}, table)

	assert.Equal(t, 1799.0, p[1])
	assert.Equal(t, -0.5, p[4])
	assert.Equal(t, -90.5, p[5])
	for i := 10; i < SlotCount; i++ {
		assert.Equal(t, Missing, p[i], "slot %d", i)
	}
}

func TestConvert_KnownValues(t *testing.T) {
	table, err := Table(Group3)
	require.NoError(t, err)

	p := Convert(goldenCoded(), table)

	assert.InDelta(t, 41.59, p[10], 1e-9)   // (4660 - 501) * 0.01
	assert.InDelta(t, 655.34, p[12], 1e-9)  // (65535 - 1) * 0.01
	assert.InDelta(t, 25.7, p[13], 1e-9)    // (258 - 1) * 0.1
	assert.InDelta(t, 2600.0, p[26], 1e-9)  // count, unscaled
	assert.InDelta(t, 2.0, p[34], 1e-9)     // (1 + 0) * 2
	assert.InDelta(t, 1.4, p[48], 1e-9)     // (15 - 1) * 0.1
	assert.Equal(t, Missing, p[49])
}
