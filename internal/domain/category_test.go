package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	for _, id := range []int{3, 4, 5, 6, 7, 9} {
		c, err := ParseCategory(id)
		require.NoError(t, err)
		assert.Equal(t, Category(id), c)
	}
	for _, id := range []int{0, 1, 2, 8, 10, 15} {
		_, err := ParseCategory(id)
		require.ErrorIs(t, err, ErrUnknownCategory, "id %d", id)
	}
}

func TestCategory_Definition(t *testing.T) {
	def, err := Group3.Definition()
	require.NoError(t, err)
	assert.Equal(t, "Basic Ocean-Atmosphere Variables", def.Name)
	assert.Equal(t, [VariableCount]string{"sea_surface_temp", "air_temp", "specific_humidity", "rainfall_rate"}, def.Variables)

	def, err = Group9.Definition()
	require.NoError(t, err)
	assert.Equal(t, "wind_cubed_b2", def.Variables[3])

	_, err = Category(8).Definition()
	require.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategoryFromName(t *testing.T) {
	tests := []struct {
		name   string
		want   Category
		wantOK bool
	}{
		{"MSG1_R3.0.0_ENH_G3_1960-1969.tar", Group3, true},
		{"/data/MSG1_R3.0.0_ENH_G9_2010-2019.tar", Group9, true},
		{"MSG1_R3.0.0_ENH_G7_1990-1999.tar", Group7, true},
		{"MSG1_R3.0.0_ENH_G8_1990-1999.tar", Category(8), false},
		{"MSG1_R3.0.0_ENH_1990-1999.tar", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CategoryFromName(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGroupKey(t *testing.T) {
	for _, c := range Categories() {
		key := GroupKey(c)
		back, err := ParseGroupKey(key)
		require.NoError(t, err)
		assert.Equal(t, c, back)
	}
	assert.Equal(t, "3", GroupKey(Group3))

	for _, key := range []string{MergedKey, "8", "", "G3"} {
		_, err := ParseGroupKey(key)
		require.ErrorIs(t, err, ErrUnknownCategory, "key %q", key)
	}
}
