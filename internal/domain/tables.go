package domain

import "fmt"

// ScalingTable holds the additive base and multiplicative unit for every slot
// of a group. Indices line up with [Coded]; index 0 is unused.
type ScalingTable struct {
	Base [SlotCount]float64
	Unit [SlotCount]float64
}

// Table returns a copy of the scaling table for c.
func Table(c Category) (ScalingTable, error) {
	t, ok := scalingTables[c]
	if !ok {
		return ScalingTable{}, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return t, nil
}

// scalingTables is the MSG.1 BLOCK DATA. Rows after the header line are the
// S1, S3, S5, M, N, S, D, H, X, Y blocks.
var scalingTables = map[Category]ScalingTable{
	Group3: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-501, -8801, -1, -1,
			-501, -8801, -1, -1,
			-501, -8801, -1, -1,
			-501, -8801, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.01, 0.01, 0.01, 0.1,
			0.01, 0.01, 0.01, 0.1,
			0.01, 0.01, 0.01, 0.1,
			0.01, 0.01, 0.01, 0.1,
			1, 1, 1, 1,
			0.01, 0.01, 0.01, 0.1,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
	Group4: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-1, -10221, -10221, 86999,
			-1, -10221, -10221, 86999,
			-1, -10221, -10221, 86999,
			-1, -10221, -10221, 86999,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.01, 0.01, 0.01, 0.01,
			0.01, 0.01, 0.01, 0.01,
			0.01, 0.01, 0.01, 0.01,
			0.01, 0.01, 0.01, 0.01,
			1, 1, 1, 1,
			0.01, 0.01, 0.01, 0.01,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
	Group5: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-1, -1, -30001, -30001,
			-1, -1, -30001, -30001,
			-1, -1, -30001, -30001,
			-1, -1, -30001, -30001,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			1, 1, 1, 1,
			0.1, 0.1, 0.1, 0.1,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
	Group6: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-6301, -10001, -4001, -10001,
			-6301, -10001, -4001, -10001,
			-6301, -10001, -4001, -10001,
			-6301, -10001, -4001, -10001,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.01, 0.1, 0.01, 0.1,
			0.01, 0.1, 0.01, 0.1,
			0.01, 0.1, 0.01, 0.1,
			0.01, 0.1, 0.01, 0.1,
			1, 1, 1, 1,
			0.01, 0.1, 0.01, 0.1,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
	Group7: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-20001, -20001, -10001, -10001,
			-20001, -20001, -10001, -10001,
			-20001, -20001, -10001, -10001,
			-20001, -20001, -10001, -10001,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			1, 1, 1, 1,
			0.1, 0.1, 0.1, 0.1,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
	Group9: {
		Base: [SlotCount]float64{
			0, 1799, 0, -1, -1, -181, -1, -1, 0, 0,
			-10001, -10001, -1, -1,
			-10001, -10001, -1, -1,
			-10001, -10001, -1, -1,
			-10001, -10001, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			0, 0, 0, 0,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
			-1, -1, -1, -1,
		},
		Unit: [SlotCount]float64{
			0, 1, 1, 1, 0.5, 0.5, 1, 1, 1, 1,
			0.1, 0.1, 0.5, 5,
			0.1, 0.1, 0.5, 5,
			0.1, 0.1, 0.5, 5,
			0.1, 0.1, 0.5, 5,
			1, 1, 1, 1,
			0.1, 0.1, 0.5, 5,
			2, 2, 2, 2,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
			0.1, 0.1, 0.1, 0.1,
		},
	},
}
