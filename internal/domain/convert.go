package domain

// Missing is substituted for data slots whose coded value is zero. No
// attainable physical value equals it.
const Missing = -9999.0

// Physical holds the converted slots of one record, 1-indexed like Coded.
type Physical [SlotCount]float64

// Convert applies (coded + base) * unit to every slot. Header slots are always
// converted; data slots with a coded value of zero become Missing.
func Convert(c Coded, t ScalingTable) Physical {
	var p Physical
	for i := 1; i < firstDataSlot; i++ {
		p[i] = (float64(c[i]) + t.Base[i]) * t.Unit[i]
	}
	for i := firstDataSlot; i < SlotCount; i++ {
		if c[i] == 0 {
			p[i] = Missing
			continue
		}
		p[i] = (float64(c[i]) + t.Base[i]) * t.Unit[i]
	}
	return p
}
