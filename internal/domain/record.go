package domain

import "fmt"

const (
	// RecordSize is the fixed length of a packed MSG.1 record.
	RecordSize = 64

	// SlotCount is the length of a coded or physical record. Slot 0 is unused.
	SlotCount = 50

	firstDataSlot   = 10
	firstNibbleSlot = 34
	firstWordByte   = 8
	firstNibbleByte = 56
)

// Coded holds the unpacked integer slots of one record, 1-indexed.
type Coded [SlotCount]int

// HasSync reports whether a window starts a genuine record.
func HasSync(b []byte) bool {
	return len(b) > 1 && b[1]%16 == 1
}

// Decode unpacks a 64-byte record into its coded slots. The arithmetic mirrors
// the format's UNPACK routine byte for byte, including truncating division.
func Decode(b []byte) (Coded, error) {
	var c Coded
	if len(b) != RecordSize {
		return c, fmt.Errorf("%w: %d bytes", ErrMalformedRecord, len(b))
	}

	ch := func(i int) int { return int(b[i]) }

	c[1] = ch(2)
	c[2] = ch(3) / 16
	c[3] = (ch(3) % 16) / 2
	c[4] = ((ch(3)%2)*256+ch(4))*2 + ch(5)/128
	c[5] = (ch(5)%128)*4 + ch(6)/64
	c[6] = (ch(6) / 8) % 8
	c[7] = ch(6) % 8
	c[8] = ch(7) / 16
	c[9] = ch(7) % 16

	for slot := firstDataSlot; slot < firstNibbleSlot; slot++ {
		i := firstWordByte + 2*(slot-firstDataSlot)
		c[slot] = ch(i)*256 + ch(i+1)
	}

	for slot := firstNibbleSlot; slot < SlotCount; slot += 2 {
		v := ch(firstNibbleByte + (slot-firstNibbleSlot)/2)
		c[slot] = v / 16
		c[slot+1] = v % 16
	}

	return c, nil
}

// slotBits is the width of every header slot; data slots are 16 or 4 bits.
var slotBits = [firstDataSlot]uint{0, 8, 4, 3, 10, 9, 3, 3, 4, 4}

// Encode packs coded slots into a record with the sync marker set. It is the
// inverse of Decode and is used to build fixtures.
func Encode(c Coded) ([RecordSize]byte, error) {
	var b [RecordSize]byte
	for slot := 1; slot < SlotCount; slot++ {
		if err := checkSlot(slot, c[slot]); err != nil {
			return b, err
		}
	}

	b[1] = 0x01
	b[2] = byte(c[1])
	b[3] = byte(c[2]<<4 | c[3]<<1 | (c[4]>>9)&1)
	b[4] = byte((c[4] >> 1) & 0xFF)
	b[5] = byte((c[4]&1)<<7 | (c[5]>>2)&0x7F)
	b[6] = byte((c[5]&3)<<6 | c[6]<<3 | c[7])
	b[7] = byte(c[8]<<4 | c[9])

	for slot := firstDataSlot; slot < firstNibbleSlot; slot++ {
		i := firstWordByte + 2*(slot-firstDataSlot)
		b[i] = byte(c[slot] >> 8)
		b[i+1] = byte(c[slot])
	}

	for slot := firstNibbleSlot; slot < SlotCount; slot += 2 {
		b[firstNibbleByte+(slot-firstNibbleSlot)/2] = byte(c[slot]<<4 | c[slot+1])
	}

	return b, nil
}

func checkSlot(slot, v int) error {
	var bits uint
	switch {
	case slot < firstDataSlot:
		bits = slotBits[slot]
	case slot < firstNibbleSlot:
		bits = 16
	default:
		bits = 4
	}
	if v < 0 || v >= 1<<bits {
		return fmt.Errorf("%w: slot %d = %d (%d bits)", ErrSlotRange, slot, v, bits)
	}
	return nil
}
