package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fullCoded returns a record of group c with every data slot reported.
func fullCoded(c Category, yearOffset, month int) Coded {
	var coded Coded
	coded[1] = yearOffset
	coded[2] = month
	coded[3] = 2
	coded[4] = 401
	coded[5] = 201
	coded[6] = 1
	coded[7] = 1
	coded[8] = int(c)
	coded[9] = 7
	for slot := 10; slot <= 33; slot++ {
		coded[slot] = 1000 + slot
	}
	for slot := 34; slot <= 49; slot++ {
		coded[slot] = slot%15 + 1
	}
	return coded
}

func encodeRecord(t *testing.T, c Coded) []byte {
	t.Helper()
	b, err := Encode(c)
	require.NoError(t, err)
	return b[:]
}

// desync clears the sync marker of a record.
func desync(b []byte) []byte {
	out := append([]byte(nil), b...)
	out[1] = 0x02
	return out
}
