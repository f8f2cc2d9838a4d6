package buf

import "testing"

func TestI64LERoundTrip(t *testing.T) {
	b := make([]byte, 8)
	for _, v := range []int64{0, 1, -1, 1 << 40, -(1 << 40)} {
		PutI64LE(b, v)
		if got := I64LE(b); got != v {
			t.Fatalf("I64LE=%d want %d", got, v)
		}
	}
	if b[0] != 0x00 || b[5] != 0xff {
		t.Fatalf("unexpected byte order: % x", b)
	}
}

func TestI64LEShort(t *testing.T) {
	if got := I64LE([]byte{1, 2, 3}); got != 0 {
		t.Fatalf("I64LE on short slice=%d want 0", got)
	}
}
