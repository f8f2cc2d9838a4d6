package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt")
	}
	if _, ok := AddOverflowSafe(math.MinInt, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if p, ok := MulOverflowSafe(6, 7); !ok || p != 42 {
		t.Fatalf("MulOverflowSafe(6,7)=%d,%v want 42,true", p, ok)
	}
	if p, ok := MulOverflowSafe(0, math.MaxInt); !ok || p != 0 {
		t.Fatalf("MulOverflowSafe(0,MaxInt)=%d,%v want 0,true", p, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt/2+1, 2); ok {
		t.Fatalf("expected overflow")
	}
	if _, ok := MulOverflowSafe(-1, 8); ok {
		t.Fatalf("expected negative operand to be rejected")
	}
}

func TestCheckRange(t *testing.T) {
	tests := []struct {
		name    string
		bufLen  int
		off     int
		count   int
		elem    int
		wantEnd int
		wantErr bool
	}{
		{"fits", 64, 8, 4, 8, 40, false},
		{"exact", 64, 0, 8, 8, 64, false},
		{"past_end", 64, 8, 8, 8, 0, true},
		{"negative_offset", 64, -8, 1, 8, 0, true},
		{"negative_count", 64, 0, -1, 8, 0, true},
		{"overflow", 64, 0, math.MaxInt, 8, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			end, err := CheckRange(tt.bufLen, tt.off, tt.count, tt.elem)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got end=%d", end)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if end != tt.wantEnd {
				t.Fatalf("end=%d want %d", end, tt.wantEnd)
			}
		})
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if got, _ := Slice(data, 1, 3); cap(got) != 3 {
		t.Fatalf("Slice cap=%d want 3", cap(got))
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}

	if _, ok := Slice(data, -1, 1); ok {
		t.Fatalf("Slice should reject negative offset")
	}
	if _, ok := Slice(data, 1, -1); ok {
		t.Fatalf("Slice should reject negative length")
	}
}
