package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"4096", 4096},
		{"64k", 64 << 10},
		{"64K", 64 << 10},
		{"64KiB", 64 << 10},
		{"64 kb", 64 << 10},
		{"1m", 1 << 20},
		{"2MB", 2 << 20},
		{"1g", 1 << 30},
		{"512b", 512},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSize_Invalid(t *testing.T) {
	for _, in := range []string{"", "k", "-1", "0", "12q", "1.5m", "99999999999999999999"} {
		_, err := parseSize(in)
		assert.Error(t, err, in)
	}
}
