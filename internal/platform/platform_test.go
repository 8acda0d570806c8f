package platform

import (
	"strconv"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestDetect_AddressWidth(t *testing.T) {
	d := Detect()
	assert.Equal(t, strconv.IntSize, d.AddressWidth)
}

func TestChunkPolicy(t *testing.T) {
	tests := []struct {
		name string
		diag Diagnostics
		want int
	}{
		{
			name: "32-bit host",
			diag: Diagnostics{AddressWidth: 32, AvailableMemory: 8 << 30},
			want: ConstrainedChunkSize,
		},
		{
			name: "64-bit host with plenty of memory",
			diag: Diagnostics{AddressWidth: 64, AvailableMemory: 8 << 30},
			want: DefaultChunkSize,
		},
		{
			name: "64-bit host with low memory",
			diag: Diagnostics{AddressWidth: 64, AvailableMemory: 64 << 20},
			want: ConstrainedChunkSize,
		},
		{
			name: "unknown memory falls back to default",
			diag: Diagnostics{AddressWidth: 64, AvailableMemory: 0},
			want: DefaultChunkSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ChunkPolicy(tt.diag))
		})
	}
}
