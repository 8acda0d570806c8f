// Package platform detects address width and available memory for sizing
// batch insert chunks.
package platform

import (
	"log/slog"
	"strconv"

	"github.com/shirou/gopsutil/v4/mem"
)

const (
	// DefaultChunkSize is used on 64-bit hosts with enough free memory.
	DefaultChunkSize = 500
	// ConstrainedChunkSize is used on 32-bit hosts or when free memory is low.
	ConstrainedChunkSize = 50
	// lowMemoryThreshold is the free-memory floor below which the
	// constrained chunk size applies even on 64-bit hosts.
	lowMemoryThreshold = 256 << 20 // 256 MiB
)

// Diagnostics holds the platform facts the chunk policy depends on.
type Diagnostics struct {
	// AddressWidth is the pointer width of the running process in bits.
	AddressWidth int
	// AvailableMemory is a best-effort estimate of free memory in bytes.
	// Zero means the estimate could not be determined.
	AvailableMemory uint64
}

// Detect gathers diagnostics for the running process. Failure to read the
// memory statistics is not an error; the estimate is simply left at zero and
// the policy falls back to the conservative chunk size.
func Detect() Diagnostics {
	d := Diagnostics{AddressWidth: strconv.IntSize}

	vm, err := mem.VirtualMemory()
	if err != nil {
		slog.Debug("Could not determine available memory", "error", err)
		return d
	}
	d.AvailableMemory = vm.Available
	return d
}

// ChunkPolicy maps platform diagnostics to a batch chunk size. Pure function
// so tests can exercise constrained platforms without running on one.
func ChunkPolicy(d Diagnostics) int {
	if d.AddressWidth <= 32 {
		return ConstrainedChunkSize
	}
	if d.AvailableMemory > 0 && d.AvailableMemory < lowMemoryThreshold {
		return ConstrainedChunkSize
	}
	return DefaultChunkSize
}
