package util

import "runtime"

// HeapAllocBytes reports the live heap, for debug summaries after large scans.
func HeapAllocBytes() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc
}
