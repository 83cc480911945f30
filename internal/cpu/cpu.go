// Package cpu probes the host's SIMD capabilities. The default options use
// the detected vector width to decide whether padding kernel stencils to a
// multiple of four lanes is worthwhile.
package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features describes the SIMD capabilities relevant to kernel evaluation.
type Features struct {
	HasAVX2   bool
	HasAVX512 bool
	HasNEON   bool

	// VectorLanes is the number of float64 lanes in the widest available
	// vector unit, or 1 when no vector unit was detected.
	VectorLanes int
}

// DetectFeatures inspects the host CPU.
func DetectFeatures() Features {
	f := Features{VectorLanes: 1}

	switch runtime.GOARCH {
	case "amd64", "386":
		f.HasAVX2 = cpu.X86.HasAVX2
		f.HasAVX512 = cpu.X86.HasAVX512F

		switch {
		case f.HasAVX512:
			f.VectorLanes = 8
		case f.HasAVX2:
			f.VectorLanes = 4
		case cpu.X86.HasSSE2:
			f.VectorLanes = 2
		}
	case "arm64":
		f.HasNEON = true
		f.VectorLanes = 2
	}

	return f
}
