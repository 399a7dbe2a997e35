package backend

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Feature is a host SIMD capability relevant to the CPU and vector backends.
type Feature struct {
	Name      string
	Supported bool
}

// Features reports the SIMD extensions of the host for its architecture.
func Features() []Feature {
	switch runtime.GOARCH {
	case "amd64", "386":
		return []Feature{
			{"SSE4.1", cpu.X86.HasSSE41},
			{"AVX", cpu.X86.HasAVX},
			{"AVX2", cpu.X86.HasAVX2},
			{"FMA", cpu.X86.HasFMA},
			{"AVX-512F", cpu.X86.HasAVX512F},
			{"AVX-512BF16", cpu.X86.HasAVX512BF16},
		}
	case "arm64":
		return []Feature{
			{"ASIMD", cpu.ARM64.HasASIMD},
			{"FPHP", cpu.ARM64.HasFPHP},
			{"ASIMDHP", cpu.ARM64.HasASIMDHP},
			{"SVE", cpu.ARM64.HasSVE},
			{"SVE2", cpu.ARM64.HasSVE2},
		}
	default:
		return nil
	}
}
