package xsysinfo

import (
	"sort"

	"github.com/klauspost/cpuid/v2"
)

// CPUCapabilities lists the instruction set extensions of the host CPU that
// matter for the CPU fallback.
func CPUCapabilities() []string {
	ret := []string{}
	for name, id := range map[string]cpuid.FeatureID{
		"avx":     cpuid.AVX,
		"avx2":    cpuid.AVX2,
		"avx512f": cpuid.AVX512F,
		"f16c":    cpuid.F16C,
		"fma3":    cpuid.FMA3,
	} {
		if cpuid.CPU.Supports(id) {
			ret = append(ret, name)
		}
	}

	// order
	sort.Strings(ret)
	return ret
}

func CPUBrand() string {
	return cpuid.CPU.BrandName
}

func CPUPhysicalCores() int {
	if cpuid.CPU.PhysicalCores == 0 {
		return 1
	}
	return cpuid.CPU.PhysicalCores
}
