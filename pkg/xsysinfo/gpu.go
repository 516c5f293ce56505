package xsysinfo

import (
	"strings"
	"sync"

	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/gpu"
)

// GPU vendor constants
const (
	VendorNVIDIA  = "nvidia"
	VendorAMD     = "amd"
	VendorIntel   = "intel"
	VendorUnknown = "unknown"
)

var (
	gpuCache     []*gpu.GraphicsCard
	gpuCacheOnce sync.Once
	gpuCacheErr  error
)

// GPUs returns the graphics cards detected on the host. Detection runs once
// per process.
func GPUs() ([]*gpu.GraphicsCard, error) {
	gpuCacheOnce.Do(func() {
		gpu, err := ghw.GPU()
		if err != nil {
			gpuCacheErr = err
			return
		}
		gpuCache = gpu.GraphicsCards
	})

	return gpuCache, gpuCacheErr
}

func HasGPU(vendor string) bool {
	gpus, err := GPUs()
	if err != nil {
		return false
	}
	if vendor == "" {
		return len(gpus) > 0
	}
	for _, gpu := range gpus {
		if strings.Contains(strings.ToLower(gpu.String()), vendor) {
			return true
		}
	}
	return false
}

// GPUVendor maps a card to one of the vendor constants.
func GPUVendor(card *gpu.GraphicsCard) string {
	s := strings.ToLower(card.String())
	for _, v := range []string{VendorNVIDIA, VendorAMD, VendorIntel} {
		if strings.Contains(s, v) {
			return v
		}
	}
	return VendorUnknown
}
