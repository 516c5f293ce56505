package xsysinfo

import (
	"fmt"
	"strings"
)

// Device is the compute target handed to the diffusion pipeline.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
)

// ParseDevice validates a user supplied device preference. An empty string
// means auto.
func ParseDevice(s string) (Device, error) {
	switch d := Device(strings.ToLower(strings.TrimSpace(s))); d {
	case "", DeviceAuto:
		return DeviceAuto, nil
	case DeviceCUDA, DeviceCPU:
		return d, nil
	default:
		return "", fmt.Errorf("unknown device %q (expected auto, cuda or cpu)", s)
	}
}

// SelectDevice resolves a preference to a concrete target: cuda when an
// NVIDIA card is present (or explicitly requested), cpu otherwise.
func SelectDevice(preference Device) Device {
	return selectDevice(preference, HasGPU)
}

func selectDevice(preference Device, hasGPU func(vendor string) bool) Device {
	switch preference {
	case DeviceCUDA, DeviceCPU:
		return preference
	}
	if hasGPU(VendorNVIDIA) {
		return DeviceCUDA
	}
	return DeviceCPU
}
