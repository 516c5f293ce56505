package cli

import (
	"fmt"
	"strings"

	cliContext "github.com/vidgen/vidgen/core/cli/context"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

type DeviceCMD struct {
	Device string `env:"VIDGEN_DEVICE" default:"auto" enum:"auto,cuda,cpu" help:"Requested device [${enum}]"`
}

func (d *DeviceCMD) Run(ctx *cliContext.Context) error {
	pref, err := xsysinfo.ParseDevice(d.Device)
	if err != nil {
		return err
	}

	fmt.Printf("Selected device: %s\n", xsysinfo.SelectDevice(pref))
	fmt.Printf("CPU: %s (%d physical cores)\n", xsysinfo.CPUBrand(), xsysinfo.CPUPhysicalCores())
	if caps := xsysinfo.CPUCapabilities(); len(caps) > 0 {
		fmt.Printf("CPU flags: %s\n", strings.Join(caps, ", "))
	}

	gpus, err := xsysinfo.GPUs()
	if err != nil {
		fmt.Printf("GPU detection failed: %v\n", err)
		return nil
	}
	if len(gpus) == 0 {
		fmt.Println("No GPUs detected")
		return nil
	}
	for _, gpu := range gpus {
		fmt.Printf(" - %s (%s)\n", gpu.String(), xsysinfo.GPUVendor(gpu))
	}
	return nil
}
