package cli

import (
	cliContext "github.com/vidgen/vidgen/core/cli/context"
)

var CLI struct {
	cliContext.Context `embed:""`

	Local  LocalCMD  `cmd:"" help:"Generate a video from a prompt with a diffusion pipeline and a motion stub. This is the default command" default:"withargs"`
	Remote RemoteCMD `cmd:"" help:"Generate a video with a hosted text-to-video model and download it"`
	Serve  ServeCMD  `cmd:"" help:"Serve the generators over HTTP"`
	Device DeviceCMD `cmd:"" help:"Print the compute device the local generator would use"`
}
