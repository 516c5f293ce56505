package config_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

var _ = Describe("ApplicationConfig", func() {
	It("has the fixed inference defaults", func() {
		c := NewApplicationConfig()
		Expect(c.Steps).To(Equal(25))
		Expect(c.GuidanceScale).To(BeNumerically("~", 7.5))
		Expect(c.Width).To(Equal(512))
		Expect(c.Height).To(Equal(512))
		Expect(c.OutputDir).To(Equal("output_videos"))
		Expect(c.RemoteOutput).To(Equal("output_video.mp4"))
		Expect(c.Device).To(Equal(xsysinfo.DeviceAuto))
		Expect(c.MaxShift).To(Equal(20))
	})

	It("applies options in order", func() {
		c := NewApplicationConfig(
			WithOutputDir("/tmp/out"),
			WithInference(30, 0),
			WithSize(768, 0),
			WithDevice(xsysinfo.DeviceCPU),
			WithReplicateToken("r8_secret"),
			WithRemoteOutput(""),
			DisableMetricsEndpoint,
		)
		Expect(c.OutputDir).To(Equal("/tmp/out"))
		Expect(c.Steps).To(Equal(30))
		Expect(c.GuidanceScale).To(BeNumerically("~", 7.5))
		Expect(c.Width).To(Equal(768))
		Expect(c.Height).To(Equal(512))
		Expect(c.Device).To(Equal(xsysinfo.DeviceCPU))
		Expect(c.Credentials.ReplicateToken).To(Equal("r8_secret"))
		Expect(c.RemoteOutput).To(Equal("output_video.mp4"))
		Expect(c.DisableMetrics).To(BeTrue())
	})

	It("never prints credentials", func() {
		c := NewApplicationConfig(WithReplicateToken("r8_secret"))
		Expect(fmt.Sprint(c.Credentials)).ToNot(ContainSubstring("r8_secret"))
		Expect(fmt.Sprintf("%v", c.Credentials)).To(ContainSubstring("replicate=<redacted>"))
		Expect(fmt.Sprintf("%v", c.Credentials)).To(ContainSubstring("pipeline=<unset>"))
	})
})
