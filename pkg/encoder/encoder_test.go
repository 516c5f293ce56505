package encoder_test

import (
	"context"
	"image"
	"image/color"
	"image/gif"
	"os"
	"os/exec"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/vidgen/vidgen/pkg/encoder"
)

func solidFrames(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for x := 0; x < 32; x++ {
			for y := 0; y < 32; y++ {
				img.Set(x, y, color.RGBA{R: uint8(i * 40), B: 200, A: 255})
			}
		}
		frames[i] = img
	}
	return frames
}

var _ = Describe("Encoders", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "encoder")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	Context("New", func() {
		It("maps formats to encoders", func() {
			e, err := New("mp4")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Extension()).To(Equal(".mp4"))

			e, err = New(".gif")
			Expect(err).ToNot(HaveOccurred())
			Expect(e.Extension()).To(Equal(".gif"))

			_, err = New("avi")
			Expect(err).To(HaveOccurred())
		})
	})

	Context("GIF", func() {
		It("writes every frame at the requested rate", func() {
			dst := filepath.Join(dir, "clip.gif")
			Expect((&GIF{}).Encode(context.Background(), solidFrames(4), 2, dst)).To(Succeed())

			f, err := os.Open(dst)
			Expect(err).ToNot(HaveOccurred())
			defer f.Close()
			anim, err := gif.DecodeAll(f)
			Expect(err).ToNot(HaveOccurred())
			Expect(anim.Image).To(HaveLen(4))
			Expect(anim.Delay).To(Equal([]int{50, 50, 50, 50}))
		})

		It("rejects empty sequences and bad rates", func() {
			dst := filepath.Join(dir, "clip.gif")
			Expect((&GIF{}).Encode(context.Background(), nil, 2, dst)).ToNot(Succeed())
			Expect((&GIF{}).Encode(context.Background(), solidFrames(1), 0, dst)).ToNot(Succeed())
			Expect(dst).ToNot(BeAnExistingFile())
		})

		It("converts rates to delays", func() {
			Expect(Delay(8)).To(Equal(12))
			Expect(Delay(2)).To(Equal(50))
			Expect(Delay(500)).To(Equal(1))
		})
	})

	Context("FFmpeg", func() {
		It("builds an image2pipe command at the requested rate", func() {
			args := FFmpegArgs(&FFmpeg{}, 8, "/tmp/out.mp4")
			Expect(args).To(ContainElements("image2pipe", "libx264", "yuv420p"))
			Expect(args[len(args)-1]).To(Equal("/tmp/out.mp4"))
			Expect(args).To(ContainElement("8"))
			Expect(args).To(ContainElement("23"))
		})

		It("fails cleanly when the binary is missing", func() {
			err := (&FFmpeg{Binary: "definitely-not-ffmpeg"}).Encode(context.Background(), solidFrames(2), 2, filepath.Join(dir, "x.mp4"))
			Expect(err).To(MatchError(ContainSubstring("ffmpeg not found")))
		})

		It("encodes an mp4 when ffmpeg is installed", func() {
			if _, err := exec.LookPath("ffmpeg"); err != nil {
				Skip("ffmpeg not available")
			}
			dst := filepath.Join(dir, "clip.mp4")
			Expect((&FFmpeg{}).Encode(context.Background(), solidFrames(4), 2, dst)).To(Succeed())
			info, err := os.Stat(dst)
			Expect(err).ToNot(HaveOccurred())
			Expect(info.Size()).To(BeNumerically(">", 0))
		})
	})
})
