package backend_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/vidgen/vidgen/core/backend"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/motion"
	"github.com/vidgen/vidgen/pkg/naming"
	"github.com/vidgen/vidgen/pkg/pipeline"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

// videoServer stands in for a LocalAI instance serving either a
// text-to-video model or an image-only one.
type videoServer struct {
	*httptest.Server
	videoStatus int
	clipStatus  int
	videoCalls  int
	imageCalls  int
	lastVideo   map[string]any
}

func newVideoServer() *videoServer {
	s := &videoServer{videoStatus: http.StatusOK, clipStatus: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"id": "text-to-video-ms-1.7b", "object": "model"}},
		})
	})
	mux.HandleFunc("/video", func(w http.ResponseWriter, r *http.Request) {
		s.videoCalls++
		_ = json.NewDecoder(r.Body).Decode(&s.lastVideo)
		if s.videoStatus != http.StatusOK {
			w.WriteHeader(s.videoStatus)
			w.Write([]byte(`{"error":{"message":"video generation failed","code":500}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"url": "/generated-videos/clip.mp4"}},
		})
	})
	mux.HandleFunc("/generated-videos/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		if s.clipStatus != http.StatusOK {
			w.WriteHeader(s.clipStatus)
			return
		}
		w.Write([]byte("native mp4"))
	})
	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		s.imageCalls++
		var buf bytes.Buffer
		Expect(png.Encode(&buf, gradient(48, 4))).To(Succeed())
		json.NewEncoder(w).Encode(map[string]any{
			"created": 1,
			"data":    []map[string]any{{"b64_json": base64.StdEncoding.EncodeToString(buf.Bytes())}},
		})
	})
	s.Server = httptest.NewServer(mux)
	return s
}

var _ = Describe("LocalGenerator with native motion", func() {
	var dir string
	var appConfig *config.ApplicationConfig
	var enc *recordingEncoder
	var server *videoServer

	cpu := func(xsysinfo.Device) xsysinfo.Device { return xsysinfo.DeviceCPU }

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "native")
		Expect(err).ToNot(HaveOccurred())
		server = newVideoServer()
		appConfig = config.NewApplicationConfig(
			config.WithOutputDir(filepath.Join(dir, "output_videos")),
			config.WithPipeline(server.URL+"/v1", "text-to-video-ms-1.7b"),
			config.WithMotion(motion.Native, 0),
			config.WithInference(30, 9),
		)
		enc = &recordingEncoder{}
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(dir)
	})

	newGenerator := func(opts ...LocalOption) *LocalGenerator {
		opts = append([]LocalOption{WithEncoder(enc), WithDeviceSelector(cpu)}, opts...)
		g, err := NewLocalGenerator(appConfig, opts...)
		Expect(err).ToNot(HaveOccurred())
		return g
	}

	It("stores the clip generated by a text-to-video model", func() {
		res, err := newGenerator().Generate(context.Background(), LocalRequest{Prompt: "a sunset over mountains", NumFrames: 16, FPS: 8})
		Expect(err).ToNot(HaveOccurred())

		Expect(res.Path).To(Equal(filepath.Join(appConfig.OutputDir, "generated_video_0.mp4")))
		Expect(res.Frames).To(Equal(16))
		Expect(res.FPS).To(Equal(8))
		Expect(res.SourceURL).To(Equal(server.URL + "/generated-videos/clip.mp4"))
		Expect(res.SHA256).To(HaveLen(64))
		content, err := os.ReadFile(res.Path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(content)).To(Equal("native mp4"))

		Expect(server.imageCalls).To(BeZero())
		Expect(enc.calls).To(BeZero())
		Expect(server.lastVideo).To(HaveKeyWithValue("num_frames", BeNumerically("==", 16)))
		Expect(server.lastVideo).To(HaveKeyWithValue("fps", BeNumerically("==", 8)))
		Expect(server.lastVideo).To(HaveKeyWithValue("step", BeNumerically("==", 30)))
	})

	It("falls back to the shift stub when the served model is image-only", func() {
		server.videoStatus = http.StatusNotImplemented

		res, err := newGenerator().Generate(context.Background(), LocalRequest{Prompt: "a sunset", NumFrames: 5, FPS: 5})
		Expect(err).ToNot(HaveOccurred())
		Expect(server.videoCalls).To(Equal(1))
		Expect(server.imageCalls).To(Equal(1))
		Expect(enc.calls).To(Equal(1))
		Expect(enc.frames).To(HaveLen(5))
		Expect(res.Path).To(Equal(filepath.Join(appConfig.OutputDir, "generated_video_0.mp4")))

		// the last frame of the shift stub has moved against the first
		Expect(red(enc.frames[4], 10)).ToNot(Equal(red(enc.frames[0], 10)))
	})

	It("falls back when the pipeline cannot generate video at all", func() {
		g := newGenerator(WithPipelineLoader(func(context.Context, pipeline.Options) (pipeline.Pipeline, error) {
			return pipeline.Func(func(context.Context, pipeline.Request) (image.Image, error) {
				return gradient(48, 4), nil
			}), nil
		}))

		_, err := g.Generate(context.Background(), LocalRequest{Prompt: "a sunset", NumFrames: 3, FPS: 3})
		Expect(err).ToNot(HaveOccurred())
		Expect(enc.calls).To(Equal(1))
		Expect(server.videoCalls).To(BeZero())
	})

	It("reports a failing video model as an inference failure without falling back", func() {
		server.videoStatus = http.StatusInternalServerError

		res, err := newGenerator().Generate(context.Background(), LocalRequest{Prompt: "a sunset"})
		Expect(res).To(BeNil())
		kind, ok := KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(InferenceFailure))
		Expect(err).To(MatchError(ContainSubstring("video generation failed")))

		Expect(server.imageCalls).To(BeZero())
		Expect(enc.calls).To(BeZero())
		Expect(naming.Count(appConfig.OutputDir, ".mp4")).To(BeZero())
	})

	It("removes the reserved file when the clip cannot be fetched", func() {
		server.clipStatus = http.StatusNotFound

		res, err := newGenerator().Generate(context.Background(), LocalRequest{Prompt: "a sunset"})
		Expect(res).To(BeNil())
		kind, ok := KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(kind).To(Equal(DownloadFailure))
		Expect(naming.Count(appConfig.OutputDir, ".mp4")).To(BeZero())
		Expect(naming.Count(appConfig.OutputDir, ".partial")).To(BeZero())
	})
})
