package backend_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/vidgen/vidgen/core/backend"
	"github.com/vidgen/vidgen/core/config"
	"github.com/vidgen/vidgen/pkg/hosted"
)

type fakePredictor struct {
	output any
	err    error
	model  hosted.ModelRef
	input  hosted.Input
	calls  int
}

func (f *fakePredictor) Predict(_ context.Context, model hosted.ModelRef, input hosted.Input) (any, error) {
	f.calls++
	f.model, f.input = model, input
	return f.output, f.err
}

var _ = Describe("RemoteGenerator", func() {
	var dir, output string
	var server *httptest.Server
	var status int
	var appConfig *config.ApplicationConfig

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "remote")
		Expect(err).ToNot(HaveOccurred())
		output = filepath.Join(dir, "output_video.mp4")
		status = http.StatusOK
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte("mp4 bytes"))
		}))
		appConfig = config.NewApplicationConfig(config.WithReplicateToken("r8_test"))
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(dir)
	})

	It("downloads the returned URL to the output path", func() {
		p := &fakePredictor{output: server.URL + "/video.mp4"}
		g := NewRemoteGenerator(appConfig, WithPredictor(p))

		res, err := g.Generate(context.Background(), RemoteRequest{Prompt: "a lake", OutputPath: output})
		Expect(err).ToNot(HaveOccurred())
		Expect(res.Path).To(Equal(output))
		Expect(res.SourceURL).To(Equal(server.URL + "/video.mp4"))
		Expect(res.Size).To(Equal(int64(len("mp4 bytes"))))

		data, err := os.ReadFile(output)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(Equal("mp4 bytes"))

		Expect(p.model).To(Equal(hosted.DefaultModel))
		Expect(p.input).To(Equal(hosted.Input{"prompt": "a lake", "num_frames": 16, "fps": 8}))
	})

	It("uses a configured model reference", func() {
		appConfig.RemoteModel = "someone/t2v:v1"
		p := &fakePredictor{output: server.URL}
		g := NewRemoteGenerator(appConfig, WithPredictor(p))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output, NumFrames: 4, FPS: 2})
		Expect(err).ToNot(HaveOccurred())
		Expect(p.model).To(Equal(hosted.ModelRef{Owner: "someone", Name: "t2v", Version: "v1"}))
		Expect(p.input).To(HaveKeyWithValue("num_frames", 4))
		Expect(p.input).To(HaveKeyWithValue("fps", 2))
	})

	DescribeTable("fails without raising on unusable outputs",
		func(out any) {
			g := NewRemoteGenerator(appConfig, WithPredictor(&fakePredictor{output: out}))
			var res *Result
			var err error
			Expect(func() {
				res, err = g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
			}).ToNot(Panic())
			Expect(res).To(BeNil())
			kind, ok := KindOf(err)
			Expect(ok).To(BeTrue())
			Expect(kind).To(Equal(InferenceFailure))
			Expect(output).ToNot(BeAnExistingFile())
		},
		Entry("nil", nil),
		Entry("empty string", ""),
		Entry("number", 3),
		Entry("several outputs", []any{"a", "b"}),
		Entry("single-element list", []any{"http://x"}),
	)

	It("fails with a download failure on a non-200 status and writes nothing", func() {
		status = http.StatusForbidden
		g := NewRemoteGenerator(appConfig, WithPredictor(&fakePredictor{output: server.URL}))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(DownloadFailure))

		entries, err := os.ReadDir(dir)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("removes the partial download when the run is cancelled", func() {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", "1000000")
			w.WriteHeader(http.StatusOK)
			w.Write(make([]byte, 4096))
			w.(http.Flusher).Flush()
			<-r.Context().Done()
		}))
		defer slow.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g := NewRemoteGenerator(appConfig,
			WithPredictor(&fakePredictor{output: slow.URL}),
			WithDownloadStatus(func(string, string, string, float64) { cancel() }),
		)

		res, err := g.Generate(ctx, RemoteRequest{Prompt: "x", OutputPath: output})
		Expect(res).To(BeNil())
		Expect(err).To(HaveOccurred())
		_, ok := KindOf(err)
		Expect(ok).To(BeTrue())
		Expect(output).ToNot(BeAnExistingFile())
		Expect(output + ".partial").ToNot(BeAnExistingFile())
	})

	It("classifies local write errors as io failures", func() {
		blocker := filepath.Join(dir, "blocker")
		Expect(os.WriteFile(blocker, nil, 0644)).To(Succeed())
		g := NewRemoteGenerator(appConfig, WithPredictor(&fakePredictor{output: server.URL}))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: filepath.Join(blocker, "v.mp4")})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(IOFailure))
	})

	It("maps prediction errors to inference failures", func() {
		g := NewRemoteGenerator(appConfig, WithPredictor(&fakePredictor{err: errors.New("prediction failed")}))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(InferenceFailure))
	})

	It("maps model resolution errors to setup failures", func() {
		p := &fakePredictor{err: &hosted.SetupError{Err: errors.New("version not found")}}
		g := NewRemoteGenerator(appConfig, WithPredictor(p))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(SetupFailure))
	})

	It("needs an explicit token for the default client", func() {
		g := NewRemoteGenerator(config.NewApplicationConfig())
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(SetupFailure))
	})

	It("rejects malformed model references", func() {
		appConfig.RemoteModel = "not-a-ref"
		p := &fakePredictor{output: server.URL}
		g := NewRemoteGenerator(appConfig, WithPredictor(p))
		_, err := g.Generate(context.Background(), RemoteRequest{Prompt: "x", OutputPath: output})
		kind, _ := KindOf(err)
		Expect(kind).To(Equal(SetupFailure))
		Expect(p.calls).To(BeZero())
	})

	It("prints progress around the generation", func() {
		var buf bytes.Buffer
		g := NewRemoteGenerator(appConfig, WithPredictor(&fakePredictor{output: server.URL}), WithProgressOutput(&buf))
		_, err := g.GenerateWithProgress(context.Background(), RemoteRequest{Prompt: "a lake", OutputPath: output})
		Expect(err).ToNot(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("Starting video generation..."))
		Expect(buf.String()).To(ContainSubstring("Processing script: a lake"))
		Expect(buf.String()).To(ContainSubstring("Video generation completed successfully!"))

		buf.Reset()
		status = http.StatusInternalServerError
		_, err = g.GenerateWithProgress(context.Background(), RemoteRequest{Prompt: "a lake", OutputPath: filepath.Join(dir, "other.mp4")})
		Expect(err).To(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("Video generation failed"))
	})
})

var _ = Describe("Failure", func() {
	It("exposes its kind and cause", func() {
		cause := errors.New("boom")
		err := error(&Failure{Kind: DownloadFailure, Op: "download video", Err: cause})
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(Equal("download failure: download video: boom"))
		_, ok := KindOf(errors.New("plain"))
		Expect(ok).To(BeFalse())
	})
})
