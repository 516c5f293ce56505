package pipeline_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/vidgen/vidgen/pkg/pipeline"
	"github.com/vidgen/vidgen/pkg/xsysinfo"
)

func pngB64(w, h int) string {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

var _ = Describe("OpenAI compatible pipeline", func() {
	var server *httptest.Server
	var lastImageRequest map[string]any
	var imageStatus int

	BeforeEach(func() {
		lastImageRequest = nil
		imageStatus = http.StatusOK
		mux := http.NewServeMux()
		mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   []map[string]any{{"id": "stablediffusion", "object": "model"}},
			})
		})
		mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&lastImageRequest)
			if imageStatus != http.StatusOK {
				w.WriteHeader(imageStatus)
				w.Write([]byte(`{"error":{"message":"boom","code":500}}`))
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"created": 1,
				"data":    []map[string]any{{"b64_json": pngB64(8, 6)}},
			})
		})
		server = httptest.NewServer(mux)
	})

	AfterEach(func() {
		server.Close()
	})

	load := func(model string) (Pipeline, error) {
		loader := NewOpenAILoader(OpenAIConfig{BaseURL: server.URL + "/v1"})
		return loader(context.Background(), Options{Model: model, Device: xsysinfo.DeviceCPU})
	}

	It("checks the model is served", func() {
		_, err := load("missing-model")
		Expect(err).To(MatchError(ContainSubstring("not served")))
	})

	It("fails setup when the endpoint is unreachable", func() {
		loader := NewOpenAILoader(OpenAIConfig{BaseURL: "http://127.0.0.1:1/v1"})
		_, err := loader(context.Background(), Options{})
		Expect(err).To(HaveOccurred())
	})

	It("generates one image with steps as quality", func() {
		p, err := load("stablediffusion")
		Expect(err).ToNot(HaveOccurred())

		img, err := p.Generate(context.Background(), Request{
			Prompt: "test", NegativePrompt: "blurry", Steps: 25, GuidanceScale: 7.5, Width: 512, Height: 512,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(img.Bounds().Dx()).To(Equal(8))
		Expect(img.Bounds().Dy()).To(Equal(6))

		Expect(lastImageRequest).To(HaveKeyWithValue("prompt", "test|blurry"))
		Expect(lastImageRequest).To(HaveKeyWithValue("quality", "25"))
		Expect(lastImageRequest).To(HaveKeyWithValue("size", "512x512"))
		Expect(lastImageRequest).To(HaveKeyWithValue("response_format", "b64_json"))
		Expect(lastImageRequest).To(HaveKeyWithValue("model", "stablediffusion"))
	})

	It("surfaces server errors", func() {
		p, err := load("stablediffusion")
		Expect(err).ToNot(HaveOccurred())
		imageStatus = http.StatusInternalServerError
		_, err = p.Generate(context.Background(), Request{Prompt: "test"})
		Expect(err).To(HaveOccurred())
	})
})
