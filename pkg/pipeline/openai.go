package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strconv"
	"strings"

	"github.com/mudler/xlog"
	"github.com/sashabaranov/go-openai"
)

// DefaultBaseURL points at a LocalAI instance on the same host.
const DefaultBaseURL = "http://localhost:8080/v1"

// OpenAI talks to any OpenAI compatible /images/generations endpoint.
// Inference steps travel in the numeric quality field, which LocalAI maps to
// its step count; the guidance scale is a property of the served model
// (cfg_scale in its config) and is only logged here.
type OpenAI struct {
	client *openai.Client
	model  string

	// used for the /video endpoint, which go-openai does not cover
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type OpenAIConfig struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewOpenAILoader returns a Loader that connects to the endpoint and checks
// that the requested model is being served.
func NewOpenAILoader(cfg OpenAIConfig) Loader {
	return func(ctx context.Context, opts Options) (Pipeline, error) {
		c := openai.DefaultConfig(cfg.APIKey)
		c.BaseURL = cfg.BaseURL
		if c.BaseURL == "" {
			c.BaseURL = DefaultBaseURL
		}
		if cfg.HTTPClient != nil {
			c.HTTPClient = cfg.HTTPClient
		}
		client := openai.NewClientWithConfig(c)

		xlog.Debug("setting up diffusion pipeline", "endpoint", c.BaseURL, "model", opts.Model, "device", opts.Device, "f16", opts.F16)

		models, err := client.ListModels(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing models at %s: %w", c.BaseURL, err)
		}
		if opts.Model != "" {
			found := false
			for _, m := range models.Models {
				if m.ID == opts.Model {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("model %q is not served by %s", opts.Model, c.BaseURL)
			}
		}

		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		return &OpenAI{
			client:     client,
			model:      opts.Model,
			baseURL:    c.BaseURL,
			apiKey:     cfg.APIKey,
			httpClient: httpClient,
		}, nil
	}
}

func (o *OpenAI) Generate(ctx context.Context, req Request) (image.Image, error) {
	prompt := req.Prompt
	if req.NegativePrompt != "" {
		// LocalAI splits positive and negative prompts on "|"
		prompt = prompt + "|" + req.NegativePrompt
	}

	ir := openai.ImageRequest{
		Prompt:         prompt,
		Model:          o.model,
		N:              1,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	}
	if req.Steps > 0 {
		ir.Quality = strconv.Itoa(req.Steps)
	}
	if req.Width > 0 && req.Height > 0 {
		ir.Size = fmt.Sprintf("%dx%d", req.Width, req.Height)
	}

	xlog.Debug("requesting base image", "model", o.model, "steps", req.Steps, "guidance_scale", req.GuidanceScale, "size", ir.Size)

	resp, err := o.client.CreateImage(ctx, ir)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("pipeline returned no images")
	}

	return decodeB64(resp.Data[0].B64JSON)
}

func decodeB64(s string) (image.Image, error) {
	// some servers prepend a data URI header
	if i := strings.Index(s, ";base64,"); i >= 0 {
		s = s[i+len(";base64,"):]
	}
	if s == "" {
		return nil, fmt.Errorf("pipeline returned an empty image")
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding image payload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}
