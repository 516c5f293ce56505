package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/mudler/xlog"
)

// ErrImageOnly is returned by GenerateVideo when the served model cannot
// produce video. Callers fall back to animating a single image.
var ErrImageOnly = errors.New("served model only generates images")

// VideoRequest asks a text-to-video model for a whole clip.
type VideoRequest struct {
	Request
	NumFrames int
	FPS       int
}

// Clip is an encoded video produced by the served model. Either URL or Data
// is set.
type Clip struct {
	URL       string
	Data      []byte
	Extension string
}

// VideoPipeline is implemented by pipelines whose model generates the frames
// of a clip itself.
type VideoPipeline interface {
	GenerateVideo(ctx context.Context, req VideoRequest) (*Clip, error)
}

type videoRequest struct {
	Model          string  `json:"model,omitempty"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	NumFrames      int     `json:"num_frames,omitempty"`
	FPS            int     `json:"fps,omitempty"`
	Seed           int     `json:"seed,omitempty"`
	CFGScale       float32 `json:"cfg_scale,omitempty"`
	Step           int     `json:"step,omitempty"`
}

type videoItem struct {
	URL     string `json:"url,omitempty"`
	B64JSON string `json:"b64_json,omitempty"`
}

type videoResponse struct {
	Data  []videoItem `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// videoEndpoint derives the LocalAI /video route from an OpenAI style base
// URL, which usually ends in /v1.
func videoEndpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/video"
}

// GenerateVideo asks the served model for a clip through LocalAI's /video
// endpoint.
func (o *OpenAI) GenerateVideo(ctx context.Context, req VideoRequest) (*Clip, error) {
	body, err := json.Marshal(videoRequest{
		Model:          o.model,
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		NumFrames:      req.NumFrames,
		FPS:            req.FPS,
		Seed:           req.Seed,
		CFGScale:       req.GuidanceScale,
		Step:           req.Steps,
	})
	if err != nil {
		return nil, err
	}

	endpoint := videoEndpoint(o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	xlog.Debug("requesting video", "endpoint", endpoint, "model", o.model, "frames", req.NumFrames, "fps", req.FPS, "steps", req.Steps)

	resp, err := o.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("requesting video from %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return nil, fmt.Errorf("%w: %s answered %d", ErrImageOnly, endpoint, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading video response: %w", err)
	}

	vr := videoResponse{}
	decodeErr := json.Unmarshal(payload, &vr)
	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(payload))
		if decodeErr == nil && vr.Error != nil && vr.Error.Message != "" {
			msg = vr.Error.Message
		}
		return nil, fmt.Errorf("video endpoint answered %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decoding video response: %w", decodeErr)
	}
	if len(vr.Data) == 0 {
		return nil, fmt.Errorf("pipeline returned no video")
	}

	item := vr.Data[0]
	switch {
	case item.URL != "":
		u, err := resolveURL(endpoint, item.URL)
		if err != nil {
			return nil, err
		}
		return &Clip{URL: u, Extension: extensionOf(u)}, nil
	case item.B64JSON != "":
		data, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			return nil, fmt.Errorf("decoding video payload: %w", err)
		}
		return &Clip{Data: data, Extension: ".mp4"}, nil
	default:
		return nil, fmt.Errorf("pipeline returned an empty video")
	}
}

func resolveURL(endpoint, ref string) (string, error) {
	base, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid video URL %q: %w", ref, err)
	}
	return base.ResolveReference(r).String(), nil
}

func extensionOf(u string) string {
	if parsed, err := url.Parse(u); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" {
			return ext
		}
	}
	return ".mp4"
}

var _ VideoPipeline = &OpenAI{}
