package hosted

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mudler/xlog"
	"github.com/replicate/replicate-go"
)

// Pinned text-to-video model used when none is configured.
var DefaultModel = ModelRef{
	Owner:   "stability-ai",
	Name:    "stable-video-diffusion",
	Version: "3f0457e4619daac51351b5cc5f7e7ccb4e89bc36ba248e8c1714009e0fc23c9a",
}

// Replicate runs predictions on replicate.com. The API token is handed to
// the client directly; nothing is read from or written to the environment.
type Replicate struct {
	client *replicate.Client
}

type ReplicateConfig struct {
	Token      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewReplicate(cfg ReplicateConfig) (*Replicate, error) {
	if cfg.Token == "" {
		return nil, &SetupError{Err: fmt.Errorf("missing replicate API token")}
	}
	opts := []replicate.ClientOption{replicate.WithToken(cfg.Token)}
	if cfg.BaseURL != "" {
		opts = append(opts, replicate.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, replicate.WithHTTPClient(cfg.HTTPClient))
	}
	client, err := replicate.NewClient(opts...)
	if err != nil {
		return nil, &SetupError{Err: fmt.Errorf("creating replicate client: %w", err)}
	}
	return &Replicate{client: client}, nil
}

func (r *Replicate) Predict(ctx context.Context, ref ModelRef, input Input) (any, error) {
	model, err := r.client.GetModel(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, &SetupError{Err: fmt.Errorf("resolving model %s/%s: %w", ref.Owner, ref.Name, err)}
	}
	if ref.Version == "" {
		return nil, &SetupError{Err: fmt.Errorf("model %s has no pinned version", ref)}
	}
	version, err := r.client.GetModelVersion(ctx, ref.Owner, ref.Name, ref.Version)
	if err != nil {
		return nil, &SetupError{Err: fmt.Errorf("resolving version %s: %w", ref, err)}
	}

	xlog.Debug("submitting prediction", "model", model.Owner+"/"+model.Name, "version", version.ID)

	prediction, err := r.client.CreatePrediction(ctx, version.ID, replicate.PredictionInput(input), nil, false)
	if err != nil {
		return nil, fmt.Errorf("creating prediction: %w", err)
	}

	if err := r.client.Wait(ctx, prediction); err != nil {
		return nil, fmt.Errorf("waiting for prediction %s: %w", prediction.ID, err)
	}

	xlog.Debug("prediction finished", "id", prediction.ID, "status", prediction.Status)

	if prediction.Status != replicate.Succeeded {
		return nil, fmt.Errorf("prediction %s %s: %v", prediction.ID, prediction.Status, prediction.Error)
	}
	return prediction.Output, nil
}
