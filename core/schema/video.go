package schema

// @Description VideoRequest asks one of the generators for a clip
type VideoRequest struct {
	Prompt string `json:"prompt" yaml:"prompt"`
	// local (default) or remote
	Backend   string `json:"backend,omitempty" yaml:"backend,omitempty"`
	Preset    string `json:"preset,omitempty" yaml:"preset,omitempty"`
	NumFrames int    `json:"num_frames,omitempty" yaml:"num_frames,omitempty"`
	FPS       int    `json:"fps,omitempty" yaml:"fps,omitempty"`
}

type VideoItem struct {
	URL    string `json:"url"`
	Frames int    `json:"frames"`
	FPS    int    `json:"fps"`
	Device string `json:"device,omitempty"`
	SHA256 string `json:"sha256,omitempty"`
}

type VideoResponse struct {
	ID      string      `json:"id"`
	Object  string      `json:"object"`
	Created int64       `json:"created"`
	Backend string      `json:"backend"`
	Data    []VideoItem `json:"data"`
}

type PresetList struct {
	Object string       `json:"object"`
	Data   []PresetItem `json:"data"`
}

type PresetItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	NumFrames   int    `json:"num_frames"`
	FPS         int    `json:"fps"`
}
