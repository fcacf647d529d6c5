package types

// Model is a selectable entry of the models directory.
type Model struct {
	// Identifier accepted by `ggufctl launch`.
	// example: gemma
	ID string `json:"id" example:"gemma"`
	// Absolute path of the entry on disk (file or directory).
	// example: /home/user/data/models/gemma
	Path string `json:"path" example:"/home/user/data/models/gemma"`
	// Alias reports whether ID is a configured alias with a fixed weights/projection pair.
	Alias bool `json:"alias,omitempty"`
	// Multimodal reports whether the model carries a projection file.
	Multimodal bool `json:"multimodal,omitempty"`
}

// ModelSpec is a resolved model: the artifacts handed to llama-server.
// It is immutable once returned by the registry.
type ModelSpec struct {
	ID             string `json:"id"`
	WeightsPath    string `json:"weights_path"`
	ProjectionPath string `json:"projection_path,omitempty"`
	// Weights is WeightsPath relative to the models root, slash-separated.
	Weights string `json:"weights,omitempty"`
}

// DisplayName is the weights path relative to the models root, falling back to ID.
func (s ModelSpec) DisplayName() string {
	if s.Weights != "" {
		return s.Weights
	}
	return s.ID
}

// Multimodal reports whether the spec carries a projection file.
func (s ModelSpec) Multimodal() bool { return s.ProjectionPath != "" }
