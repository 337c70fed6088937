package types

// ModelInfo describes one catalog entry.
type ModelInfo struct {
	// Catalog identifier.
	// example: medgemma_2b
	ID string `json:"model_id" example:"medgemma_2b"`
	// Backend name passed to the driver.
	// example: google/medgemma-2b
	Name string `json:"name" example:"google/medgemma-2b"`
	// Driver that serves the model; empty means the server default.
	// example: llamaserver
	Driver string `json:"driver,omitempty" example:"llamaserver"`
	// example: Lightweight medical language model for general medical Q&A
	Description string `json:"description" example:"Lightweight medical language model for general medical Q&A"`
	// One of text, multimodal, audio, vision.
	// example: text
	Category string `json:"category" example:"text"`
	// Supported tasks.
	Tasks []string `json:"tasks"`
	// Informational memory footprint.
	// example: 4GB
	MemoryRequired string `json:"memory_required" example:"4GB"`
	// example: true
	Recommended bool `json:"recommended" example:"true"`
}

// GenerationConfig echoes the parameters a generation ran with.
type GenerationConfig struct {
	MaxLength         int     `json:"max_length"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	TopK              int     `json:"top_k"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	DoSample          bool    `json:"do_sample"`
}
