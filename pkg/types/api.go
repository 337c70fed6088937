package types

// GenerateRequest is the body of POST /api/v1/text/generate.
type GenerateRequest struct {
	// example: Describe the symptoms of type 2 diabetes.
	Prompt string `json:"prompt" validate:"required" example:"Describe the symptoms of type 2 diabetes."`
	// Maximum output length; 0 or omitted uses the default of 512.
	// example: 256
	MaxLength int `json:"max_length,omitempty" validate:"omitempty,gte=10,lte=2048" example:"256"`
	// Sampling temperature; omitted uses the default of 0.7.
	// example: 0.7
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2" example:"0.7"`
	// Optional catalog id; the server default is used when empty.
	// example: medgemma_2b
	ModelID string `json:"model_id,omitempty" example:"medgemma_2b"`
}

// GenerateResponse is returned by POST /api/v1/text/generate.
type GenerateResponse struct {
	ID             string           `json:"id"`
	Text           string           `json:"text"`
	Prompt         string           `json:"prompt"`
	Model          string           `json:"model"`
	Backend        string           `json:"backend"`
	GenerationTime float64          `json:"generation_time"`
	Config         GenerationConfig `json:"config"`
}

// QARequest is the body of POST /api/v1/medical/qa.
type QARequest struct {
	// example: What is hypertension?
	Question string `json:"question" validate:"required" example:"What is hypertension?"`
	// Optional grounding context.
	Context string `json:"context,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// QAResponse is returned by POST /api/v1/medical/qa.
type QAResponse struct {
	ID             string  `json:"id"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Model          string  `json:"model"`
	GenerationTime float64 `json:"generation_time"`
}

// SummaryRequest is the body of POST /api/v1/clinical/summary.
type SummaryRequest struct {
	Note    string `json:"note" validate:"required"`
	Format  string `json:"format,omitempty"`
	ModelID string `json:"model_id,omitempty"`
}

// SummaryResponse is returned by POST /api/v1/clinical/summary.
type SummaryResponse struct {
	ID             string  `json:"id"`
	Summary        string  `json:"summary"`
	Model          string  `json:"model"`
	Format         string  `json:"format"`
	GenerationTime float64 `json:"generation_time"`
}

// TermRequest is the body of POST /api/v1/explain/term (form or JSON).
type TermRequest struct {
	// example: myocardial infarction
	Term string `json:"term" validate:"required" example:"myocardial infarction"`
	// One of patient, student, professional.
	// example: patient
	ReadingLevel string `json:"reading_level,omitempty" example:"patient"`
	ModelID      string `json:"model_id,omitempty"`
}

// TermResponse is returned by POST /api/v1/explain/term.
type TermResponse struct {
	ID          string `json:"id"`
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
	// Reading level as requested.
	ReadingLevel string `json:"reading_level"`
	// Reading level whose template was used.
	ResolvedReadingLevel string  `json:"resolved_reading_level"`
	Model                string  `json:"model"`
	GenerationTime       float64 `json:"generation_time"`
}

// DocumentResponse is returned by POST /api/v1/insurance/document.
type DocumentResponse struct {
	ID             string `json:"id"`
	Filename       string `json:"filename"`
	ExtractionType string `json:"extraction_type"`
	// Raw model output; asked to be JSON but never parsed.
	Result         string  `json:"result"`
	Model          string  `json:"model"`
	GenerationTime float64 `json:"generation_time"`
}

// ModelsResponse is returned by GET /models and GET /api/v1/models/available.
type ModelsResponse struct {
	// Models grouped by category.
	Models map[string][]ModelInfo `json:"models"`
	// Recommended model ids in catalog order.
	Recommended []string `json:"recommended"`
}

// ServiceInfo is returned by GET /.
type ServiceInfo struct {
	Service           string   `json:"service"`
	Version           string   `json:"version"`
	Status            string   `json:"status"`
	DefaultModel      string   `json:"default_model"`
	RecommendedModels []string `json:"recommended_models"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	// example: healthy
	Status string `json:"status" example:"healthy"`
	// Server time, RFC 3339.
	Timestamp string `json:"timestamp"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// InstanceStatus summarizes one registry entry for /status.
type InstanceStatus struct {
	// example: medgemma_2b
	ModelID string `json:"model_id" example:"medgemma_2b"`
	// example: google/medgemma-2b
	Backend string `json:"backend" example:"google/medgemma-2b"`
	// example: llamaserver
	Driver string `json:"driver" example:"llamaserver"`
	// One of unloaded, loaded, load_failed.
	// example: loaded
	State string `json:"state" example:"loaded"`
	// Load attempts made for this entry.
	Loads int `json:"loads"`
	// Error of the most recent failed load.
	LastError string `json:"last_error,omitempty"`
	// Last time this entry admitted a request (unix seconds).
	LastUsed int64 `json:"last_used_unix"`
	// Requests holding a queue slot.
	QueueLen int `json:"queue_len"`
	// Requests generating right now.
	Inflight int `json:"inflight"`
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Instances    []InstanceStatus `json:"instances"`
	DefaultModel string           `json:"default_model"`
	// Whether any backend is loaded.
	Ready bool `json:"ready"`
	// Successful loads since start.
	LoadsTotal uint64 `json:"loads_total"`
	// Failed loads since start.
	LoadFailuresTotal uint64 `json:"load_failures_total"`
	// Last error observed by the registry (if any).
	LastError      string `json:"last_error,omitempty"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	ServerTimeUnix int64  `json:"server_time_unix"`
}
