// Package httpapi exposes the generation pipeline and model registry over
// HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nightingale/internal/backend"
	"nightingale/internal/catalog"
	"nightingale/internal/document"
	"nightingale/internal/pipeline"
	"nightingale/internal/task"
	"nightingale/pkg/types"
)

// Runner executes one task. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, t task.Task, modelID string) (*pipeline.Result, error)
}

// Registry reports on the model registry. *manager.Manager implements it.
type Registry interface {
	Catalog() *catalog.Catalog
	DefaultModel() string
	Status() types.StatusResponse
	Ready() bool
}

type api struct {
	reg Registry
	run Runner
}

func NewMux(reg Registry, run Runner) http.Handler {
	a := &api{reg: reg, run: run}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(securityHeaders)
	if len(allowedHosts) > 0 {
		r.Use(trustedHosts)
	}
	if corsEnabled {
		r.Use(corsMiddleware())
	}

	r.Get("/", a.serviceInfo)
	r.Get("/health", a.health)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if reg.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})
	r.Get("/models", a.models)
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Status())
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/models/available", a.models)
		r.Get("/models/{id}/info", a.modelInfo)
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/text/generate", a.generate)
			r.Post("/medical/qa", a.qa)
			r.Post("/clinical/summary", a.summary)
			r.Post("/explain/term", a.term)
			r.Post("/insurance/document", a.document)
		})
	})

	MountSwagger(r)
	return r
}

func (a *api) serviceInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.ServiceInfo{
		Service:           "Nightingale AI",
		Version:           Version,
		Status:            "running",
		DefaultModel:      a.reg.DefaultModel(),
		RecommendedModels: a.reg.Catalog().ListRecommended(),
	})
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *api) models(w http.ResponseWriter, r *http.Request) {
	cat := a.reg.Catalog()
	resp := types.ModelsResponse{
		Models:      make(map[string][]types.ModelInfo),
		Recommended: cat.ListRecommended(),
	}
	for _, g := range cat.ListAll() {
		infos := make([]types.ModelInfo, 0, len(g.Models))
		for _, d := range g.Models {
			infos = append(infos, modelInfo(d))
		}
		resp.Models[string(g.Category)] = infos
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) modelInfo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, ok := a.reg.Catalog().Resolve(id)
	if !ok {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("model %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, modelInfo(d))
}

func (a *api) generate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t := task.Generate{Prompt: req.Prompt, MaxLength: req.MaxLength, Temperature: req.Temperature}
	res, ok := a.runTask(w, r, t, req.ModelID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.GenerateResponse{
		ID:             res.ID.String(),
		Text:           res.Text,
		Prompt:         req.Prompt,
		Model:          res.Model,
		Backend:        res.Backend,
		GenerationTime: res.Elapsed.Seconds(),
		Config:         generationConfig(res.Params),
	})
}

func (a *api) qa(w http.ResponseWriter, r *http.Request) {
	var req types.QARequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, ok := a.runTask(w, r, task.QA{Question: req.Question, Context: req.Context}, req.ModelID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.QAResponse{
		ID:             res.ID.String(),
		Question:       req.Question,
		Answer:         res.Text,
		Model:          res.Model,
		GenerationTime: res.Elapsed.Seconds(),
	})
}

func (a *api) summary(w http.ResponseWriter, r *http.Request) {
	var req types.SummaryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, ok := a.runTask(w, r, task.ClinicalSummary{Note: req.Note, Format: req.Format}, req.ModelID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.SummaryResponse{
		ID:             res.ID.String(),
		Summary:        res.Text,
		Model:          res.Model,
		Format:         metaString(res.Metadata, "format"),
		GenerationTime: res.Elapsed.Seconds(),
	})
}

// term accepts either a JSON body or form fields.
func (a *api) term(w http.ResponseWriter, r *http.Request) {
	var req types.TermRequest
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		if !decodeJSON(w, r, &req) {
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := parseForm(r); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		req = types.TermRequest{
			Term:         r.PostFormValue("term"),
			ReadingLevel: r.PostFormValue("reading_level"),
			ModelID:      r.PostFormValue("model_id"),
		}
		if err := validate.Struct(req); err != nil {
			writeJSONError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
	}
	res, ok := a.runTask(w, r, task.TermExplanation{Term: req.Term, ReadingLevel: req.ReadingLevel}, req.ModelID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.TermResponse{
		ID:                   res.ID.String(),
		Term:                 req.Term,
		Explanation:          res.Text,
		ReadingLevel:         metaString(res.Metadata, "reading_level"),
		ResolvedReadingLevel: metaString(res.Metadata, "resolved_reading_level"),
		Model:                res.Model,
		GenerationTime:       res.Elapsed.Seconds(),
	})
}

// document takes a multipart upload in field "file".
func (a *api) document(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "multipart form with a file field is required")
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	text, err := document.Text(hdr.Filename, data)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	t := task.DocumentExtraction{
		Document:       text,
		ExtractionType: r.FormValue("extraction_type"),
		Filename:       hdr.Filename,
	}
	res, ok := a.runTask(w, r, t, r.FormValue("model_id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, types.DocumentResponse{
		ID:             res.ID.String(),
		Filename:       hdr.Filename,
		ExtractionType: metaString(res.Metadata, "extraction_type"),
		Result:         res.Text,
		Model:          res.Model,
		GenerationTime: res.Elapsed.Seconds(),
	})
}

// runTask runs t and writes the error response on failure. modelID falls
// back to the model_id query parameter.
func (a *api) runTask(w http.ResponseWriter, r *http.Request, t task.Task, modelID string) (*pipeline.Result, bool) {
	lvl := requestLogLevel(r)
	start := time.Now()
	if modelID == "" {
		modelID = r.URL.Query().Get("model_id")
	}
	ctx, cancel := requestContext(r)
	defer cancel()

	res, err := a.run.Run(ctx, t, modelID)
	if err != nil {
		// client went away
		if r.Context().Err() != nil {
			return nil, false
		}
		status := statusFor(err)
		if serverBaseCtx.Err() != nil {
			status = http.StatusServiceUnavailable
		}
		if status == http.StatusTooManyRequests {
			IncrementBackpressure("queue")
		}
		writeJSONError(w, status, err.Error())
		logRequestEnd(r, lvl, status, start, err, "")
		return nil, false
	}
	logRequestEnd(r, lvl, http.StatusOK, start, nil, res.Text)
	return res, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func parseForm(r *http.Request) error {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return r.ParseMultipartForm(maxBodyBytes)
	}
	return r.ParseForm()
}

func modelInfo(d catalog.ModelDescriptor) types.ModelInfo {
	return types.ModelInfo{
		ID:             d.ID,
		Name:           d.BackendName,
		Driver:         d.Driver,
		Description:    d.Description,
		Category:       string(d.Category),
		Tasks:          d.Tasks,
		MemoryRequired: d.MemoryRequired,
		Recommended:    d.Recommended,
	}
}

func generationConfig(p backend.Params) types.GenerationConfig {
	return types.GenerationConfig{
		MaxLength:         p.MaxLength,
		Temperature:       p.Temperature,
		TopP:              p.TopP,
		TopK:              p.TopK,
		RepetitionPenalty: p.RepetitionPenalty,
		DoSample:          p.Sample,
	}
}

func metaString(md map[string]any, key string) string {
	s, _ := md[key].(string)
	return s
}
