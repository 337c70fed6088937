package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"testing"

	"nightingale/pkg/types"
)

// TestLive_LlamaServerQA asks a running llama-server a question. Skips
// unless NIGHTINGALE_E2E_LLAMA_URL points at one.
func TestLive_LlamaServerQA(t *testing.T) {
	url := strings.TrimSpace(os.Getenv("NIGHTINGALE_E2E_LLAMA_URL"))
	if url == "" {
		t.Skip("NIGHTINGALE_E2E_LLAMA_URL not set; skipping live llama-server test")
	}
	cfg := loadTestConfig(t, testConfigYAML, map[string]string{
		"NIGHTINGALE_DEFAULT_DRIVER":   "llamaserver",
		"NIGHTINGALE_LLAMA_SERVER_URL": url,
	})
	srv, _ := newServer(t, cfg, nil)

	resp, body := httpPostJSON(t, srv.URL+"/api/v1/medical/qa", `{"question":"What is hypertension?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}
	var qa types.QAResponse
	if err := json.Unmarshal(body, &qa); err != nil {
		t.Fatalf("json: %v", err)
	}
	if strings.TrimSpace(qa.Answer) == "" {
		t.Fatalf("empty answer")
	}
	t.Logf("answer (%0.2fs): %s", qa.GenerationTime, qa.Answer)
}
