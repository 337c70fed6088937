package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nightingale/internal/common/fsutil"
)

// ScanGGUF scans dir for *.gguf files and returns text descriptors bound to
// the llama driver. The ID is the filename without extension; BackendName
// is the absolute file path.
func ScanGGUF(dir string) ([]ModelDescriptor, error) {
	abs, err := fsutil.ResolveDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []ModelDescriptor
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if !strings.EqualFold(ext, ".gguf") {
			continue
		}
		var size string
		if fi, err := e.Info(); err == nil {
			size = humanSize(fi.Size())
		}
		out = append(out, ModelDescriptor{
			ID:             strings.TrimSuffix(name, ext),
			BackendName:    filepath.Join(abs, name),
			Driver:         "llama",
			Description:    "Local GGUF model " + name,
			Category:       CategoryText,
			Tasks:          []string{"qa", "summarization"},
			MemoryRequired: size,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func humanSize(n int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case n >= gb:
		return fmt.Sprintf("%.1fGB", float64(n)/gb)
	case n >= mb:
		return fmt.Sprintf("%dMB", n/mb)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
