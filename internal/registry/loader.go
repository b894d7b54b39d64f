package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inferd/internal/common/fsutil"
	"inferd/pkg/types"
)

// LoadDir scans a directory for *.gguf files and builds a registry from
// filenames. ID is the full filename (including extension); Path is the
// absolute file path. Quant, family and size are best-effort guesses from
// the filename and file size.
func LoadDir(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".gguf") {
			continue
		}
		m := types.Model{
			ID:     name,
			Name:   name,
			Path:   filepath.Join(abs, name),
			Quant:  guessQuant(name),
			Family: guessFamily(name),
		}
		if info, err := e.Info(); err == nil {
			m.SizeMB = int(info.Size() / (1 << 20))
		}
		models = append(models, m)
	}
	return models, nil
}

// guessQuant extracts a quantization tag like Q4_K_M or F16 from a filename.
func guessQuant(name string) string {
	base := strings.TrimSuffix(strings.ToLower(name), ".gguf")
	for _, part := range strings.FieldsFunc(base, func(r rune) bool { return r == '.' || r == '-' }) {
		if part == "f16" || part == "f32" || part == "bf16" {
			return strings.ToUpper(part)
		}
		if len(part) >= 2 && part[0] == 'q' && part[1] >= '0' && part[1] <= '9' {
			return strings.ToUpper(part)
		}
	}
	return ""
}

// guessFamily matches well-known model family names in a filename.
func guessFamily(name string) string {
	lower := strings.ToLower(name)
	for _, fam := range []string{"llama", "mistral", "phi", "qwen", "gemma"} {
		if strings.Contains(lower, fam) {
			return fam
		}
	}
	return ""
}
