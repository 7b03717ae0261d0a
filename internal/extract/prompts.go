package extract

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// PromptStore resolves the extraction system prompt for a section. A
// prompt is a plain text file describing the target JSON schema and the
// section's conventions. Files in dir override the built-in prompts; the
// store falls back to the embedded defaults when dir is empty or the file
// is missing.
type PromptStore struct {
	dir string
}

// NewPromptStore creates a store reading overrides from dir. An empty dir
// means embedded templates only.
func NewPromptStore(dir string) *PromptStore {
	return &PromptStore{dir: dir}
}

// SystemPrompt returns the system prompt for the given section.
func (s *PromptStore) SystemPrompt(section string) (string, error) {
	const op = "SystemPrompt"

	name := strings.ToLower(strings.TrimSpace(section))
	if name == "" {
		name = "listening"
	}

	if s.dir != "" {
		path := filepath.Join(s.dir, name+".txt")
		if data, err := os.ReadFile(path); err == nil {
			return string(data), nil
		}
	}

	data, err := defaultPrompts.ReadFile("prompts/" + name + ".txt")
	if err != nil {
		return "", fmt.Errorf("%s: %w: %q", op, ErrNoPromptTemplate, section)
	}
	return string(data), nil
}
