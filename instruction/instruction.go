// Package instruction loads declarative agent definitions from markdown
// documents with a YAML front-matter block. The front matter carries the
// agent's role metadata (id, display name, domain, allowed tool names, display
// attributes) and the markdown body is the instruction text handed to the
// model. Malformed documents fail loading so startup can abort early.
package instruction

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Metadata describes an agent role declared in a front-matter block.
type Metadata struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Domain string   `yaml:"domain" json:"domain"`
	Tools  []string `yaml:"tools" json:"tools"`
	Emoji  string   `yaml:"emoji" json:"emoji"`
	Color  string   `yaml:"color" json:"color"`
}

// Definition pairs role metadata with the instruction text for the model.
type Definition struct {
	Metadata     Metadata
	Instructions string
}

// Parse splits a document into front matter and body. The document must start
// with a `---` line followed by YAML metadata and a closing `---`; the
// remainder is the instruction body. The metadata must declare an id.
func Parse(data []byte) (Definition, error) {
	text := string(data)
	if !strings.HasPrefix(text, "---") {
		return Definition{}, fmt.Errorf("missing front matter block")
	}

	end := strings.Index(text[3:], "---")
	if end < 0 {
		return Definition{}, fmt.Errorf("unterminated front matter block")
	}

	frontMatter := text[3 : end+3]
	body := strings.TrimSpace(text[end+6:])

	meta := Metadata{
		Name:   "Custom AI Agent",
		Domain: "the specified domain",
		Emoji:  "🤖",
		Color:  "#94a3b8",
	}
	if err := yaml.Unmarshal([]byte(frontMatter), &meta); err != nil {
		return Definition{}, fmt.Errorf("parse front matter: %w", err)
	}
	if meta.ID == "" {
		return Definition{}, fmt.Errorf("front matter missing required field 'id'")
	}

	return Definition{Metadata: meta, Instructions: body}, nil
}

// LoadFile parses a single instruction document from disk.
func LoadFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read instruction file: %w", err)
	}
	def, err := Parse(data)
	if err != nil {
		return Definition{}, fmt.Errorf("instruction file %q: %w", filepath.Base(path), err)
	}
	return def, nil
}

// LoadDir loads every *.md document in dir keyed by filename without
// extension. Any malformed document fails the whole load.
func LoadDir(dir string) (map[string]Definition, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("scan instructions dir: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no instruction files found in %q", dir)
	}

	defs := make(map[string]Definition, len(matches))
	for _, path := range matches {
		def, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		key := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		defs[key] = def
	}
	return defs, nil
}
