package instruction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const grillDoc = `---
id: grill
name: Grill Station
domain: burgers and grilled items
tools:
  - cook_patty
  - melt_cheese
  - toast_bun
emoji: "🔥"
color: "#ef4444"
---
You are the grill station. Cook every burger component the order needs.`

func TestParse(t *testing.T) {
	def, err := Parse([]byte(grillDoc))
	require.NoError(t, err)

	assert.Equal(t, "grill", def.Metadata.ID)
	assert.Equal(t, "Grill Station", def.Metadata.Name)
	assert.Equal(t, "burgers and grilled items", def.Metadata.Domain)
	assert.Equal(t, []string{"cook_patty", "melt_cheese", "toast_bun"}, def.Metadata.Tools)
	assert.Equal(t, "🔥", def.Metadata.Emoji)
	assert.Equal(t, "#ef4444", def.Metadata.Color)
	assert.Equal(t, "You are the grill station. Cook every burger component the order needs.", def.Instructions)
}

func TestParse_Defaults(t *testing.T) {
	def, err := Parse([]byte("---\nid: expo\n---\nPlate and hand off."))
	require.NoError(t, err)

	assert.Equal(t, "Custom AI Agent", def.Metadata.Name)
	assert.Equal(t, "🤖", def.Metadata.Emoji)
	assert.Equal(t, "#94a3b8", def.Metadata.Color)
	assert.Empty(t, def.Metadata.Tools)
}

func TestParse_MissingFrontMatter(t *testing.T) {
	_, err := Parse([]byte("Just instructions, no metadata."))
	assert.Error(t, err)
}

func TestParse_UnterminatedFrontMatter(t *testing.T) {
	_, err := Parse([]byte("---\nid: grill\nNo closing fence."))
	assert.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\nid: [unclosed\n---\nBody."))
	assert.Error(t, err)
}

func TestParse_MissingID(t *testing.T) {
	_, err := Parse([]byte("---\nname: Nameless\n---\nBody."))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "grill.md", grillDoc)
	writeDoc(t, dir, "fryer.md", "---\nid: fryer\nname: Fryer Station\n---\nFry things.")
	writeDoc(t, dir, "notes.txt", "ignored")

	defs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "grill", defs["grill"].Metadata.ID)
	assert.Equal(t, "Fryer Station", defs["fryer"].Metadata.Name)
}

func TestLoadDir_MalformedDocumentFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "grill.md", grillDoc)
	writeDoc(t, dir, "broken.md", "no front matter here")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.md")
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.Error(t, err)
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
