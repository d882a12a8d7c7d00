// Package world loads and saves the world-settings document.
//
// World settings are a single markdown file describing the player's fantasy
// setting (geography, factions, naming conventions). When present, the
// document is folded into the diary conversion prompt so generated
// narratives stay consistent with the world. The document is optional; the
// application runs without one.
package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings is a loaded world-settings document.
type Settings struct {
	// Path is the file the settings were loaded from and are saved to.
	Path string `json:"path"`

	// Title is the first level-one markdown heading, or the file name stem
	// when the document has none.
	Title string `json:"title"`

	// Content is the full markdown document, verbatim.
	Content string `json:"content"`
}

// Load reads the markdown file at path. A missing file surfaces as a
// wrapped [os.ErrNotExist]; callers treat that as "no world configured"
// rather than a failure.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("world: read settings %q: %w", path, err)
	}
	content := string(data)
	return &Settings{
		Path:    path,
		Title:   titleOf(path, content),
		Content: content,
	}, nil
}

// Save writes the settings content back to its path, creating the file if
// needed. The title is derived from the content on the next [Load]; Save
// does not rewrite it.
func Save(ws *Settings) error {
	if ws == nil {
		return fmt.Errorf("world: settings must not be nil")
	}
	if err := os.WriteFile(ws.Path, []byte(ws.Content), 0o644); err != nil {
		return fmt.Errorf("world: write settings %q: %w", ws.Path, err)
	}
	return nil
}

// titleOf returns the text of the first "# " heading in content, falling
// back to the file name without its extension.
func titleOf(path, content string) string {
	for _, line := range strings.Split(content, "\n") {
		if after, ok := strings.CutPrefix(strings.TrimSpace(line), "# "); ok {
			if title := strings.TrimSpace(after); title != "" {
				return title
			}
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
