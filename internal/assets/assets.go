// Package assets holds the panel template and stylesheet and resolves
// extension resource names to URLs.
package assets

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"misinfo-guard/internal/models"
)

const (
	PanelTemplate   = "result_panel.html"
	PanelStylesheet = "result_panel.css"
	PanelScript     = "inject_panel.js"
	ContentScript   = "content.js"

	ExtensionIcon = "icons/shield-48.png"
	TitleImage    = "icons/shield-48-title.png"
)

var statusIcons = map[models.Status]string{
	models.StatusVerified:   "icons/check.png",
	models.StatusMisleading: "icons/cross.png",
	models.StatusCaution:    "icons/warning.png",
	models.StatusError:      "icons/info.png",
}

var ErrNotFound = errors.New("resource not found")

//go:embed static
var static embed.FS

// Store serves packaged resources.
type Store struct {
	base  string
	files fs.FS
}

// New serves the embedded resources under baseURL.
func New(baseURL string) *Store {
	sub, _ := fs.Sub(static, "static")
	return NewFS(baseURL, sub)
}

// NewFS serves resources from files. Tests use it to swap the template.
func NewFS(baseURL string, files fs.FS) *Store {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Store{base: baseURL, files: files}
}

// URL resolves a resource name the way runtime.getURL does.
func (s *Store) URL(name string) string {
	return s.base + strings.TrimPrefix(name, "/")
}

// Load returns a text resource.
func (s *Store) Load(_ context.Context, name string) (string, error) {
	data, err := fs.ReadFile(s.files, strings.TrimPrefix(name, "/"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", err
	}
	return string(data), nil
}

// StatusIcons maps each status to its icon URL.
func (s *Store) StatusIcons() map[string]string {
	out := make(map[string]string, len(statusIcons))
	for st, name := range statusIcons {
		out[string(st)] = s.URL(name)
	}
	return out
}
