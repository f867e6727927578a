// Package render maps template names to response strings. Templates are
// parsed once at startup and the set is immutable for the process lifetime;
// hot reload is deliberately out of scope.
package render

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Renderer renders named templates against a data bag. A missing or broken
// template degrades to a diagnostic placeholder instead of failing the
// conversation: availability over correctness, by contract.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

// Load parses every *.tmpl file under dir. The template name is the file name
// without extension (greeting.tmpl -> greeting). A missing directory yields an
// empty renderer and a warning, matching the degrade-only posture.
func Load(dir string, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template), logger: logger}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("templates directory not found", "dir", dir)
			return r, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ".tmpl")
		tmpl, err := template.New(name).Parse(string(content))
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", path, err)
		}
		r.templates[name] = tmpl
	}

	logger.Info("templates loaded", "count", len(r.templates), "dir", dir)
	return r, nil
}

// NewFromMap builds a renderer from in-memory template sources. Used by tests
// and by callers that embed their template set.
func NewFromMap(sources map[string]string, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template), logger: logger}
	for name, src := range sources {
		tmpl, err := template.New(name).Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Render executes the named template against data. It never fails: unknown
// names and execution errors return a placeholder embedding the name and the
// serialized data bag, with a logged warning.
func (r *Renderer) Render(name string, data any) string {
	tmpl, ok := r.templates[name]
	if !ok {
		r.logger.Warn("template not found, using fallback", "template", name)
		return fallback(name, data)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		r.logger.Warn("template execution failed, using fallback",
			"template", name,
			"error", err,
		)
		return fallback(name, data)
	}
	return b.String()
}

// Has reports whether a template with the given name is loaded.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

func fallback(name string, data any) string {
	serialized, err := json.Marshal(data)
	if err != nil {
		serialized = []byte("{}")
	}
	return "[" + name + "] " + string(serialized)
}
