package contract

import (
	"encoding/json"
	"html/template"
	"io"
	"net/http"

	"gopkg.in/yaml.v3"
)

// ServeDocument registers a GET handler at the given pattern that serves
// the synthesized document as JSON.
func (r *Router) ServeDocument(pattern string) {
	r.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,errchkjson,gosec // best-effort after WriteHeader
		json.NewEncoder(w).Encode(r.Document())
	})
}

// ServeDocumentYAML registers a GET handler at the given pattern that
// serves the synthesized document as YAML.
func (r *Router) ServeDocumentYAML(pattern string) {
	r.mux.HandleFunc("GET "+pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		//nolint:errcheck,gosec // best-effort after WriteHeader
		yaml.NewEncoder(w).Encode(r.Document())
	})
}

// WriteDocument writes the synthesized document as indented JSON to w.
func (r *Router) WriteDocument(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.Document())
}

// WriteDocumentYAML writes the synthesized document as YAML to w.
func (r *Router) WriteDocumentYAML(w io.Writer) error {
	return yaml.NewEncoder(w).Encode(r.Document())
}

// DocsOption configures the docs UI.
type DocsOption func(*docsConfig)

type docsConfig struct {
	Title   string
	SpecURL string
}

// WithDocsTitle sets the page title for the docs UI.
func WithDocsTitle(title string) DocsOption {
	return func(c *docsConfig) { c.Title = title }
}

// WithDocsSpecURL points the docs UI at a custom document URL.
func WithDocsSpecURL(url string) DocsOption {
	return func(c *docsConfig) { c.SpecURL = url }
}

// ServeDocs serves an interactive documentation UI at the given path,
// rendering Stoplight Elements pointed at the router's document.
func (r *Router) ServeDocs(path string, opts ...DocsOption) {
	cfg := &docsConfig{
		Title:   r.title,
		SpecURL: "/openapi.json",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tmpl := template.Must(template.New("docs").Parse(docsHTML))

	r.mux.HandleFunc("GET "+path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck,gosec // best-effort template render
		tmpl.Execute(w, cfg)
	})
}

const docsHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/@stoplight/elements/styles.min.css">
  <script src="https://unpkg.com/@stoplight/elements/web-components.min.js"></script>
  <style>html, body { margin: 0; height: 100%; }</style>
</head>
<body>
  <elements-api apiDescriptionUrl="{{.SpecURL}}" router="hash" layout="sidebar"></elements-api>
</body>
</html>
`
