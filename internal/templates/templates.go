package templates

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"text/template"

	"github.com/loom-ui/loom/internal/errors"
)

// Config carries the values substituted into scaffold files.
type Config struct {
	// ProjectName is the name of the project.
	ProjectName string

	// ModulePath is the Go module path for templates that generate Go code.
	ModulePath string

	// Description is a short project description.
	Description string
}

// Template is a named project scaffold.
type Template struct {
	// Name is the template name.
	Name string

	// Description describes the template.
	Description string

	// Files maps relative paths to file contents.
	Files map[string]string
}

var projects = map[string]*Template{
	"minimal": minimalProject(),
	"full":    fullProject(),
}

// Get returns a template by name.
func Get(name string) (*Template, error) {
	tmpl, ok := projects[name]
	if !ok {
		return nil, errors.New("E084").
			WithDetail("Template '" + name + "' not found").
			WithSuggestion("Available templates: minimal, full")
	}
	return tmpl, nil
}

// List returns all template names, sorted.
func List() []string {
	names := make([]string, 0, len(projects))
	for name := range projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create renders the scaffold into dir. Substitution uses [[ ]] delimiters
// so {{ }} actions in generated template files survive untouched.
func (t *Template) Create(dir string, cfg Config) error {
	for relPath, content := range t.Files {
		tmpl, err := template.New(relPath).Delims("[[", "]]").Parse(content)
		if err != nil {
			return errors.Newf(errors.CategoryCLI, "invalid scaffold file %s: %v", relPath, err)
		}

		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, cfg); err != nil {
			return errors.Newf(errors.CategoryCLI, "scaffold file %s: %v", relPath, err)
		}

		fullPath := filepath.Join(dir, relPath)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(fullPath, buf.Bytes(), 0o644); err != nil {
			return err
		}
	}

	return nil
}

// minimalProject scaffolds a config-driven site served with loom serve.
func minimalProject() *Template {
	return &Template{
		Name:        "minimal",
		Description: "Templates and config only, served with loom serve",
		Files: map[string]string{
			"loom.json": `{
  "name": "[[.ProjectName]]",
  "version": "0.1.0",
  "port": 3000,
  "templates": {
    "dir": "templates",
    "ext": ".html"
  },
  "static": {
    "dir": "public",
    "prefix": "/static/"
  }
}
`,

			"templates/index.html": `<div class="page">
  <link rel="stylesheet" href="/static/css/site.css">
  <h1>[[.ProjectName]]</h1>
  <p>[[.Description]]</p>
  <p>Edit <code>templates/index.html</code> and refresh.</p>
  <p><a href="/about">About this site</a></p>
</div>
`,

			"templates/about.html": `<div class="page">
  <link rel="stylesheet" href="/static/css/site.css">
  <h1>About</h1>
  <p>[[.Description]]</p>
  <p><a href="/">Back home</a></p>
</div>
`,

			"public/css/site.css": `body {
  font-family: system-ui, sans-serif;
  max-width: 40rem;
  margin: 0 auto;
  padding: 2rem;
}

.page h1 {
  color: #2563eb;
}
`,

			"README.md": `# [[.ProjectName]]

[[.Description]]

Every file in templates/ becomes a page: about.html is served at
/about, index.html at /. Static files live under public/.

Run it:

    loom serve

Then open http://localhost:3000.
`,

			".gitignore": `*.log
dist/
`,
		},
	}
}

// fullProject scaffolds a Go program embedding Loom with a live counter.
func fullProject() *Template {
	return &Template{
		Name:        "full",
		Description: "A Go program embedding Loom, with a live event handler",
		Files: map[string]string{
			"go.mod": `module [[.ModulePath]]

go 1.23

require github.com/loom-ui/loom v0.1.0
`,

			"main.go": `package main

import (
	"context"
	"fmt"
	"log"

	"github.com/loom-ui/loom"
)

func main() {
	app := loom.New(loom.Config{
		Templates: loom.TemplatesConfig{Dir: "templates"},
		Static:    loom.StaticConfig{Dir: "public", Prefix: "/static/"},
		DevMode:   true,
	})

	app.PageTemplate("/", "index.html", nil)
	app.Page("/counter", counterPage)

	log.Fatal(app.Run(":3000"))
}

// counterPage is a live view: clicks reach the server over the page's
// WebSocket session and the updated markup is pushed back.
func counterPage(ctx context.Context, doc *loom.Document) (*loom.View, error) {
	clicks := 0

	v := loom.NewView(doc, loom.Definition{
		Template: loom.FromString("counter",
			"<div class='page'><h1>Counter</h1>"+
				"<p class='count'>Clicks: 0</p>"+
				"<button class='inc'>+1</button>"+
				"<p><a href='/'>Back home</a></p></div>"),
		Elements: map[string]string{"$count": ".count"},
		Events: map[string]loom.EventHandler{
			"click .inc": func(v *loom.View, e *loom.Event) {
				clicks++
				v.Element("$count").SetText(fmt.Sprintf("Clicks: %d", clicks))
			},
		},
	})
	return v, nil
}
`,

			"templates/index.html": `<div class="page">
  <link rel="stylesheet" href="/static/css/site.css">
  <h1>[[.ProjectName]]</h1>
  <p>[[.Description]]</p>
  <p>Try the <a href="/counter">live counter</a>.</p>
</div>
`,

			"public/css/site.css": `body {
  font-family: system-ui, sans-serif;
  max-width: 40rem;
  margin: 0 auto;
  padding: 2rem;
}

.page h1 {
  color: #2563eb;
}

button {
  font-size: 1rem;
  padding: 0.25rem 1rem;
}
`,

			"README.md": `# [[.ProjectName]]

[[.Description]]

The counter page keeps a live WebSocket session: the click handler runs
in main.go on the server and pushes the updated markup back.

Run it:

    go mod tidy
    go run .

Then open http://localhost:3000.
`,

			".gitignore": `*.log
dist/
[[.ProjectName]]
`,
		},
	}
}
