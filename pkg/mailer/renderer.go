package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

//go:embed templates
var embedded embed.FS

// Templates returns the built-in account templates.
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}

// Rendered is a rendered template.
type Rendered struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

type parsedTemplate struct {
	meta map[string]any
	body *texttemplate.Template
}

// Renderer renders markdown templates into HTML layouts. Layouts are read
// from the "layouts" directory of the file system. Parsed templates are
// cached; rendering is safe for concurrent use.
type Renderer struct {
	fsys      fs.FS
	md        goldmark.Markdown
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template
	mu        sync.RWMutex
}

// NewRenderer creates a renderer over fsys.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys:      fsys,
		md:        goldmark.New(goldmark.WithExtensions(ButtonExtension())),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*template.Template),
	}
}

// Render executes the named template with data and wraps the resulting
// HTML in layout.
func (r *Renderer) Render(layout, name string, data any) (*Rendered, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	if err := tmpl.body.Execute(&md, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}
	var content bytes.Buffer
	if err := r.md.Convert(md.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	lt, err := r.layout(layout)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	err = lt.Execute(&out, map[string]any{
		"Content":  template.HTML(content.String()),
		"Metadata": tmpl.meta,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, layout, err)
	}

	return &Rendered{Metadata: tmpl.meta, HTML: out.String(), Text: md.String()}, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.RLock()
	t, ok := r.templates[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	content, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	meta, body, err := parseTemplate(content)
	if err != nil {
		return nil, err
	}
	parsed, err := texttemplate.New(name).Parse(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	t = &parsedTemplate{meta: meta, body: parsed}
	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()
	return t, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.RLock()
	t, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	content, err := fs.ReadFile(r.fsys, path.Join("layouts", name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	t, err = template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, name, err)
	}

	r.mu.Lock()
	r.layouts[name] = t
	r.mu.Unlock()
	return t, nil
}
