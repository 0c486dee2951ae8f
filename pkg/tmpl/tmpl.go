package tmpl

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrNoSource is returned when a source producer yields no template.
var ErrNoSource = errors.New("tmpl: source producer returned no template")

// ErrNotFound is returned by stores for unknown template names.
var ErrNotFound = errors.New("tmpl: template not found")

// SourceFunc produces the compiled template for a render. It is invoked
// fresh on every render so the producer decides what "current" means.
type SourceFunc func() (*template.Template, error)

// DataFunc produces the value a template executes against. A nil DataFunc
// stands for "no data": the template runs against a nil value.
type DataFunc func() (any, error)

// Error wraps a markup resolution failure. Op tells which stage failed:
// "source", "data", "execute" or "load". The underlying cause is available
// through errors.Unwrap.
type Error struct {
	Name string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("tmpl: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("tmpl: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Resolve produces markup by invoking both producers and executing the
// template. Every call re-invokes source and data; failures of either
// producer and of template execution come back as *Error with the original
// cause wrapped, never as substitute markup.
func Resolve(source SourceFunc, data DataFunc) (string, error) {
	if source == nil {
		return "", &Error{Op: "source", Err: ErrNoSource}
	}
	t, err := source()
	if err != nil {
		return "", &Error{Op: "source", Err: err}
	}
	if t == nil {
		return "", &Error{Op: "source", Err: ErrNoSource}
	}

	var payload any
	if data != nil {
		payload, err = data()
		if err != nil {
			return "", &Error{Name: t.Name(), Op: "data", Err: err}
		}
	}

	var buf strings.Builder
	if err := t.Execute(&buf, payload); err != nil {
		return "", &Error{Name: t.Name(), Op: "execute", Err: err}
	}
	return buf.String(), nil
}

// Compile parses src into a named template.
func Compile(name, src string) (*template.Template, error) {
	return template.New(name).Parse(src)
}

// FromString compiles src once and returns a producer handing out the
// result. Compilation errors surface on first use.
//
// Example:
//
//	def.Template = tmpl.FromString("greeting", `<p>Hello {{.name}}</p>`)
func FromString(name, src string) SourceFunc {
	t, err := Compile(name, src)
	return func() (*template.Template, error) {
		if err != nil {
			return nil, err
		}
		return t, nil
	}
}

// Static wraps an already compiled template as a producer.
func Static(t *template.Template) SourceFunc {
	return func() (*template.Template, error) {
		return t, nil
	}
}

// StaticData wraps a fixed value as a data producer.
func StaticData(v any) DataFunc {
	return func() (any, error) {
		return v, nil
	}
}

// Producer adapts a named store entry to a SourceFunc. The context is
// captured for the producer's lifetime; live sessions pass their own.
func Producer(ctx context.Context, store Store, name string) SourceFunc {
	return func() (*template.Template, error) {
		return store.Load(ctx, name)
	}
}
