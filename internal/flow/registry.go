package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// FieldKind selects the form control used for a Field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldSelect   FieldKind = "select"
)

// Field describes one input of a flow form.
type Field struct {
	Name        string
	Label       string
	Kind        FieldKind
	Placeholder string
	Required    bool
	// MinLength is a presentation-side precondition checked before Validate.
	MinLength int
	Options   []string
	Default   string
	// Upload lets the user supply the value as a resume file.
	Upload bool
}

// Info is the static description of a flow.
type Info struct {
	Name        string
	Title       string
	Description string
	Fields      []Field
}

// Runner is the type-erased view of a Flow used by the CLI and the web layer.
type Runner interface {
	Info() Info
	ValidateValues(values map[string]any) error
	RunValues(ctx context.Context, values map[string]any) (any, error)
	RunJSON(ctx context.Context, data []byte) (any, error)
}

// Registry holds flows by name. It is written at startup and read afterwards.
type Registry struct {
	mu    sync.RWMutex
	flows map[string]Runner
	order []string
}

func NewRegistry() *Registry {
	return &Registry{flows: make(map[string]Runner)}
}

// Register adds r. Names must be unique.
func (r *Registry) Register(runner Runner) error {
	name := runner.Info().Name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.flows[name]; ok {
		return fmt.Errorf("flow %s is already registered", name)
	}

	r.flows[name] = runner
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Runner, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runner, ok := r.flows[name]
	return runner, ok
}

// List returns flow descriptions in registration order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.flows[name].Info())
	}
	return infos
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.flows))
	for name := range r.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
