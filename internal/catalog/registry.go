package catalog

import (
	"fmt"
	"sort"

	"shopmcp/internal/model"
)

// Project binds one project identifier to its backend and prompt context.
type Project struct {
	Name string

	Backend Backend

	// PromptsDir holds the developer_core.md / runtime_context.md documents
	// served by the initial-prompts tool.
	PromptsDir string

	// CategoriesFromDB appends the backend's distinct category values to the
	// runtime context when the backend implements CategoryLister.
	CategoriesFromDB bool

	// ExtraContext is free text appended instead when the project has no
	// dynamic category listing.
	ExtraContext string
}

// Registry resolves project identifiers to backends. Populated once at
// startup; lookups are exact-match with no default fallback.
type Registry struct {
	projects map[string]*Project
}

func NewRegistry() *Registry {
	return &Registry{projects: make(map[string]*Project)}
}

func (r *Registry) Register(p *Project) error {
	if p == nil || p.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if p.Backend == nil {
		return fmt.Errorf("project %q has no backend", p.Name)
	}
	if _, exists := r.projects[p.Name]; exists {
		return fmt.Errorf("project %q registered twice", p.Name)
	}
	r.projects[p.Name] = p
	return nil
}

// Resolve returns the project for name. Serving the wrong catalog is worse
// than failing, so an unknown name is an error, never a default.
func (r *Registry) Resolve(name string) (*Project, error) {
	p, ok := r.projects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownProject, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.projects))
	for name := range r.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
