package project

import (
	"context"
	"fmt"
	"sync"
)

// Manager provides CRUD operations for projects.
type Manager interface {
	// Create creates a new project with the given name and description.
	Create(ctx context.Context, name, description string) (*Project, error)

	// Get retrieves a project by ID.
	Get(ctx context.Context, id string) (*Project, error)

	// List returns all projects.
	List(ctx context.Context) ([]*Project, error)

	// Delete removes a project by ID.
	Delete(ctx context.Context, id string) error

	// GetByName finds a project by its name.
	GetByName(ctx context.Context, name string) (*Project, error)
}

// manager implements Manager with in-memory storage.
type manager struct {
	mu       sync.RWMutex
	projects map[string]*Project // id -> project
	byName   map[string]*Project // name -> project
}

// NewManager creates a new project manager with in-memory storage.
func NewManager() Manager {
	return &manager{
		projects: make(map[string]*Project),
		byName:   make(map[string]*Project),
	}
}

// Create creates a new project.
func (m *manager) Create(ctx context.Context, name, description string) (*Project, error) {
	if name == "" {
		return nil, ErrEmptyProjectName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.byName[name]; ok {
		return nil, fmt.Errorf("%w: project %s already uses name %q", ErrProjectExists, existing.ID, name)
	}

	project, err := NewProject(name, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	m.projects[project.ID] = project
	m.byName[project.Name] = project

	return project, nil
}

// Get retrieves a project by ID.
func (m *manager) Get(ctx context.Context, id string) (*Project, error) {
	if id == "" {
		return nil, ErrInvalidProjectID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	project, ok := m.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	return project, nil
}

// List returns all projects.
func (m *manager) List(ctx context.Context) ([]*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	projects := make([]*Project, 0, len(m.projects))
	for _, p := range m.projects {
		projects = append(projects, p)
	}

	return projects, nil
}

// Delete removes a project by ID.
func (m *manager) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidProjectID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	project, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}

	delete(m.projects, id)
	delete(m.byName, project.Name)

	return nil
}

// GetByName finds a project by its name.
func (m *manager) GetByName(ctx context.Context, name string) (*Project, error) {
	if name == "" {
		return nil, ErrEmptyProjectName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	project, ok := m.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: no project named %q", ErrProjectNotFound, name)
	}

	return project, nil
}
