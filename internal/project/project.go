package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrProjectExists    = errors.New("project already exists")
	ErrInvalidProjectID = errors.New("invalid project ID")
	ErrEmptyProjectName = errors.New("project name cannot be empty")
)

// Project is the scoping unit for tasks, dependencies, and audit entries.
type Project struct {
	// ID is the unique project identifier (UUID).
	ID string `json:"id"`

	// Name is the human-readable project name, unique per instance.
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// CreatedAt is when the project was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the project was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProject creates a new project with a generated UUID.
func NewProject(name, description string) (*Project, error) {
	if name == "" {
		return nil, ErrEmptyProjectName
	}

	now := time.Now()
	return &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Validate checks if the project has valid fields.
func (p *Project) Validate() error {
	if p.ID == "" {
		return ErrInvalidProjectID
	}
	if p.Name == "" {
		return ErrEmptyProjectName
	}
	return nil
}
