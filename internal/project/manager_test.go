package project

import (
	"context"
	"errors"
	"testing"
)

func TestManagerCreate(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	p, err := m.Create(ctx, "rollout", "Q3 rollout plan")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p.ID == "" {
		t.Error("Create() returned empty ID")
	}
	if p.Name != "rollout" {
		t.Errorf("Create() name = %q, want %q", p.Name, "rollout")
	}
	if p.CreatedAt.IsZero() {
		t.Error("Create() did not set CreatedAt")
	}
}

func TestManagerCreateValidation(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	if _, err := m.Create(ctx, "", "no name"); !errors.Is(err, ErrEmptyProjectName) {
		t.Errorf("Create() error = %v, want ErrEmptyProjectName", err)
	}

	if _, err := m.Create(ctx, "dup", ""); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := m.Create(ctx, "dup", ""); !errors.Is(err, ErrProjectExists) {
		t.Errorf("Create() duplicate name error = %v, want ErrProjectExists", err)
	}
}

func TestManagerGet(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	created, err := m.Create(ctx, "rollout", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := m.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("Get() ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := m.Get(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get() unknown id error = %v, want ErrProjectNotFound", err)
	}
	if _, err := m.Get(ctx, ""); !errors.Is(err, ErrInvalidProjectID) {
		t.Errorf("Get() empty id error = %v, want ErrInvalidProjectID", err)
	}
}

func TestManagerGetByName(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	created, err := m.Create(ctx, "rollout", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := m.GetByName(ctx, "rollout")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByName() ID = %q, want %q", got.ID, created.ID)
	}

	if _, err := m.GetByName(ctx, "nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("GetByName() unknown name error = %v, want ErrProjectNotFound", err)
	}
}

func TestManagerList(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		if _, err := m.Create(ctx, name, ""); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}

	projects, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 3 {
		t.Errorf("List() returned %d projects, want 3", len(projects))
	}
}

func TestManagerDelete(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	created, err := m.Create(ctx, "rollout", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(ctx, created.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrProjectNotFound", err)
	}

	// The name is free again after deletion.
	if _, err := m.Create(ctx, "rollout", ""); err != nil {
		t.Errorf("Create() after delete error = %v", err)
	}

	if err := m.Delete(ctx, "missing"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Delete() unknown id error = %v, want ErrProjectNotFound", err)
	}
}

func TestProjectValidate(t *testing.T) {
	tests := []struct {
		name    string
		project Project
		wantErr error
	}{
		{"valid", Project{ID: "id", Name: "n"}, nil},
		{"missing id", Project{Name: "n"}, ErrInvalidProjectID},
		{"missing name", Project{ID: "id"}, ErrEmptyProjectName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.project.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
