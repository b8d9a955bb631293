// Package audit records who changed what across the application. Recording
// is best effort: an audit failure must never fail the request that caused
// it, so Record swallows errors and logs a warning instead.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action is the kind of change being recorded.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionArchive  Action = "ARCHIVE"
	ActionBaseline Action = "BASELINE"
)

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Category  string    `json:"category"`
	Entity    string    `json:"entity"`
	Action    Action    `json:"action"`
	EntityID  string    `json:"entity_id,omitempty"`
	Summary   string    `json:"summary"`
	ProjectID string    `json:"project_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category  string
	Entity    string
	ProjectID string
	Limit     int
}

// maxListLimit caps List results regardless of the requested limit.
const maxListLimit = 500

// defaultListLimit applies when the filter does not set one.
const defaultListLimit = 200

// Recorder keeps the audit trail.
type Recorder interface {
	// Record appends an entry. Never fails the caller.
	Record(ctx context.Context, e Entry)

	// List returns entries newest first, filtered and capped.
	List(ctx context.Context, f Filter) ([]Entry, error)

	// Purge removes entries, optionally only those in a category.
	Purge(ctx context.Context, category string) error
}

// recorder implements Recorder with in-memory storage.
type recorder struct {
	logger *zap.Logger

	mu      sync.RWMutex
	entries []Entry
}

// NewRecorder creates an in-memory audit recorder.
func NewRecorder(logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recorder{logger: logger}
}

// Record appends an entry, filling defaults.
func (r *recorder) Record(ctx context.Context, e Entry) {
	if e.User == "" {
		e.User = ActorFromContext(ctx)
	}
	if e.Category == "" {
		e.Category = "Project Plan"
	}
	if e.Summary == "" || e.Entity == "" {
		r.logger.Warn("dropping incomplete audit entry",
			zap.String("entity", e.Entity),
			zap.String("summary", e.Summary),
		)
		return
	}
	e.ID = uuid.New().String()
	e.Timestamp = time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// List returns entries newest first.
func (r *recorder) List(ctx context.Context, f Filter) ([]Entry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		e := r.entries[i]
		if f.Category != "" && e.Category != f.Category {
			continue
		}
		if f.Entity != "" && e.Entity != f.Entity {
			continue
		}
		if f.ProjectID != "" && e.ProjectID != f.ProjectID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Purge removes entries, optionally scoped to a category.
func (r *recorder) Purge(ctx context.Context, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if category == "" {
		r.entries = nil
		return nil
	}
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.Category != category {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	return nil
}

// Context plumbing for the acting user.

type actorCtxKey struct{}

// WithActor stores the acting user's name in the context.
func WithActor(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, name)
}

// ActorFromContext returns the acting user, or "System" when unknown.
func ActorFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(actorCtxKey{}).(string); ok && name != "" {
		return name
	}
	return "System"
}
