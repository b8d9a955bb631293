package services

import (
	"github.com/fyrsmithlabs/pland/internal/audit"
	"github.com/fyrsmithlabs/pland/internal/project"
	"github.com/fyrsmithlabs/pland/internal/schedule"
	"github.com/fyrsmithlabs/pland/internal/tasks"
)

// Registry provides access to all pland services.
// Use accessor methods to retrieve individual services.
type Registry interface {
	Projects() project.Manager
	Tasks() tasks.Service
	Graph() *schedule.Graph
	Calculator() *schedule.Calculator
	Rescheduler() *schedule.Rescheduler
	Audit() audit.Recorder
}

// Options configures the registry with service instances.
type Options struct {
	Projects    project.Manager
	Tasks       tasks.Service
	Graph       *schedule.Graph
	Calculator  *schedule.Calculator
	Rescheduler *schedule.Rescheduler
	Audit       audit.Recorder
}

// registry is the concrete implementation of Registry.
type registry struct {
	projects    project.Manager
	tasks       tasks.Service
	graph       *schedule.Graph
	calculator  *schedule.Calculator
	rescheduler *schedule.Rescheduler
	audit       audit.Recorder
}

// NewRegistry creates a new service registry.
func NewRegistry(opts Options) Registry {
	return &registry{
		projects:    opts.Projects,
		tasks:       opts.Tasks,
		graph:       opts.Graph,
		calculator:  opts.Calculator,
		rescheduler: opts.Rescheduler,
		audit:       opts.Audit,
	}
}

func (r *registry) Projects() project.Manager          { return r.projects }
func (r *registry) Tasks() tasks.Service               { return r.tasks }
func (r *registry) Graph() *schedule.Graph             { return r.graph }
func (r *registry) Calculator() *schedule.Calculator   { return r.calculator }
func (r *registry) Rescheduler() *schedule.Rescheduler { return r.rescheduler }
func (r *registry) Audit() audit.Recorder              { return r.audit }
