package cron

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
)

const dailyCadence = 24 * time.Hour

// Job is one unit of scheduled work. Run reports how many rows or bookings
// it touched.
type Job interface {
	Name() string
	Run(ctx context.Context) (int64, error)
}

// Cadenced jobs run at most once per Every window. Jobs without it run on
// every cycle.
type Cadenced interface {
	Every() time.Duration
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type scheduled struct {
	job     Job
	every   time.Duration
	lastRun time.Time
}

// Registry keeps jobs in registration order along with their last run.
type Registry struct {
	mu      sync.Mutex
	entries []*scheduled
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	entry := &scheduled{job: job}
	if c, ok := job.(Cadenced); ok {
		entry.every = c.Every()
	}
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

func (r *Registry) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]Job, 0, len(r.entries))
	for _, e := range r.entries {
		jobs = append(jobs, e.job)
	}
	return jobs
}

// Due returns the jobs whose cadence has elapsed at now.
func (r *Registry) Due(now time.Time) []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	var due []Job
	for _, e := range r.entries {
		if e.every <= 0 || e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.every {
			due = append(due, e.job)
		}
	}
	return due
}

// MarkRan records a completed run of the named job.
func (r *Registry) MarkRan(name string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.job.Name() == name {
			e.lastRun = at
		}
	}
}
