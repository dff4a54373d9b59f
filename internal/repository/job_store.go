package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"transferscan/internal/domain"
)

// ErrJobNotFound is returned when a job id is unknown to the store.
var ErrJobNotFound = errors.New("job not found")

// JobStore holds the pollable state of every in-flight and completed job
// in memory. Updates replace whole records under the lock, so readers
// always observe a consistent snapshot.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*domain.Job
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*domain.Job),
	}
}

// Create registers a new job in the processing state.
// CreatedAt is stamped here so the retention sweep can age it out.
func (s *JobStore) Create(id string) {
	job := &domain.Job{
		ID:        id,
		Status:    domain.JobStatusProcessing,
		Matches:   []domain.MatchResult{},
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[id] = job
	s.mu.Unlock()
}

// Get returns a snapshot of the job, or ErrJobNotFound.
func (s *JobStore) Get(id string) (domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.Job{}, ErrJobNotFound
	}
	return clone(job), nil
}

// Update applies the mutator to a private copy of the job and swaps the
// copy in, so concurrent readers see either the old or the new record,
// never a partial write. Updates to unknown ids or jobs already in a
// terminal state are ignored.
func (s *JobStore) Update(id string, mutate func(*domain.Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || job.Status.Terminal() {
		return
	}

	next := clone(job)
	mutate(&next)
	s.jobs[id] = &next
}

// Sweep removes jobs created before the retention window and returns how
// many were removed. In-flight jobs inside the window are untouched.
func (s *JobStore) Sweep(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed
}

// List returns snapshots of all jobs, newest first.
func (s *JobStore) List() []domain.Job {
	s.mu.RLock()
	jobs := make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, clone(job))
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// clone copies a job, including its matches slice, so callers can never
// alias the stored record.
func clone(job *domain.Job) domain.Job {
	cp := *job
	cp.Matches = make([]domain.MatchResult, len(job.Matches))
	copy(cp.Matches, job.Matches)
	return cp
}
