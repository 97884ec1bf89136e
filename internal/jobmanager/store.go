package jobmanager

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the in-memory registry of workers. It is the sole owner of
// the Job set; everything else holds worker ids and looks them up here.
// Identifiers are unique for the lifetime of the store and never
// reused.
type Store struct {
	// NOTE: The jobs map grows unbounded; terminal workers stay resident
	// until Remove is called. The stated assumption is 'everything fits
	// in memory'. In a real system we'd run a background sweep with a
	// retention period.
	jobs map[string]*Job

	mu sync.Mutex
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		jobs: make(map[string]*Job),
	}
}

// Create allocates a fresh worker in StateStarting, owned by owner.
func (s *Store) Create(owner string, command []string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	for _, exists := s.jobs[id]; exists; _, exists = s.jobs[id] {
		id = uuid.NewString()
	}

	job := newJob(id, owner, command)
	job.state.Store(StateStarting)

	s.jobs[id] = job

	return job
}

// Get returns the worker with the given id or ErrWorkerNotFound.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.Lock()
	job, exists := s.jobs[id]
	s.mu.Unlock()

	if !exists {
		return nil, ErrWorkerNotFound
	}

	return job, nil
}

// Remove deletes a terminal worker from the store. Removing a live
// worker returns ErrNotRemovable.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return ErrWorkerNotFound
	}

	if !job.State().Terminal() || job.ActiveReaders() > 0 {
		return ErrNotRemovable
	}

	delete(s.jobs, id)

	return nil
}

// List returns a snapshot of all workers.
func (s *Store) List() []*Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}

	return out
}
