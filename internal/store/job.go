package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/crewforge/content-orchestrator/internal/store/model"
)

// Job is the interface for job registry operations.
type Job interface {
	Create(ctx context.Context, job model.Job) (*model.Job, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Job, error)
	Update(ctx context.Context, id uuid.UUID, mutate func(job *model.Job)) (*model.Job, error)
	List(ctx context.Context, filter *JobQueryFilter) ([]model.Job, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (model.JobStats, error)
}

// JobStore is an in-memory implementation of Job. Records do not survive a
// process restart. The store lock is held across Update mutators, which makes
// read-modify-write atomic per id.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*jobEntry
	seq  uint64
}

type jobEntry struct {
	job *model.Job
	seq uint64
}

// Make sure we conform to Job interface
var _ Job = (*JobStore)(nil)

func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[uuid.UUID]*jobEntry)}
}

func (s *JobStore) Create(_ context.Context, job model.Job) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return nil, ErrDuplicateKey
	}

	s.seq++
	s.jobs[job.ID] = &jobEntry{job: job.Copy(), seq: s.seq}

	return job.Copy(), nil
}

func (s *JobStore) Get(_ context.Context, id uuid.UUID) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.jobs[id]
	if !exists {
		return nil, ErrRecordNotFound
	}
	return entry.job.Copy(), nil
}

func (s *JobStore) Update(_ context.Context, id uuid.UUID, mutate func(job *model.Job)) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.jobs[id]
	if !exists {
		return nil, ErrRecordNotFound
	}

	mutate(entry.job)
	return entry.job.Copy(), nil
}

func (s *JobStore) List(_ context.Context, filter *JobQueryFilter) ([]model.Job, error) {
	if filter == nil {
		filter = NewJobQueryFilter()
	}

	s.mu.RLock()
	entries := make([]jobEntry, 0, len(s.jobs))
	for _, entry := range s.jobs {
		if filter.matches(entry.job) {
			entries = append(entries, jobEntry{job: entry.job.Copy(), seq: entry.seq})
		}
	}
	s.mu.RUnlock()

	// Newest first. Creation sequence breaks ties between equal timestamps.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].job.CreatedAt.Equal(entries[j].job.CreatedAt) {
			return entries[i].seq > entries[j].seq
		}
		return entries[i].job.CreatedAt.After(entries[j].job.CreatedAt)
	})

	if len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}

	jobs := make([]model.Job, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, *entry.job)
	}
	return jobs, nil
}

func (s *JobStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; !exists {
		return ErrRecordNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *JobStore) Stats(_ context.Context) (model.JobStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.JobStats{
		Total:    len(s.jobs),
		ByStatus: make(map[model.JobStatus]int),
	}
	for _, entry := range s.jobs {
		stats.ByStatus[entry.job.Status]++
	}
	return stats, nil
}
