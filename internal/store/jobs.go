package store

import (
	"errors"
	"sync"

	"github.com/rdmlabs/agent-api/internal/model"
)

// ErrNotFound is returned when a job id is not in the store.
var ErrNotFound = errors.New("job not found")

// JobStore is an in-memory job store. Storage is deliberately volatile:
// records do not survive a process restart.
//
// Locking is per key. The index mutex only guards the map itself; each entry
// carries its own mutex so updates to different jobs never serialize against
// each other.
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*entry
}

type entry struct {
	mu  sync.Mutex
	job model.Job
}

// NewJobStore creates an empty store.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*entry),
	}
}

// Put stores a new record under job.ID, replacing any existing one.
func (s *JobStore) Put(job *model.Job) {
	s.mu.Lock()
	s.jobs[job.ID] = &entry{job: cloneJob(job)}
	s.mu.Unlock()
}

// Get returns a point-in-time copy of the record, or ErrNotFound.
func (s *JobStore) Get(id string) (*model.Job, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	job := cloneJob(&e.job)
	e.mu.Unlock()
	return &job, nil
}

// Update applies mutate to the record under the entry lock, as a single
// logical unit. Two concurrent updates on the same id are serialized; updates
// on different ids are not. The mutator sees the current record and may
// return an error to abort without changes being discarded (mutations made
// before the error are kept, matching read-modify-write semantics).
func (s *JobStore) Update(id string, mutate func(*model.Job) error) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return mutate(&e.job)
}

// Find returns a copy of the first record matching the predicate, or
// ErrNotFound. Entries are locked one at a time; concurrent updates to other
// jobs are not blocked.
func (s *JobStore) Find(match func(*model.Job) bool) (*model.Job, error) {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		if match(&e.job) {
			job := cloneJob(&e.job)
			e.mu.Unlock()
			return &job, nil
		}
		e.mu.Unlock()
	}
	return nil, ErrNotFound
}

// Len returns the number of stored jobs.
func (s *JobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *JobStore) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// cloneJob copies the record deeply enough that callers cannot mutate stored
// state through returned pointers.
func cloneJob(j *model.Job) model.Job {
	out := *j

	if j.Input != nil {
		out.Input = make(map[string]string, len(j.Input))
		for k, v := range j.Input {
			out.Input[k] = v
		}
	}
	if j.StageLog != nil {
		out.StageLog = make([]model.StageEvent, len(j.StageLog))
		copy(out.StageLog, j.StageLog)
	}
	if j.Goal != nil {
		goal := *j.Goal
		out.Goal = &goal
	}
	if j.Result != nil {
		res := *j.Result
		if j.Result.Goal != nil {
			g := *j.Result.Goal
			res.Goal = &g
		}
		out.Result = &res
	}
	if j.Error != nil {
		msg := *j.Error
		out.Error = &msg
	}
	return out
}
