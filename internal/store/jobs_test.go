package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rdmlabs/agent-api/internal/model"
)

func newTestJob(id string) *model.Job {
	return &model.Job{
		ID:           id,
		Kind:         model.JobKindGeneric,
		State:        model.JobStateAwaitingPayment,
		PaymentState: model.PaymentStatePending,
		Input:        map[string]string{"text": "hello"},
	}
}

func TestPutAndGet(t *testing.T) {
	s := NewJobStore()
	s.Put(newTestJob("a"))

	job, err := s.Get("a")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if job.ID != "a" || job.State != model.JobStateAwaitingPayment {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestGetUnknownID(t *testing.T) {
	s := NewJobStore()

	_, err := s.Get("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := NewJobStore()

	err := s.Update("missing", func(j *model.Job) error { return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewJobStore()
	s.Put(newTestJob("a"))

	job, _ := s.Get("a")
	job.State = model.JobStateFailed
	job.Input["text"] = "mutated"
	job.StageLog = append(job.StageLog, model.StageEvent{Stage: model.StageReflection})

	fresh, _ := s.Get("a")
	if fresh.State != model.JobStateAwaitingPayment {
		t.Errorf("stored state mutated through copy: %s", fresh.State)
	}
	if fresh.Input["text"] != "hello" {
		t.Errorf("stored input mutated through copy: %q", fresh.Input["text"])
	}
	if len(fresh.StageLog) != 0 {
		t.Errorf("stored stage log mutated through copy: %d events", len(fresh.StageLog))
	}
}

func TestUpdateIsVisible(t *testing.T) {
	s := NewJobStore()
	s.Put(newTestJob("a"))

	err := s.Update("a", func(j *model.Job) error {
		j.State = model.JobStateRunning
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}

	job, _ := s.Get("a")
	if job.State != model.JobStateRunning {
		t.Errorf("expected running, got %s", job.State)
	}
}

func TestConcurrentUpdatesSameKey(t *testing.T) {
	s := NewJobStore()
	s.Put(newTestJob("a"))

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_ = s.Update("a", func(j *model.Job) error {
				j.StageLog = append(j.StageLog, model.StageEvent{
					Stage:         model.StageReflection,
					CheckInNumber: i,
				})
				return nil
			})
		}(i)
	}
	wg.Wait()

	job, _ := s.Get("a")
	if len(job.StageLog) != n {
		t.Errorf("lost updates: expected %d stage events, got %d", n, len(job.StageLog))
	}
}

func TestConcurrentDifferentKeys(t *testing.T) {
	s := NewJobStore()
	const n = 50
	for i := 0; i < n; i++ {
		s.Put(newTestJob(fmt.Sprintf("job-%d", i)))
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			_ = s.Update(id, func(j *model.Job) error {
				j.State = model.JobStateRunning
				return nil
			})
			if _, err := s.Get(id); err != nil {
				t.Errorf("get %s: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != n {
		t.Errorf("expected %d jobs, got %d", n, s.Len())
	}
}
