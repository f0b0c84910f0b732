// Package inmemory implements RunStore and NodeStore over plain maps,
// used by the orchestrator tests; the server always wires the BoltDB stores.
package inmemory

import (
	"context"
	"sync"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// RunStore is an in-memory, mutex-protected RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*entity.Run
}

// NewRunStore constructs an empty RunStore.
func NewRunStore() *RunStore {
	return &RunStore{runs: make(map[string]*entity.Run)}
}

func (s *RunStore) Create(_ context.Context, run *entity.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *RunStore) Get(_ context.Context, id string) (*entity.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, apierr.New(apierr.NotFound, apierr.CodeRunNotFound, "run not found")
	}
	return run, nil
}

func (s *RunStore) Update(_ context.Context, run *entity.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[run.ID]; !ok {
		return apierr.New(apierr.NotFound, apierr.CodeRunNotFound, "run not found")
	}
	s.runs[run.ID] = run
	return nil
}

func (s *RunStore) List(_ context.Context, ownerUserID string, limit, offset int) ([]*entity.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageRuns(s.runs, func(r *entity.Run) bool { return r.OwnerUserID == ownerUserID }, limit, offset), nil
}

func (s *RunStore) ListByAgent(_ context.Context, ownerUserID string, kind entity.AgentKind, limit, offset int) ([]*entity.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return pageRuns(s.runs, func(r *entity.Run) bool { return r.OwnerUserID == ownerUserID && r.AgentKind == kind }, limit, offset), nil
}

func pageRuns(all map[string]*entity.Run, keep func(*entity.Run) bool, limit, offset int) []*entity.Run {
	matched := make([]*entity.Run, 0, len(all))
	for _, r := range all {
		if keep(r) {
			matched = append(matched, r)
		}
	}
	if offset >= len(matched) {
		return []*entity.Run{}
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end]
}
