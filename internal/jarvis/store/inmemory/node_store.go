package inmemory

import (
	"context"
	"sync"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// NodeStore is an in-memory, mutex-protected NodeStore. Nodes append in
// creation order per run; Update never changes that order.
type NodeStore struct {
	mu        sync.RWMutex
	byRun     map[string][]*entity.NodeExecution
	nodeIndex map[string]*entity.NodeExecution
}

// NewNodeStore constructs an empty NodeStore.
func NewNodeStore() *NodeStore {
	return &NodeStore{
		byRun:     make(map[string][]*entity.NodeExecution),
		nodeIndex: make(map[string]*entity.NodeExecution),
	}
}

func (s *NodeStore) Append(_ context.Context, node *entity.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRun[node.RunID] = append(s.byRun[node.RunID], node)
	s.nodeIndex[node.ID] = node
	return nil
}

func (s *NodeStore) Update(_ context.Context, node *entity.NodeExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodeIndex[node.ID]; !ok {
		return apierr.New(apierr.NotFound, apierr.CodeNodeNotFound, "node not found")
	}
	s.nodeIndex[node.ID] = node
	for i, n := range s.byRun[node.RunID] {
		if n.ID == node.ID {
			s.byRun[node.RunID][i] = node
			break
		}
	}
	return nil
}

func (s *NodeStore) ListByRun(_ context.Context, runID string) ([]*entity.NodeExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := s.byRun[runID]
	out := make([]*entity.NodeExecution, len(nodes))
	copy(out, nodes)
	return out, nil
}
