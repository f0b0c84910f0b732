package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/boltdb/bolt"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// NodeStore is a BoltDB-backed orchestrator.NodeStore.
type NodeStore struct {
	db *bolt.DB
}

// NewNodeStore constructs a NodeStore over db.
func NewNodeStore(db *DB) *NodeStore {
	return &NodeStore{db: db.Bolt()}
}

func (s *NodeStore) Append(_ context.Context, node *entity.NodeExecution) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal node: %w", err)
		}
		return tx.Bucket(bucketNodes).Put([]byte(node.ID), data)
	})
}

func (s *NodeStore) Update(_ context.Context, node *entity.NodeExecution) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNodes)
		if b.Get([]byte(node.ID)) == nil {
			return apierr.New(apierr.NotFound, apierr.CodeNodeNotFound, "node not found")
		}
		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("marshal node: %w", err)
		}
		return b.Put([]byte(node.ID), data)
	})
}

func (s *NodeStore) ListByRun(_ context.Context, runID string) ([]*entity.NodeExecution, error) {
	var nodes []*entity.NodeExecution
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketNodes).ForEach(func(_, v []byte) error {
			var n entity.NodeExecution
			if err := json.Unmarshal(v, &n); err != nil {
				return fmt.Errorf("unmarshal node: %w", err)
			}
			if n.RunID == runID {
				nodes = append(nodes, &n)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Seq < nodes[j].Seq })
	return nodes, nil
}
