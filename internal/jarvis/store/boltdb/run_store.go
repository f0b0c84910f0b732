package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/boltdb/bolt"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
	"github.com/jarvisrun/jarvis/internal/jarvis/service/agents/entity"
)

// RunStore is a BoltDB-backed orchestrator.RunStore.
type RunStore struct {
	db *bolt.DB
}

// NewRunStore constructs a RunStore over db.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.Bolt()}
}

func (s *RunStore) Create(_ context.Context, run *entity.Run) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		return tx.Bucket(bucketRuns).Put([]byte(run.ID), data)
	})
}

func (s *RunStore) Get(_ context.Context, id string) (*entity.Run, error) {
	var run entity.Run
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketRuns).Get([]byte(id))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &run)
	})
	if err != nil {
		return nil, fmt.Errorf("get run %q: %w", id, err)
	}
	if !found {
		return nil, apierr.New(apierr.NotFound, apierr.CodeRunNotFound, "run not found")
	}
	return &run, nil
}

func (s *RunStore) Update(_ context.Context, run *entity.Run) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		if b.Get([]byte(run.ID)) == nil {
			return apierr.New(apierr.NotFound, apierr.CodeRunNotFound, "run not found")
		}
		data, err := json.Marshal(run)
		if err != nil {
			return fmt.Errorf("marshal run: %w", err)
		}
		return b.Put([]byte(run.ID), data)
	})
}

func (s *RunStore) List(_ context.Context, ownerUserID string, limit, offset int) ([]*entity.Run, error) {
	return s.scan(func(r *entity.Run) bool { return r.OwnerUserID == ownerUserID }, limit, offset)
}

func (s *RunStore) ListByAgent(_ context.Context, ownerUserID string, kind entity.AgentKind, limit, offset int) ([]*entity.Run, error) {
	return s.scan(func(r *entity.Run) bool { return r.OwnerUserID == ownerUserID && r.AgentKind == kind }, limit, offset)
}

func (s *RunStore) scan(keep func(*entity.Run) bool, limit, offset int) ([]*entity.Run, error) {
	var matched []*entity.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, v []byte) error {
			var r entity.Run
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("unmarshal run: %w", err)
			}
			if keep(&r) {
				matched = append(matched, &r)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if offset >= len(matched) {
		return []*entity.Run{}, nil
	}
	end := len(matched)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return matched[offset:end], nil
}
