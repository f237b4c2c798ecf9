package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/internal/repository"
	"github.com/freeeve/parliament/pkg/election"
)

// mockStore implements both ElectionRepository and PlanRepository so a
// commit can update the snapshot and the history together.
type mockStore struct {
	mu        sync.Mutex
	elections map[string]*model.Election
	snapshots map[string]*election.Snapshot
	records   map[string][]model.PlanRecord
}

func newMockStore() *mockStore {
	return &mockStore{
		elections: make(map[string]*model.Election),
		snapshots: make(map[string]*election.Snapshot),
		records:   make(map[string][]model.PlanRecord),
	}
}

func (m *mockStore) Create(_ context.Context, name, creatorID string, snap *election.Snapshot) (*model.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := &model.Election{
		ID:              fmt.Sprintf("election-%d", len(m.elections)+1),
		Name:            name,
		CreatorID:       creatorID,
		SnapshotVersion: snap.Version,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	m.elections[e.ID] = e
	m.snapshots[e.ID] = snap.Clone()
	return e, nil
}

func (m *mockStore) FindByID(_ context.Context, id string) (*model.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.elections[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *mockStore) List(_ context.Context) ([]model.Election, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Election
	for _, e := range m.elections {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) LoadSnapshot(_ context.Context, electionID string) (*election.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[electionID]
	if !ok {
		return nil, nil
	}
	return snap.Clone(), nil
}

func (m *mockStore) ReplaceSnapshot(_ context.Context, electionID string, snap *election.Snapshot, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.replaceLocked(electionID, snap, expectedVersion)
}

func (m *mockStore) replaceLocked(electionID string, snap *election.Snapshot, expectedVersion int64) error {
	e, ok := m.elections[electionID]
	if !ok || e.SnapshotVersion != expectedVersion {
		return repository.ErrVersionConflict
	}
	e.SnapshotVersion = snap.Version
	m.snapshots[electionID] = snap.Clone()
	return nil
}

func (m *mockStore) Commit(_ context.Context, snap *election.Snapshot, expectedVersion int64, rec *model.PlanRecord) (*model.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.replaceLocked(rec.ElectionID, snap, expectedVersion); err != nil {
		return nil, err
	}
	out := *rec
	out.ID = fmt.Sprintf("record-%d", len(m.records[rec.ElectionID])+1)
	out.Version = snap.Version
	out.CommittedAt = time.Now()
	m.records[rec.ElectionID] = append(m.records[rec.ElectionID], out)
	return &out, nil
}

func (m *mockStore) ListByElection(_ context.Context, electionID string) ([]model.PlanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.PlanRecord(nil), m.records[electionID]...), nil
}

// mockCache is an in-memory PlanCache. Values are JSON round-tripped like
// the Redis implementation so callers cannot share pointers with it.
type mockCache struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	drafts    map[string][]byte
	locks     map[string]string
	failGet   bool
	failSet   bool
}

func newMockCache() *mockCache {
	return &mockCache{
		snapshots: make(map[string][]byte),
		drafts:    make(map[string][]byte),
		locks:     make(map[string]string),
	}
}

var errCacheDown = errors.New("cache unavailable")

func (m *mockCache) SetSnapshot(_ context.Context, electionID string, snap *election.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errCacheDown
	}
	data, _ := json.Marshal(snap)
	m.snapshots[electionID] = data
	return nil
}

func (m *mockCache) GetSnapshot(_ context.Context, electionID string) (*election.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errCacheDown
	}
	data, ok := m.snapshots[electionID]
	if !ok {
		return nil, nil
	}
	snap := election.NewSnapshot()
	json.Unmarshal(data, snap)
	return snap, nil
}

func (m *mockCache) DeleteSnapshot(_ context.Context, electionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, electionID)
	return nil
}

func (m *mockCache) SaveDraft(_ context.Context, d *model.PlanDraft, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := json.Marshal(d)
	m.drafts[d.ElectionID+"/"+d.ID] = data
	return nil
}

func (m *mockCache) GetDraft(_ context.Context, electionID, draftID string) (*model.PlanDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.drafts[electionID+"/"+draftID]
	if !ok {
		return nil, nil
	}
	var d model.PlanDraft
	json.Unmarshal(data, &d)
	return &d, nil
}

func (m *mockCache) DeleteDraft(_ context.Context, electionID, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, electionID+"/"+draftID)
	return nil
}

func (m *mockCache) AcquireCommitLock(_ context.Context, electionID, owner string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[electionID]; held {
		return false, nil
	}
	m.locks[electionID] = owner
	return true, nil
}

func (m *mockCache) ReleaseCommitLock(_ context.Context, electionID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[electionID] == owner {
		delete(m.locks, electionID)
	}
	return nil
}

// recordingBroadcaster captures broadcast events.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	electionID string
	eventType  string
	data       any
}

func (b *recordingBroadcaster) BroadcastElectionEvent(electionID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{electionID, eventType, data})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, e := range b.events {
		out = append(out, e.eventType)
	}
	return out
}
