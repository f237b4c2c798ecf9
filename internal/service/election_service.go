package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/internal/logger"
	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/internal/repository"
	"github.com/freeeve/parliament/pkg/election"
)

var (
	ErrElectionNotFound = errors.New("election not found")
	ErrPartyNotFound    = errors.New("party not found")
	ErrAllianceNotFound = errors.New("alliance not found")
	ErrForbidden        = errors.New("not allowed to act for this party")
	ErrStaleSnapshot    = errors.New("snapshot has changed since it was read")
)

// Actor is the caller of a service operation. An empty PartyID means the
// game master, who may act for any party.
type Actor struct {
	UserID  string
	PartyID string
}

// IsGameMaster reports whether the actor is unbound to any party.
func (a Actor) IsGameMaster() bool { return a.PartyID == "" }

// CanActFor reports whether the actor may plan for the party.
func (a Actor) CanActFor(partyID string) bool {
	return a.IsGameMaster() || a.PartyID == partyID
}

// CanActForAlliance reports whether the actor may plan for the alliance.
func (a Actor) CanActForAlliance(al *election.Alliance) bool {
	return a.IsGameMaster() || al.Includes(a.PartyID)
}

// ElectionService manages elections and their snapshots.
type ElectionService struct {
	elections   repository.ElectionRepository
	cache       repository.PlanCache
	broadcaster Broadcaster
}

// NewElectionService creates an ElectionService.
func NewElectionService(elections repository.ElectionRepository, cache repository.PlanCache, broadcaster Broadcaster) *ElectionService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &ElectionService{elections: elections, cache: cache, broadcaster: broadcaster}
}

// CreateElection stores a new election with its initial snapshot at version 0.
func (s *ElectionService) CreateElection(ctx context.Context, actor Actor, name string, snap *election.Snapshot) (*model.Election, error) {
	if !actor.IsGameMaster() {
		return nil, ErrForbidden
	}
	if snap == nil {
		snap = election.NewSnapshot()
	} else {
		snap = snap.Clone()
	}
	snap.Version = 0
	e, err := s.elections.Create(ctx, name, actor.UserID, snap)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetSnapshot(ctx, e.ID, snap); err != nil {
		log.Warn().Err(err).Str("electionId", e.ID).Msg("Failed to cache new snapshot")
	}
	return e, nil
}

// ListElections returns every election.
func (s *ElectionService) ListElections(ctx context.Context) ([]model.Election, error) {
	return s.elections.List(ctx)
}

// GetElection returns one election.
func (s *ElectionService) GetElection(ctx context.Context, id string) (*model.Election, error) {
	e, err := s.elections.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrElectionNotFound
	}
	return e, nil
}

// GetSnapshot returns the current snapshot, from cache when possible.
func (s *ElectionService) GetSnapshot(ctx context.Context, electionID string) (*election.Snapshot, error) {
	return loadSnapshot(ctx, s.elections, s.cache, electionID)
}

// ReplaceSnapshot overwrites the election's snapshot. expectedVersion must
// match the stored version; the new snapshot is stored at the next version.
func (s *ElectionService) ReplaceSnapshot(ctx context.Context, actor Actor, electionID string, snap *election.Snapshot, expectedVersion int64) (*election.Snapshot, error) {
	if !actor.IsGameMaster() {
		return nil, ErrForbidden
	}
	if snap == nil {
		return nil, fmt.Errorf("replace snapshot: nil snapshot")
	}
	next := snap.Clone()
	next.Version = expectedVersion + 1
	err := s.elections.ReplaceSnapshot(ctx, electionID, next, expectedVersion)
	if errors.Is(err, repository.ErrVersionConflict) {
		if e, ferr := s.elections.FindByID(ctx, electionID); ferr == nil && e == nil {
			return nil, ErrElectionNotFound
		}
		return nil, ErrStaleSnapshot
	}
	if err != nil {
		return nil, err
	}
	storeCached(ctx, s.cache, electionID, next)

	l := logger.ForElection(ctx, electionID)
	l.Info().Int64("version", next.Version).Msg("Snapshot replaced")
	s.broadcaster.BroadcastElectionEvent(electionID, EventSnapshotReplaced, map[string]any{
		"version": next.Version,
	})
	return next, nil
}

// loadSnapshot reads through the cache to Postgres.
func loadSnapshot(ctx context.Context, elections repository.ElectionRepository, cache repository.PlanCache, electionID string) (*election.Snapshot, error) {
	snap, err := cache.GetSnapshot(ctx, electionID)
	if err != nil {
		log.Warn().Err(err).Str("electionId", electionID).Msg("Snapshot cache read failed, falling back to database")
	}
	if snap != nil {
		return snap, nil
	}
	snap, err = elections.LoadSnapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, ErrElectionNotFound
	}
	storeCached(ctx, cache, electionID, snap)
	return snap, nil
}

// storeCached refreshes the cache; on failure the stale entry is dropped so
// readers fall back to the database.
func storeCached(ctx context.Context, cache repository.PlanCache, electionID string, snap *election.Snapshot) {
	if err := cache.SetSnapshot(ctx, electionID, snap); err != nil {
		log.Warn().Err(err).Str("electionId", electionID).Msg("Failed to cache snapshot")
		if derr := cache.DeleteSnapshot(ctx, electionID); derr != nil {
			log.Error().Err(derr).Str("electionId", electionID).Msg("Failed to drop stale snapshot cache")
		}
	}
}
