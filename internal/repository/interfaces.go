package repository

import (
	"context"
	"errors"
	"time"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/pkg/election"
)

// ErrVersionConflict is returned when a snapshot write expected a version
// that is no longer current.
var ErrVersionConflict = errors.New("snapshot version conflict")

// UserRepository defines user data operations.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	Upsert(ctx context.Context, provider, providerID, displayName string) (*model.User, error)
}

// ElectionRepository defines election and snapshot data operations.
type ElectionRepository interface {
	Create(ctx context.Context, name, creatorID string, snap *election.Snapshot) (*model.Election, error)
	FindByID(ctx context.Context, id string) (*model.Election, error)
	List(ctx context.Context) ([]model.Election, error)
	LoadSnapshot(ctx context.Context, electionID string) (*election.Snapshot, error)
	// ReplaceSnapshot stores snap (whose Version must be expectedVersion+1)
	// only if the stored version still equals expectedVersion.
	ReplaceSnapshot(ctx context.Context, electionID string, snap *election.Snapshot, expectedVersion int64) error
}

// PlanRepository defines committed plan history operations.
type PlanRepository interface {
	// Commit stores the new snapshot and appends the record in one
	// transaction, with the same version check as ReplaceSnapshot.
	Commit(ctx context.Context, snap *election.Snapshot, expectedVersion int64, rec *model.PlanRecord) (*model.PlanRecord, error)
	ListByElection(ctx context.Context, electionID string) ([]model.PlanRecord, error)
}

// PlanCache defines live snapshot and draft operations (Redis).
type PlanCache interface {
	SetSnapshot(ctx context.Context, electionID string, snap *election.Snapshot) error
	GetSnapshot(ctx context.Context, electionID string) (*election.Snapshot, error)
	DeleteSnapshot(ctx context.Context, electionID string) error
	SaveDraft(ctx context.Context, draft *model.PlanDraft, ttl time.Duration) error
	GetDraft(ctx context.Context, electionID, draftID string) (*model.PlanDraft, error)
	DeleteDraft(ctx context.Context, electionID, draftID string) error
	// AcquireCommitLock returns false when another commit holds the lock.
	AcquireCommitLock(ctx context.Context, electionID, owner string, ttl time.Duration) (bool, error)
	ReleaseCommitLock(ctx context.Context, electionID, owner string) error
}
