package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/internal/repository"
	"github.com/freeeve/parliament/pkg/election"
)

// ElectionRepo handles election and snapshot database operations.
type ElectionRepo struct {
	db *sql.DB
}

// NewElectionRepo creates an ElectionRepo.
func NewElectionRepo(db *sql.DB) *ElectionRepo {
	return &ElectionRepo{db: db}
}

const electionColumns = `id, name, creator_id, snapshot_version, created_at, updated_at`

func scanElection(row interface{ Scan(...any) error }, e *model.Election) error {
	return row.Scan(&e.ID, &e.Name, &e.CreatorID, &e.SnapshotVersion, &e.CreatedAt, &e.UpdatedAt)
}

// Create inserts a new election with its initial snapshot.
func (r *ElectionRepo) Create(ctx context.Context, name, creatorID string, snap *election.Snapshot) (*model.Election, error) {
	if snap == nil {
		snap = election.NewSnapshot()
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	var e model.Election
	err = scanElection(r.db.QueryRowContext(ctx,
		`INSERT INTO elections (name, creator_id, snapshot_version, snapshot)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+electionColumns,
		name, creatorID, snap.Version, data,
	), &e)
	if err != nil {
		return nil, fmt.Errorf("create election: %w", err)
	}
	return &e, nil
}

// FindByID returns an election, or nil if it does not exist.
func (r *ElectionRepo) FindByID(ctx context.Context, id string) (*model.Election, error) {
	var e model.Election
	err := scanElection(r.db.QueryRowContext(ctx,
		`SELECT `+electionColumns+` FROM elections WHERE id = $1`, id,
	), &e)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find election: %w", err)
	}
	return &e, nil
}

// List returns all elections, newest first.
func (r *ElectionRepo) List(ctx context.Context) ([]model.Election, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+electionColumns+` FROM elections ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list elections: %w", err)
	}
	defer rows.Close()

	var elections []model.Election
	for rows.Next() {
		var e model.Election
		if err := scanElection(rows, &e); err != nil {
			return nil, fmt.Errorf("scan election: %w", err)
		}
		elections = append(elections, e)
	}
	return elections, rows.Err()
}

// LoadSnapshot returns the stored snapshot, or nil if the election does not exist.
func (r *ElectionRepo) LoadSnapshot(ctx context.Context, electionID string) (*election.Snapshot, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT snapshot FROM elections WHERE id = $1`, electionID,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	snap := election.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// ReplaceSnapshot overwrites the snapshot if the stored version still
// equals expectedVersion.
func (r *ElectionRepo) ReplaceSnapshot(ctx context.Context, electionID string, snap *election.Snapshot, expectedVersion int64) error {
	return replaceSnapshot(ctx, r.db, electionID, snap, expectedVersion)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func replaceSnapshot(ctx context.Context, db execer, electionID string, snap *election.Snapshot, expectedVersion int64) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE elections SET snapshot = $1, snapshot_version = $2, updated_at = now()
		 WHERE id = $3 AND snapshot_version = $4`,
		data, snap.Version, electionID, expectedVersion)
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	if n == 0 {
		return repository.ErrVersionConflict
	}
	return nil
}
