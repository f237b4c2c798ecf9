package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/pkg/election"
)

// PlanRepo handles committed plan history.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo creates a PlanRepo.
func NewPlanRepo(db *sql.DB) *PlanRepo {
	return &PlanRepo{db: db}
}

// Commit replaces the election snapshot and appends the plan record in a
// single transaction. A stale expectedVersion rolls both back.
func (r *PlanRepo) Commit(ctx context.Context, snap *election.Snapshot, expectedVersion int64, rec *model.PlanRecord) (*model.PlanRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := replaceSnapshot(ctx, tx, rec.ElectionID, snap, expectedVersion); err != nil {
		return nil, err
	}

	out := *rec
	err = tx.QueryRowContext(ctx,
		`INSERT INTO plan_records (election_id, draft_id, kind, subject_id, version, parties, committed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, committed_at`,
		rec.ElectionID, rec.DraftID, rec.Kind, rec.SubjectID, snap.Version, []byte(rec.Parties), rec.CommittedBy,
	).Scan(&out.ID, &out.CommittedAt)
	if err != nil {
		return nil, fmt.Errorf("insert plan record: %w", err)
	}
	out.Version = snap.Version

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit plan: %w", err)
	}
	return &out, nil
}

// ListByElection returns committed plans in version order.
func (r *PlanRepo) ListByElection(ctx context.Context, electionID string) ([]model.PlanRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, election_id, draft_id, kind, subject_id, version, parties, committed_by, committed_at
		 FROM plan_records WHERE election_id = $1 ORDER BY version`, electionID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var records []model.PlanRecord
	for rows.Next() {
		var p model.PlanRecord
		var parties []byte
		if err := rows.Scan(&p.ID, &p.ElectionID, &p.DraftID, &p.Kind, &p.SubjectID, &p.Version, &parties, &p.CommittedBy, &p.CommittedAt); err != nil {
			return nil, fmt.Errorf("scan plan record: %w", err)
		}
		p.Parties = parties
		records = append(records, p)
	}
	return records, rows.Err()
}
