//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/internal/repository"
	"github.com/freeeve/parliament/internal/testutil"
	"github.com/freeeve/parliament/pkg/election"
)

var testDB *sql.DB

func setup(t *testing.T) {
	t.Helper()
	if testDB == nil {
		testDB = testutil.SetupDB(t)
	}
	testutil.CleanupDB(t, testDB)
}

func createTestUser(t *testing.T, suffix string) *model.User {
	t.Helper()
	u, err := NewUserRepo(testDB).Upsert(context.Background(), "dev", "dev-"+suffix, "User "+suffix)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return u
}

func sampleSnapshot() *election.Snapshot {
	snap := election.NewSnapshot()
	snap.Seats["A"] = &election.Seat{Code: "A", Name: "Alpha"}
	snap.Characters["c1"] = &election.Character{ID: "c1", Influence: 40, IsAlive: true, PartyID: "p1"}
	snap.Parties["p1"] = &election.Party{ID: "p1", Name: "One", MemberIDs: []string{"c1"}, ContestedSeats: election.ContestedSeats{}}
	return snap
}

// --- UserRepo ---

func TestUserUpsert(t *testing.T) {
	setup(t)
	repo := NewUserRepo(testDB)
	ctx := context.Background()

	u1, err := repo.Upsert(ctx, "dev", "dev-alice", "Alice")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	u2, err := repo.Upsert(ctx, "dev", "dev-alice", "Alicia")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if u1.ID != u2.ID {
		t.Fatalf("upsert should keep id: %s vs %s", u1.ID, u2.ID)
	}
	if u2.DisplayName != "Alicia" {
		t.Fatalf("expected updated name, got %s", u2.DisplayName)
	}

	found, err := repo.FindByID(ctx, u1.ID)
	if err != nil || found == nil {
		t.Fatalf("find by id: %v %v", found, err)
	}
}

// --- ElectionRepo ---

func TestElectionCreateAndLoad(t *testing.T) {
	setup(t)
	u := createTestUser(t, "gm")
	repo := NewElectionRepo(testDB)
	ctx := context.Background()

	e, err := repo.Create(ctx, "General", u.ID, sampleSnapshot())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.SnapshotVersion != 0 {
		t.Fatalf("expected version 0, got %d", e.SnapshotVersion)
	}

	snap, err := repo.LoadSnapshot(ctx, e.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if snap.Party("p1") == nil || snap.Seat("A") == nil {
		t.Fatalf("snapshot did not round-trip: %+v", snap)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected 1 election, got %d (%v)", len(list), err)
	}
}

func TestElectionNotFound(t *testing.T) {
	setup(t)
	repo := NewElectionRepo(testDB)
	ctx := context.Background()

	const missing = "00000000-0000-0000-0000-000000000000"
	e, err := repo.FindByID(ctx, missing)
	if err != nil || e != nil {
		t.Fatalf("expected nil election, got %v %v", e, err)
	}
	snap, err := repo.LoadSnapshot(ctx, missing)
	if err != nil || snap != nil {
		t.Fatalf("expected nil snapshot, got %v %v", snap, err)
	}
}

func TestReplaceSnapshotVersionCheck(t *testing.T) {
	setup(t)
	u := createTestUser(t, "gm")
	repo := NewElectionRepo(testDB)
	ctx := context.Background()

	e, _ := repo.Create(ctx, "General", u.ID, sampleSnapshot())
	next := sampleSnapshot()
	next.Version = 1

	if err := repo.ReplaceSnapshot(ctx, e.ID, next, 0); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := repo.ReplaceSnapshot(ctx, e.ID, next, 0); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, _ := repo.FindByID(ctx, e.ID)
	if got.SnapshotVersion != 1 {
		t.Fatalf("expected version 1, got %d", got.SnapshotVersion)
	}
}

// --- PlanRepo ---

func TestPlanCommitAndList(t *testing.T) {
	setup(t)
	u := createTestUser(t, "gm")
	elections := NewElectionRepo(testDB)
	plans := NewPlanRepo(testDB)
	ctx := context.Background()

	e, _ := elections.Create(ctx, "General", u.ID, sampleSnapshot())
	snap, _ := elections.LoadSnapshot(ctx, e.ID)
	p := snap.Party("p1").Clone()
	p.ContestedSeats["A"] = election.ContestEntry{CandidateID: "c1"}
	next := snap.WithParties([]*election.Party{p})

	parties, _ := json.Marshal([]*election.Party{p})
	rec, err := plans.Commit(ctx, next, snap.Version, &model.PlanRecord{
		ElectionID:  e.ID,
		DraftID:     "draft-1",
		Kind:        model.PlanCandidates,
		SubjectID:   "p1",
		Parties:     parties,
		CommittedBy: u.ID,
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rec.ID == "" || rec.Version != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}

	stored, _ := elections.LoadSnapshot(ctx, e.ID)
	if stored.Party("p1").ContestedSeats["A"].CandidateID != "c1" {
		t.Fatal("commit did not store the new snapshot")
	}

	// Same base version again must fail and leave no second record.
	if _, err := plans.Commit(ctx, next, snap.Version, &model.PlanRecord{
		ElectionID: e.ID, DraftID: "draft-2", Kind: model.PlanParty, SubjectID: "p1", Parties: parties, CommittedBy: u.ID,
	}); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	records, err := plans.ListByElection(ctx, e.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].DraftID != "draft-1" {
		t.Fatalf("expected one record for draft-1, got %+v", records)
	}
}
