package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/freeeve/parliament/internal/campaign"
	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/pkg/election"
)

var gm = Actor{UserID: "gm"}

// planWorld has two parties of one direct member each and an alliance of
// both. c2 is the sitting MP for B, which tips B to p2 inside the alliance.
func planWorld() *election.Snapshot {
	snap := election.NewSnapshot()
	for _, code := range []string{"A", "B"} {
		snap.Seats[code] = &election.Seat{Code: code, Name: "Seat " + code}
		snap.Demographics[code] = &election.Demographics{Ethnicity: map[string]float64{"north": 1}, Area: "urban"}
	}
	snap.Characters["c1"] = &election.Character{ID: "c1", Name: "Ada", Influence: 50, IsAlive: true, PartyID: "p1"}
	snap.Characters["c2"] = &election.Character{ID: "c2", Name: "Bo", Influence: 48, IsAlive: true, IsMP: true, CurrentSeatCode: "B", PartyID: "p2"}
	snap.Parties["p1"] = &election.Party{ID: "p1", Name: "One", MemberIDs: []string{"c1"}, ContestedSeats: election.ContestedSeats{}}
	snap.Parties["p2"] = &election.Party{ID: "p2", Name: "Two", MemberIDs: []string{"c2"}, ContestedSeats: election.ContestedSeats{}}
	snap.Alliances["al"] = &election.Alliance{ID: "al", Name: "Front", MemberPartyIDs: []string{"p1", "p2"}}
	return snap
}

type planFixture struct {
	store      *mockStore
	cache      *mockCache
	bc         *recordingBroadcaster
	svc        *PlanService
	electionID string
}

func newPlanFixture(t *testing.T, snap *election.Snapshot) *planFixture {
	t.Helper()
	store := newMockStore()
	cache := newMockCache()
	bc := &recordingBroadcaster{}
	e, err := store.Create(context.Background(), "General", "gm", snap)
	if err != nil {
		t.Fatalf("create election: %v", err)
	}
	return &planFixture{
		store:      store,
		cache:      cache,
		bc:         bc,
		svc:        NewPlanService(store, store, cache, bc, campaign.DefaultOptions(), time.Minute),
		electionID: e.ID,
	}
}

func TestProposePartyPlanStoresDraft(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()

	d, err := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p1")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if d.ID == "" || d.Kind != model.PlanParty || d.SubjectID != "p1" || d.BaseVersion != 0 {
		t.Fatalf("unexpected draft header: %+v", d)
	}
	if got := d.Parties[0].ContestedSeats.Codes(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected A and B contested, got %v", got)
	}
	if len(d.Evaluations) != 2 {
		t.Errorf("expected 2 evaluations, got %d", len(d.Evaluations))
	}

	stored, _ := f.svc.GetDraft(ctx, gm, f.electionID, d.ID)
	if stored == nil || stored.ID != d.ID {
		t.Fatalf("draft not stored: %+v", stored)
	}
	snap, _ := f.store.LoadSnapshot(ctx, f.electionID)
	if len(snap.Party("p1").ContestedSeats) != 0 {
		t.Error("drafting must not change the stored snapshot")
	}
	if got := f.bc.types(); !reflect.DeepEqual(got, []string{EventPlanDrafted}) {
		t.Errorf("expected plan_drafted event, got %v", got)
	}
}

func TestProposeErrors(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()
	p2 := Actor{UserID: "u2", PartyID: "p2"}
	outsider := Actor{UserID: "u3", PartyID: "p3"}

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"other party", func() error { _, err := f.svc.ProposePartyPlan(ctx, p2, f.electionID, "p1"); return err }, ErrForbidden},
		{"unknown election", func() error { _, err := f.svc.ProposePartyPlan(ctx, gm, "nope", "p1"); return err }, ErrElectionNotFound},
		{"unknown party", func() error { _, err := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p9"); return err }, ErrPartyNotFound},
		{"unknown alliance", func() error { _, err := f.svc.ProposeAlliancePlan(ctx, gm, f.electionID, "x"); return err }, ErrAllianceNotFound},
		{"outside alliance", func() error { _, err := f.svc.ProposeAlliancePlan(ctx, outsider, f.electionID, "al"); return err }, ErrForbidden},
		{"candidates for other party", func() error { _, err := f.svc.ProposeCandidates(ctx, p2, f.electionID, "p1"); return err }, ErrForbidden},
		{"missing draft", func() error { _, err := f.svc.GetDraft(ctx, gm, f.electionID, "nope"); return err }, ErrDraftNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCommitDraftAppliesPlan(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()
	p1 := Actor{UserID: "u1", PartyID: "p1"}

	d, err := f.svc.ProposePartyPlan(ctx, p1, f.electionID, "p1")
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	rec, err := f.svc.CommitDraft(ctx, p1, f.electionID, d.ID)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if rec.Version != 1 || rec.DraftID != d.ID || rec.CommittedBy != "u1" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	snap, _ := f.store.LoadSnapshot(ctx, f.electionID)
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
	if got := snap.Party("p1").ContestedSeats.Codes(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Errorf("expected committed A and B, got %v", got)
	}
	cached, _ := f.cache.GetSnapshot(ctx, f.electionID)
	if cached == nil || cached.Version != 1 {
		t.Errorf("expected cache refreshed to version 1, got %+v", cached)
	}
	if _, err := f.svc.GetDraft(ctx, p1, f.electionID, d.ID); !errors.Is(err, ErrDraftNotFound) {
		t.Errorf("expected draft removed after commit, got %v", err)
	}
	if len(f.cache.locks) != 0 {
		t.Error("commit lock not released")
	}

	history, err := f.svc.History(ctx, f.electionID)
	if err != nil || len(history) != 1 {
		t.Fatalf("expected one history record, got %d (%v)", len(history), err)
	}
	if got := f.bc.types(); !reflect.DeepEqual(got, []string{EventPlanDrafted, EventPlanCommitted}) {
		t.Errorf("unexpected events %v", got)
	}
}

func TestCommitStaleDraft(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()

	first, _ := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p1")
	second, _ := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p2")

	if _, err := f.svc.CommitDraft(ctx, gm, f.electionID, first.ID); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if _, err := f.svc.CommitDraft(ctx, gm, f.electionID, second.ID); !errors.Is(err, ErrStaleDraft) {
		t.Fatalf("expected ErrStaleDraft, got %v", err)
	}

	snap, _ := f.store.LoadSnapshot(ctx, f.electionID)
	if len(snap.Party("p2").ContestedSeats) != 0 {
		t.Error("stale draft must not be applied")
	}
}

func TestCommitRejectsClaimConflict(t *testing.T) {
	snap := planWorld()
	snap.Parties["p1"].ContestedSeats["A"] = election.ContestEntry{}
	f := newPlanFixture(t, snap)
	ctx := context.Background()

	p2 := snap.Party("p2").Clone()
	p2.ContestedSeats["A"] = election.ContestEntry{}
	bad := &model.PlanDraft{ID: "bad", ElectionID: f.electionID, Kind: model.PlanParty, SubjectID: "p2", Parties: []*election.Party{p2}}
	f.cache.SaveDraft(ctx, bad, time.Minute)

	if _, err := f.svc.CommitDraft(ctx, gm, f.electionID, "bad"); !errors.Is(err, ErrClaimConflict) {
		t.Fatalf("expected ErrClaimConflict, got %v", err)
	}
	stored, _ := f.store.LoadSnapshot(ctx, f.electionID)
	if stored.Version != 0 {
		t.Errorf("conflicting plan must not be stored, version %d", stored.Version)
	}
}

func TestCommitInProgress(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()

	d, _ := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p1")
	f.cache.locks[f.electionID] = "someone-else"

	if _, err := f.svc.CommitDraft(ctx, gm, f.electionID, d.ID); !errors.Is(err, ErrCommitInProgress) {
		t.Fatalf("expected ErrCommitInProgress, got %v", err)
	}
	if f.cache.locks[f.electionID] != "someone-else" {
		t.Error("foreign lock must be left alone")
	}
}

func TestCommitForbiddenForOtherParty(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()

	d, _ := f.svc.ProposePartyPlan(ctx, gm, f.electionID, "p1")
	if _, err := f.svc.CommitDraft(ctx, Actor{UserID: "u2", PartyID: "p2"}, f.electionID, d.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestProposeAlliancePlan(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()
	p2 := Actor{UserID: "u2", PartyID: "p2"}

	d, err := f.svc.ProposeAlliancePlan(ctx, p2, f.electionID, "al")
	if err != nil {
		t.Fatalf("propose alliance: %v", err)
	}
	if len(d.Parties) != 2 || len(d.Awards) != 2 {
		t.Fatalf("expected 2 parties and 2 awards, got %d and %d", len(d.Parties), len(d.Awards))
	}
	byID := map[string]*election.Party{}
	for _, p := range d.Parties {
		byID[p.ID] = p
	}
	if got := byID["p1"].ContestedSeats.Codes(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Errorf("expected p1 to take A, got %v", got)
	}
	if got := byID["p2"].ContestedSeats.Codes(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("expected p2 to take B, got %v", got)
	}

	// Both members may see and commit the alliance draft.
	p1 := Actor{UserID: "u1", PartyID: "p1"}
	if _, err := f.svc.GetDraft(ctx, p1, f.electionID, d.ID); err != nil {
		t.Fatalf("p1 should see alliance draft: %v", err)
	}
	if _, err := f.svc.CommitDraft(ctx, p1, f.electionID, d.ID); err != nil {
		t.Fatalf("commit alliance: %v", err)
	}
	snap, _ := f.store.LoadSnapshot(ctx, f.electionID)
	if len(snap.ClaimConflicts()) != 0 {
		t.Errorf("alliance plan left conflicts: %v", snap.ClaimConflicts())
	}
}

func TestProposeCandidates(t *testing.T) {
	snap := planWorld()
	snap.Parties["p1"].ContestedSeats["A"] = election.ContestEntry{}
	snap.Parties["p1"].ContestedSeats["B"] = election.ContestEntry{}
	f := newPlanFixture(t, snap)
	ctx := context.Background()

	d, err := f.svc.ProposeCandidates(ctx, gm, f.electionID, "p1")
	if err != nil {
		t.Fatalf("propose candidates: %v", err)
	}
	p := d.Parties[0]
	if p.ContestedSeats["A"].CandidateID != "c1" {
		t.Errorf("expected c1 to stand in A, got %q", p.ContestedSeats["A"].CandidateID)
	}
	if !reflect.DeepEqual(d.Unfilled, []string{"B"}) {
		t.Errorf("expected B unfilled, got %v", d.Unfilled)
	}
}

func TestSeatInfluence(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	ctx := context.Background()

	got, err := f.svc.SeatInfluence(ctx, Actor{UserID: "u2", PartyID: "p2"}, f.electionID, "p2", "B")
	if err != nil {
		t.Fatalf("seat influence: %v", err)
	}
	if len(got.Members) != 1 || got.Members[0].CharacterID != "c2" {
		t.Fatalf("unexpected members: %+v", got.Members)
	}
	if math.Abs(got.Members[0].Score-52.8) > 1e-9 {
		t.Errorf("expected incumbent score 52.8, got %v", got.Members[0].Score)
	}
	if got.Threshold != 10 {
		t.Errorf("expected threshold 10, got %v", got.Threshold)
	}

	if _, err := f.svc.SeatInfluence(ctx, gm, f.electionID, "p2", "Z"); !errors.Is(err, ErrSeatNotFound) {
		t.Errorf("expected ErrSeatNotFound, got %v", err)
	}
	if _, err := f.svc.SeatInfluence(ctx, Actor{UserID: "u1", PartyID: "p1"}, f.electionID, "p2", "B"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for another party's player, got %v", err)
	}
}

func TestHistoryUnknownElection(t *testing.T) {
	f := newPlanFixture(t, planWorld())
	if _, err := f.svc.History(context.Background(), "nope"); !errors.Is(err, ErrElectionNotFound) {
		t.Fatalf("expected ErrElectionNotFound, got %v", err)
	}
}
