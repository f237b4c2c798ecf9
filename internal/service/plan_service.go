package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/internal/campaign"
	"github.com/freeeve/parliament/internal/logger"
	"github.com/freeeve/parliament/internal/model"
	"github.com/freeeve/parliament/internal/repository"
	"github.com/freeeve/parliament/pkg/election"
)

var (
	ErrDraftNotFound    = errors.New("draft not found or expired")
	ErrStaleDraft       = errors.New("draft was computed against an older snapshot")
	ErrCommitInProgress = errors.New("another plan is being committed for this election")
	ErrClaimConflict    = errors.New("plan would leave a seat claimed by more than one party")
	ErrSeatNotFound     = errors.New("seat not found")
)

// commitLockTTL bounds how long a crashed commit can block the election.
const commitLockTTL = 15 * time.Second

// PlanService drafts and commits seat plans.
//
// Drafting never changes stored state: the planners read a snapshot and
// the resulting parties are parked in Redis. Committing swaps them into the
// snapshot in one step, guarded by the snapshot version.
type PlanService struct {
	elections   repository.ElectionRepository
	plans       repository.PlanRepository
	cache       repository.PlanCache
	broadcaster Broadcaster
	opts        campaign.Options
	draftTTL    time.Duration
}

// NewPlanService creates a PlanService.
func NewPlanService(elections repository.ElectionRepository, plans repository.PlanRepository, cache repository.PlanCache, broadcaster Broadcaster, opts campaign.Options, draftTTL time.Duration) *PlanService {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &PlanService{
		elections:   elections,
		plans:       plans,
		cache:       cache,
		broadcaster: broadcaster,
		opts:        opts,
		draftTTL:    draftTTL,
	}
}

// ProposePartyPlan runs the contest planner for one party and stores the
// result as a draft.
func (s *PlanService) ProposePartyPlan(ctx context.Context, actor Actor, electionID, partyID string) (*model.PlanDraft, error) {
	if !actor.CanActFor(partyID) {
		return nil, ErrForbidden
	}
	snap, err := s.snapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	p := snap.Party(partyID)
	if p == nil {
		return nil, ErrPartyNotFound
	}

	draft := s.newDraft(actor, snap, electionID, model.PlanParty, partyID)
	draft.Evaluations = campaign.EvaluateSeats(p, snap, s.opts)
	draft.Parties = []*election.Party{campaign.PlanContests(p, snap, s.opts)}
	return s.saveDraft(ctx, draft)
}

// ProposeAlliancePlan runs the seat negotiator for an alliance.
func (s *PlanService) ProposeAlliancePlan(ctx context.Context, actor Actor, electionID, allianceID string) (*model.PlanDraft, error) {
	snap, err := s.snapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	a := snap.Alliance(allianceID)
	if a == nil {
		return nil, ErrAllianceNotFound
	}
	if !actor.CanActForAlliance(a) {
		return nil, ErrForbidden
	}

	draft := s.newDraft(actor, snap, electionID, model.PlanAlliance, allianceID)
	draft.Parties, draft.Awards = campaign.Negotiate(a, snap, s.opts)
	return s.saveDraft(ctx, draft)
}

// ProposeCandidates fills the party's contested seats with candidates.
func (s *PlanService) ProposeCandidates(ctx context.Context, actor Actor, electionID, partyID string) (*model.PlanDraft, error) {
	if !actor.CanActFor(partyID) {
		return nil, ErrForbidden
	}
	snap, err := s.snapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	p := snap.Party(partyID)
	if p == nil {
		return nil, ErrPartyNotFound
	}

	draft := s.newDraft(actor, snap, electionID, model.PlanCandidates, partyID)
	selected := campaign.AutoSelect(p, snap, s.opts)
	draft.Parties = []*election.Party{selected}
	for _, code := range selected.ContestedSeats.Codes() {
		if selected.ContestedSeats[code].CandidateID == "" {
			draft.Unfilled = append(draft.Unfilled, code)
		}
	}
	return s.saveDraft(ctx, draft)
}

// GetDraft returns a stored draft the actor may see.
func (s *PlanService) GetDraft(ctx context.Context, actor Actor, electionID, draftID string) (*model.PlanDraft, error) {
	d, err := s.cache.GetDraft(ctx, electionID, draftID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDraftNotFound
	}
	if !canSeeDraft(actor, d) {
		return nil, ErrForbidden
	}
	return d, nil
}

// CommitDraft applies a draft to the election snapshot.
//
// The draft's parties replace the stored ones wholesale and the snapshot
// version is bumped. A draft computed against an older version is rejected
// with ErrStaleDraft and must be re-planned.
func (s *PlanService) CommitDraft(ctx context.Context, actor Actor, electionID, draftID string) (*model.PlanRecord, error) {
	draft, err := s.GetDraft(ctx, actor, electionID, draftID)
	if err != nil {
		return nil, err
	}

	owner := uuid.New().String()
	ok, err := s.cache.AcquireCommitLock(ctx, electionID, owner, commitLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCommitInProgress
	}
	defer func() {
		if err := s.cache.ReleaseCommitLock(context.WithoutCancel(ctx), electionID, owner); err != nil {
			log.Warn().Err(err).Str("electionId", electionID).Msg("Failed to release commit lock")
		}
	}()

	// Read past the cache: the version check must see committed state.
	current, err := s.elections.LoadSnapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrElectionNotFound
	}
	if current.Version != draft.BaseVersion {
		return nil, ErrStaleDraft
	}

	next := current.WithParties(draft.Parties)
	if conflicts := next.ClaimConflicts(); len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrClaimConflict, strings.Join(conflicts, ", "))
	}

	parties, err := json.Marshal(draft.Parties)
	if err != nil {
		return nil, fmt.Errorf("marshal parties: %w", err)
	}
	rec, err := s.plans.Commit(ctx, next, current.Version, &model.PlanRecord{
		ElectionID:  electionID,
		DraftID:     draft.ID,
		Kind:        draft.Kind,
		SubjectID:   draft.SubjectID,
		Parties:     parties,
		CommittedBy: actor.UserID,
	})
	if errors.Is(err, repository.ErrVersionConflict) {
		return nil, ErrStaleDraft
	}
	if err != nil {
		return nil, err
	}

	storeCached(ctx, s.cache, electionID, next)
	if err := s.cache.DeleteDraft(ctx, electionID, draftID); err != nil {
		log.Warn().Err(err).Str("draftId", draftID).Msg("Failed to delete committed draft")
	}

	l := logger.ForElection(ctx, electionID)
	l.Info().
		Str("draftId", draft.ID).
		Str("kind", draft.Kind).
		Str("subjectId", draft.SubjectID).
		Int64("version", rec.Version).
		Msg("Plan committed")
	s.broadcaster.BroadcastElectionEvent(electionID, EventPlanCommitted, map[string]any{
		"draft_id":   draft.ID,
		"kind":       draft.Kind,
		"subject_id": draft.SubjectID,
		"party_ids":  draft.PartyIDs(),
		"version":    rec.Version,
	})
	return rec, nil
}

// History lists the committed plans of an election.
func (s *PlanService) History(ctx context.Context, electionID string) ([]model.PlanRecord, error) {
	e, err := s.elections.FindByID(ctx, electionID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrElectionNotFound
	}
	return s.plans.ListByElection(ctx, electionID)
}

// MemberInfluence is one party member's strength in a seat.
type MemberInfluence struct {
	CharacterID   string  `json:"character_id"`
	Name          string  `json:"name"`
	AffiliationID string  `json:"affiliation_id,omitempty"`
	Influence     float64 `json:"influence"`
	Score         float64 `json:"score"`
	Standing      string  `json:"standing"`
}

// SeatInfluence is the scorer's view of a party in one seat.
type SeatInfluence struct {
	SeatCode  string            `json:"seat_code"`
	PartyID   string            `json:"party_id"`
	Threshold float64           `json:"threshold"`
	Members   []MemberInfluence `json:"members"`
}

// SeatInfluence scores every living member of the party in the seat,
// strongest first. Only the game master and the party's own players may look.
func (s *PlanService) SeatInfluence(ctx context.Context, actor Actor, electionID, partyID, seatCode string) (*SeatInfluence, error) {
	if !actor.CanActFor(partyID) {
		return nil, ErrForbidden
	}
	snap, err := s.snapshot(ctx, electionID)
	if err != nil {
		return nil, err
	}
	p := snap.Party(partyID)
	if p == nil {
		return nil, ErrPartyNotFound
	}
	seat := snap.Seat(seatCode)
	if seat == nil {
		return nil, ErrSeatNotFound
	}

	sc := election.PartyContext(p, snap.ResolvedStrongholds(), s.opts.Weights)
	demo := snap.DemographicsOf(seatCode)
	entry := p.ContestedSeats[seatCode]
	out := &SeatInfluence{
		SeatCode:  seatCode,
		PartyID:   partyID,
		Threshold: sc.Threshold(seatCode, nil),
	}
	for _, c := range snap.MembersOf(p) {
		aff := snap.AffiliationOf(p, c.ID)
		mi := MemberInfluence{
			CharacterID: c.ID,
			Name:        c.Name,
			Influence:   c.Influence,
			Score:       election.EffectiveInfluence(c, aff, seat, demo, sc, entry.CandidateID, entry.AllocatedAffiliationID),
			Standing:    sc.Strongholds.Standing(seatCode, aff, sc.Friendly).String(),
		}
		if aff != nil {
			mi.AffiliationID = aff.ID
		}
		out.Members = append(out.Members, mi)
	}
	sortMembers(out.Members)
	return out, nil
}

func sortMembers(ms []MemberInfluence) {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		return ms[i].CharacterID < ms[j].CharacterID
	})
}

func (s *PlanService) snapshot(ctx context.Context, electionID string) (*election.Snapshot, error) {
	return loadSnapshot(ctx, s.elections, s.cache, electionID)
}

func (s *PlanService) newDraft(actor Actor, snap *election.Snapshot, electionID, kind, subjectID string) *model.PlanDraft {
	return &model.PlanDraft{
		ID:          uuid.New().String(),
		ElectionID:  electionID,
		Kind:        kind,
		SubjectID:   subjectID,
		BaseVersion: snap.Version,
		CreatedBy:   actor.UserID,
		CreatedAt:   time.Now().UTC(),
	}
}

func (s *PlanService) saveDraft(ctx context.Context, d *model.PlanDraft) (*model.PlanDraft, error) {
	if err := s.cache.SaveDraft(ctx, d, s.draftTTL); err != nil {
		return nil, err
	}
	l := logger.ForElection(ctx, d.ElectionID)
	l.Debug().
		Str("draftId", d.ID).
		Str("kind", d.Kind).
		Str("subjectId", d.SubjectID).
		Int64("baseVersion", d.BaseVersion).
		Msg("Plan drafted")
	s.broadcaster.BroadcastElectionEvent(d.ElectionID, EventPlanDrafted, map[string]any{
		"draft_id":   d.ID,
		"kind":       d.Kind,
		"subject_id": d.SubjectID,
	})
	return d, nil
}

// canSeeDraft lets a party-bound actor see drafts that touch their party.
func canSeeDraft(actor Actor, d *model.PlanDraft) bool {
	if actor.IsGameMaster() || d.SubjectID == actor.PartyID {
		return true
	}
	for _, id := range d.PartyIDs() {
		if id == actor.PartyID {
			return true
		}
	}
	return false
}
