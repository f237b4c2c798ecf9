// Package campaign holds the deterministic seat-planning heuristics used by
// computer-controlled parties: which seats to contest, how an alliance splits
// seats between its members, and who stands where.
//
// Every function here reads an election.Snapshot and returns new values;
// nothing in the snapshot is modified.
package campaign

import (
	"sort"
	"sync"

	"github.com/freeeve/parliament/pkg/election"
)

// Options tune a planning call.
type Options struct {
	Weights election.Weights
	// Workers bounds per-seat scoring fan-out. Values below 2 score sequentially.
	Workers int
}

// DefaultOptions returns sequential scoring with the default weights.
func DefaultOptions() Options {
	return Options{Weights: election.DefaultWeights(), Workers: 1}
}

// member is a living character with the affiliation they stand for.
type member struct {
	c   *election.Character
	aff *election.Affiliation
}

// pick is a scored member for one seat.
type pick struct {
	member
	score float64
}

func (p pick) valid() bool { return p.c != nil }

// better orders picks by score, then raw influence, then smallest id.
func better(a, b pick) bool {
	if !b.valid() {
		return a.valid()
	}
	if !a.valid() {
		return false
	}
	if a.score != b.score {
		return a.score > b.score
	}
	if a.c.Influence != b.c.Influence {
		return a.c.Influence > b.c.Influence
	}
	return a.c.ID < b.c.ID
}

// eligibleMembers returns the living members who may stand for the party,
// ordered by id. A party with an ethnicity focus only fields members of
// affiliations sharing that ethnicity.
func eligibleMembers(snap *election.Snapshot, p *election.Party) []member {
	var out []member
	for _, c := range snap.MembersOf(p) {
		aff := snap.AffiliationOf(p, c.ID)
		if p.EthnicityFocus != "" && (aff == nil || aff.Ethnicity != p.EthnicityFocus) {
			continue
		}
		out = append(out, member{c: c, aff: aff})
	}
	return out
}

// seatFitsFocus reports whether a party with an ethnicity focus should
// consider the seat at all. Seats without demographics are not excluded.
func seatFitsFocus(p *election.Party, demo *election.Demographics, w election.Weights) bool {
	if p.EthnicityFocus == "" || demo == nil {
		return true
	}
	return demo.Share(p.EthnicityFocus) >= w.MinFocusShare
}

// bestFor scores every member for the seat and returns the strongest.
func bestFor(snap *election.Snapshot, code string, members []member, sc election.ScoreContext, contestingID, allocatedAffID string) pick {
	seat := snap.Seat(code)
	demo := snap.DemographicsOf(code)
	var best pick
	for _, m := range members {
		cand := pick{
			member: m,
			score:  election.EffectiveInfluence(m.c, m.aff, seat, demo, sc, contestingID, allocatedAffID),
		}
		if better(cand, best) {
			best = cand
		}
	}
	return best
}

// affiliationID returns the pick's affiliation id, or "" for a direct member.
func (p pick) affiliationID() string {
	if p.aff == nil {
		return ""
	}
	return p.aff.ID
}

// forEachIndex runs fn for 0..n-1, on up to workers goroutines. Each call
// must only write state owned by its index.
func forEachIndex(n, workers int, fn func(i int)) {
	if workers < 2 || n < 2 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(idx)
		}(i)
	}
	wg.Wait()
}

// outsideClaimant returns the first party outside side that claims the seat.
func outsideClaimant(snap *election.Snapshot, code string, side map[string]bool) string {
	for _, id := range snap.Claimants(code) {
		if !side[id] {
			return id
		}
	}
	return ""
}

func sortedUnique(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	n := 0
	for i, id := range out {
		if i > 0 && id == out[n-1] {
			continue
		}
		out[n] = id
		n++
	}
	return out[:n]
}
