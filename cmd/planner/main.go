package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/parliament/internal/campaign"
	"github.com/freeeve/parliament/internal/config"
	"github.com/freeeve/parliament/pkg/election"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		snapshotPath string
		mode         string
		id           string
		tuningPath   string
		workers      int
		verbose      bool
	)

	flag.StringVar(&snapshotPath, "snapshot", "", "Snapshot JSON file")
	flag.StringVar(&mode, "mode", "party", "Plan to run: party, alliance or candidates")
	flag.StringVar(&id, "id", "", "Party or alliance id")
	flag.StringVar(&tuningPath, "tuning", "", "Optional YAML tuning file")
	flag.IntVar(&workers, "workers", 1, "Per-seat scoring concurrency")
	flag.BoolVar(&verbose, "v", false, "Debug logging")

	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if snapshotPath == "" || id == "" {
		flag.Usage()
		os.Exit(2)
	}

	snap, err := readSnapshot(snapshotPath)
	if err != nil {
		log.Fatal().Err(err).Str("file", snapshotPath).Msg("Failed to read snapshot")
	}
	weights, err := config.LoadWeights(tuningPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tuning")
	}

	opts := campaign.Options{Weights: weights, Workers: workers}
	result, err := plan(snap, mode, id, opts)
	if err != nil {
		log.Fatal().Err(err).Str("mode", mode).Str("id", id).Msg("Planning failed")
	}
	if err := writeResult(os.Stdout, result); err != nil {
		log.Fatal().Err(err).Msg("Failed to write result")
	}
}

// partyResult is the output of -mode party.
type partyResult struct {
	Party       *election.Party           `json:"party"`
	Evaluations []campaign.SeatEvaluation `json:"evaluations"`
}

// allianceResult is the output of -mode alliance.
type allianceResult struct {
	Parties []*election.Party    `json:"parties"`
	Awards  []campaign.SeatAward `json:"awards"`
}

// candidatesResult is the output of -mode candidates.
type candidatesResult struct {
	Party    *election.Party `json:"party"`
	Unfilled []string        `json:"unfilled"`
	Invalid  []string        `json:"invalid"`
}

func readSnapshot(path string) (*election.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	snap := election.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return snap, nil
}

func plan(snap *election.Snapshot, mode, id string, opts campaign.Options) (any, error) {
	switch mode {
	case "party":
		p := snap.Party(id)
		if p == nil {
			return nil, fmt.Errorf("unknown party %q", id)
		}
		return partyResult{
			Party:       campaign.PlanContests(p, snap, opts),
			Evaluations: campaign.EvaluateSeats(p, snap, opts),
		}, nil
	case "alliance":
		a := snap.Alliance(id)
		if a == nil {
			return nil, fmt.Errorf("unknown alliance %q", id)
		}
		parties, awards := campaign.Negotiate(a, snap, opts)
		return allianceResult{Parties: parties, Awards: awards}, nil
	case "candidates":
		p := snap.Party(id)
		if p == nil {
			return nil, fmt.Errorf("unknown party %q", id)
		}
		selected := campaign.AutoSelect(p, snap, opts)
		res := candidatesResult{Party: selected, Unfilled: []string{}}
		for _, code := range selected.ContestedSeats.Codes() {
			if selected.ContestedSeats[code].CandidateID == "" {
				res.Unfilled = append(res.Unfilled, code)
			}
		}
		res.Invalid = campaign.InvalidCandidates(selected, snap)
		if res.Invalid == nil {
			res.Invalid = []string{}
		}
		return res, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func writeResult(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
