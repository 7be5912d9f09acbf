// Package match generates candidate pairs and resolves overlapping
// matches into a consistent one-to-one assignment.
package match

import (
	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/normalize"
)

// Candidates is the output of the two-stage candidate generation pass.
type Candidates struct {
	// Exact holds stage-1 results: identical normalized amount and
	// timestamp, emitted with confidence 1.0. Participating records are
	// removed from stage 2 on both sides.
	Exact []model.MatchResult
	// Pairs is the exhaustive cross product of the remaining records.
	Pairs []model.CandidatePair
}

// Total returns the number of pair evaluations the candidates represent.
func (c Candidates) Total() int {
	return len(c.Exact) + len(c.Pairs)
}

// Generate runs both candidate stages. Normalized projections are
// computed once per record and shared by every pair that references it.
// Empty inputs yield empty candidates, not an error.
//
// Stage 2 is intentionally exhaustive: spa transaction volumes keep
// O(|R|*|P|) affordable, and blocking on amount range or date bucket
// could be added later without changing this contract.
func Generate(rewards, pos []model.TransactionRecord) Candidates {
	rewardNorms := make([]model.NormalizedFields, len(rewards))
	for i, rec := range rewards {
		rewardNorms[i] = normalize.Record(rec)
	}
	posNorms := make([]model.NormalizedFields, len(pos))
	for i, rec := range pos {
		posNorms[i] = normalize.Record(rec)
	}

	var out Candidates
	rewardClaimed := make([]bool, len(rewards))
	posClaimed := make([]bool, len(pos))

	// Stage 1: exact amount + timestamp. Greedy in input order so each
	// record lands in at most one exact match.
	for ri := range rewards {
		for pi := range pos {
			if posClaimed[pi] {
				continue
			}
			if !exactMatch(rewardNorms[ri], posNorms[pi]) {
				continue
			}
			out.Exact = append(out.Exact, exactResult(rewards[ri], pos[pi], rewardNorms[ri], posNorms[pi], ri, pi))
			rewardClaimed[ri] = true
			posClaimed[pi] = true
			break
		}
	}

	// Stage 2: everything left, pairwise.
	for ri := range rewards {
		if rewardClaimed[ri] {
			continue
		}
		for pi := range pos {
			if posClaimed[pi] {
				continue
			}
			out.Pairs = append(out.Pairs, model.CandidatePair{
				Reward:      rewards[ri],
				POS:         pos[pi],
				RewardNorm:  rewardNorms[ri],
				POSNorm:     posNorms[pi],
				RewardIndex: ri,
				POSIndex:    pi,
			})
		}
	}

	return out
}

func exactMatch(rn, pn model.NormalizedFields) bool {
	if !rn.AmountValid || !pn.AmountValid || !rn.TimestampValid || !pn.TimestampValid {
		return false
	}
	return rn.Amount == pn.Amount && rn.Timestamp.Equal(pn.Timestamp)
}

func exactResult(reward, pos model.TransactionRecord, rn, pn model.NormalizedFields, ri, pi int) model.MatchResult {
	return model.MatchResult{
		Pair: model.CandidatePair{
			Reward:      reward,
			POS:         pos,
			RewardNorm:  rn,
			POSNorm:     pn,
			RewardIndex: ri,
			POSIndex:    pi,
		},
		Reward:     reward,
		POS:        pos,
		Verdict:    model.VerdictAutoApproved,
		Confidence: 1.0,
		Scores: model.ComponentScores{
			Name: 1, Phone: 1, Email: 1, Amount: 1, Timing: 1, Service: 1,
		},
		Provenance: model.SourceExact,
	}
}
