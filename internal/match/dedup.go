package match

import (
	"sort"

	"github.com/plumsage/ledgerlink/internal/model"
)

// Deduplicate resolves many-to-many accepted matches into a one-to-one
// assignment: accepted and review-worthy results are taken in descending
// confidence order (ties by input order), the winner claims both
// records, and later results touching a claimed record are dropped as
// redundant. Records claimed by no accepted result surface as explicit
// unmatched entries rather than silent omissions.
//
// The returned list is ordered by (reward index, pos index) with
// unmatched entries appended, so output is reproducible across runs.
func Deduplicate(results []model.MatchResult, rewards, pos []model.TransactionRecord) []model.MatchResult {
	out, rewardClaimed, posClaimed := resolve(results, len(rewards), len(pos))

	for ri, rec := range rewards {
		if !rewardClaimed[ri] {
			out = append(out, unmatchedResult(rec, model.TransactionRecord{}, ri, -1))
		}
	}
	for pi, rec := range pos {
		if !posClaimed[pi] {
			out = append(out, unmatchedResult(model.TransactionRecord{}, rec, -1, pi))
		}
	}

	return out
}

// ResolveOneToOne applies the same greedy assignment without
// synthesizing unmatched entries. Used for cancelled jobs, where an
// unevaluated record is not evidence of a missing counterpart.
func ResolveOneToOne(results []model.MatchResult, rewardCount, posCount int) []model.MatchResult {
	out, _, _ := resolve(results, rewardCount, posCount)
	return out
}

func resolve(results []model.MatchResult, rewardCount, posCount int) (out []model.MatchResult, rewardClaimed, posClaimed []bool) {
	accepted := make([]model.MatchResult, 0, len(results))
	rest := make([]model.MatchResult, 0, len(results))
	for _, r := range results {
		if r.Accepted() {
			accepted = append(accepted, r)
		} else {
			rest = append(rest, r)
		}
	}

	// Pre-order by input position so the stable sort breaks confidence
	// ties in input order.
	byInput(accepted)
	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Confidence > accepted[j].Confidence
	})

	rewardClaimed = make([]bool, rewardCount)
	posClaimed = make([]bool, posCount)
	winners := make([]model.MatchResult, 0, len(accepted))
	for _, r := range accepted {
		if rewardClaimed[r.Pair.RewardIndex] || posClaimed[r.Pair.POSIndex] {
			continue
		}
		rewardClaimed[r.Pair.RewardIndex] = true
		posClaimed[r.Pair.POSIndex] = true
		winners = append(winners, r)
	}

	out = append(winners, rest...)
	byInput(out)

	return out, rewardClaimed, posClaimed
}

func byInput(results []model.MatchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Pair.RewardIndex != results[j].Pair.RewardIndex {
			return results[i].Pair.RewardIndex < results[j].Pair.RewardIndex
		}
		return results[i].Pair.POSIndex < results[j].Pair.POSIndex
	})
}

func unmatchedResult(reward, pos model.TransactionRecord, ri, pi int) model.MatchResult {
	return model.MatchResult{
		Pair:    model.CandidatePair{RewardIndex: ri, POSIndex: pi},
		Reward:  reward,
		POS:     pos,
		Verdict: model.VerdictUnmatched,
	}
}
