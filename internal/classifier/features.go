// Package classifier implements the learned confidence model: a fixed
// feature extraction shared by training and inference, and a logistic
// regression producing a calibrated match probability.
package classifier

import (
	"math"

	"github.com/plumsage/ledgerlink/internal/model"
	"github.com/plumsage/ledgerlink/internal/normalize"
	"github.com/plumsage/ledgerlink/internal/score"
)

// FeatureCount is the width of the extracted feature vector. The order
// below is a wire contract: a model trained on one ordering is garbage
// under another.
const FeatureCount = 6

// Feature indexes.
const (
	featNameSimilarity = iota
	featPhoneMatch
	featEmailDomainMatch
	featAmountRelDiff
	featTimestampGapSecs
	featServiceSimilarity
)

// maxGapSeconds caps the timestamp-gap feature; unparsable timestamps
// take the cap so they read as maximally distant.
const maxGapSeconds = 1e9

// ExtractFeatures computes the fixed-order feature vector for a pair.
// Deterministic and identical at train and inference time.
func ExtractFeatures(pair model.CandidatePair) []float64 {
	rn, pn := pair.RewardNorm, pair.POSNorm

	features := make([]float64, FeatureCount)
	features[featNameSimilarity] = nameSimilarity(rn, pn)
	features[featPhoneMatch] = phoneMatch(rn.PhoneDigits, pn.PhoneDigits)
	features[featEmailDomainMatch] = emailDomainMatch(rn, pn)
	features[featAmountRelDiff] = amountRelDiff(rn, pn)
	features[featTimestampGapSecs] = timestampGapSeconds(rn, pn)
	features[featServiceSimilarity] = score.ServiceSimilarity(rn.Service, pn.Service)
	return features
}

// FeaturesForExample normalizes an example's records and extracts features.
func FeaturesForExample(ex model.TrainingExample) []float64 {
	pair := model.CandidatePair{
		Reward:     ex.Reward,
		POS:        ex.POS,
		RewardNorm: normalize.Record(ex.Reward),
		POSNorm:    normalize.Record(ex.POS),
	}
	return ExtractFeatures(pair)
}

func nameSimilarity(rn, pn model.NormalizedFields) float64 {
	if len(rn.NameTokens) == 0 || len(pn.NameTokens) == 0 {
		return 0
	}
	sim := score.TokenSetRatio(rn.NameTokens, pn.NameTokens)
	if sorted := score.TokenSortRatio(rn.NameTokens, pn.NameTokens); sorted > sim {
		sim = sorted
	}
	return sim
}

func phoneMatch(a, b string) float64 {
	if a == "" || b == "" || a != b {
		return 0
	}
	return 1
}

func emailDomainMatch(rn, pn model.NormalizedFields) float64 {
	if rn.EmailDomain == "" || rn.EmailDomain != pn.EmailDomain {
		return 0
	}
	return 1
}

func amountRelDiff(rn, pn model.NormalizedFields) float64 {
	if !rn.AmountValid || !pn.AmountValid {
		return 1
	}
	r := math.Abs(rn.Amount)
	p := math.Abs(pn.Amount)
	return math.Abs(r-p) / math.Max(math.Max(r, p), 1)
}

func timestampGapSeconds(rn, pn model.NormalizedFields) float64 {
	if !rn.TimestampValid || !pn.TimestampValid {
		return maxGapSeconds
	}
	gap := rn.Timestamp.Sub(pn.Timestamp).Seconds()
	if gap < 0 {
		gap = -gap
	}
	return math.Min(gap, maxGapSeconds)
}
