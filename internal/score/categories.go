package score

import (
	"sort"
	"strings"
)

// treatmentCategories maps service keywords to a treatment category.
// Two descriptions in the same category score 1.0 regardless of wording
// ("Botox 50u" vs "neurotoxin treatment - forehead").
var treatmentCategories = map[string]string{
	"botox":         "neurotoxin",
	"dysport":       "neurotoxin",
	"xeomin":        "neurotoxin",
	"jeuveau":       "neurotoxin",
	"neurotoxin":    "neurotoxin",
	"tox":           "neurotoxin",
	"filler":        "filler",
	"juvederm":      "filler",
	"restylane":     "filler",
	"sculptra":      "filler",
	"radiesse":      "filler",
	"laser":         "laser",
	"ipl":           "laser",
	"bbl":           "laser",
	"resurfacing":   "laser",
	"facial":        "facial",
	"hydrafacial":   "facial",
	"peel":          "facial",
	"dermaplaning":  "facial",
	"microneedling": "microneedling",
	"prp":           "microneedling",
	"massage":       "massage",
	"kybella":       "injectable",
	"coolsculpting": "body",
	"emsculpt":      "body",
}

// TreatmentCategory returns the treatment category for a normalized
// service description, or "" when no keyword matches.
func TreatmentCategory(service string) string {
	for _, word := range strings.Fields(service) {
		if cat, ok := treatmentCategories[word]; ok {
			return cat
		}
	}
	// Keywords can appear embedded ("hydrafacial-deluxe"). Checked in
	// sorted order so lookups stay deterministic.
	for _, keyword := range keywordOrder {
		if strings.Contains(service, keyword) {
			return treatmentCategories[keyword]
		}
	}
	return ""
}

var keywordOrder = func() []string {
	keys := make([]string, 0, len(treatmentCategories))
	for k := range treatmentCategories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}()
