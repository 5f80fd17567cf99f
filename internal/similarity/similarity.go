// Package similarity scores how alike two error signals are when their
// exact-match keys differ. The score is a best-effort noise filter, not
// a classifier.
package similarity

import (
	"errgate/internal/model"
	"errgate/internal/signature"
)

// Fixed component weights. The sum of all components is 1.
const (
	weightCode    = 0.4
	weightMessage = 0.3
	weightStatus  = 0.2
	weightContext = 0.1
)

// DefaultThreshold is the score at or above which two signals are
// folded into one entry.
const DefaultThreshold = 0.8

// Score returns a weighted similarity in [0,1]. It never fails on
// missing context: an absent map on one side scores that component 0,
// absent on both sides scores it 1.
func Score(a, b model.Signal) float64 {
	score := 0.0
	if a.Code == b.Code {
		score += weightCode
	}
	score += weightMessage * messageSimilarity(a.Message, b.Message)
	if a.StatusCode == b.StatusCode {
		score += weightStatus
	}
	score += weightContext * contextSimilarity(a.Context, b.Context)
	return score
}

func messageSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1 - float64(editDistance(ra, rb))/float64(longest)
}

// editDistance is the classic dynamic-programming Levenshtein distance
// with unit-cost insert, delete, and substitute, kept to two rows.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// contextSimilarity is the share of keys present on both sides whose
// values serialize identically. Values nested deeper than the
// signature package's depth bound compare as unequal.
func contextSimilarity(a, b map[string]any) float64 {
	if a == nil && b == nil {
		return 1
	}
	if a == nil || b == nil {
		return 0
	}
	shared := 0
	equal := 0
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			continue
		}
		shared++
		as, aok := signature.CanonicalValue(av)
		bs, bok := signature.CanonicalValue(bv)
		if aok && bok && as == bs {
			equal++
		}
	}
	if shared == 0 {
		return 0
	}
	return float64(equal) / float64(shared)
}
