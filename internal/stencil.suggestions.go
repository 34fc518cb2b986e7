package internal

import (
	"sort"
	"strings"
)

// SuggestTagNames returns up to limit names from candidates that are close to
// target by edit distance, closest first. Ties keep candidate order.
func SuggestTagNames(target string, candidates []string, limit int) []string {
	if target == StringValueEmpty || len(candidates) == 0 || limit <= 0 {
		return nil
	}

	// Maximum distance to consider a candidate as similar
	maxDistance := len(target) / 2
	if maxDistance < 2 {
		maxDistance = 2
	}

	type scored struct {
		name     string
		distance int
	}

	lowered := strings.ToLower(target)
	similar := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate == target {
			continue
		}
		candLower := strings.ToLower(candidate)
		dist := levenshteinDistance(lowered, candLower)
		if strings.HasPrefix(candLower, lowered) || strings.HasPrefix(lowered, candLower) {
			// prefix typos ("fore" for "foreach") count as one edit
			dist = min(dist, 1)
		}
		if dist <= maxDistance {
			similar = append(similar, scored{name: candidate, distance: dist})
		}
	}

	sort.SliceStable(similar, func(i, j int) bool {
		return similar[i].distance < similar[j].distance
	})

	if len(similar) > limit {
		similar = similar[:limit]
	}
	result := make([]string, len(similar))
	for i, s := range similar {
		result[i] = s.name
	}
	return result
}

// levenshteinDistance is the minimum number of single-byte insertions,
// deletions or substitutions turning a into b.
func levenshteinDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
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
