package approver

import (
	"strings"

	"github.com/garyjia/hr-approvals/internal/domain/entity"
)

// Stage names the matching rule that produced a resolution
type Stage string

const (
	StageNone        Stage = ""
	StageExact       Stage = "exact"
	StageContainment Stage = "containment"
	StageWordSet     Stage = "word_set"
	StageEdgeWords   Stage = "edge_words"
	StageLastWord    Stage = "last_word"
)

// Match is a successful resolution
type Match struct {
	Employee entity.Employee
	Stage    Stage
}

// Resolve finds the employee a manager reference points at.
//
// Candidates must already be ordered most recent first; every stage returns the
// first hit in that order so resolution is deterministic for a given snapshot.
// Stages run from most to least specific: exact name or email, substring
// containment, every reference word matched, first and last words matched,
// and finally the last word alone (given names come last in Vietnamese).
func Resolve(reference string, candidates []entity.Employee) (*Match, bool) {
	normalized, ok := Normalize(reference)
	if !ok {
		return nil, false
	}
	ref := strings.ToLower(strings.TrimSpace(normalized))

	names := make([]string, len(candidates))
	tokens := make([][]string, len(candidates))
	for i := range candidates {
		names[i] = strings.ToLower(strings.TrimSpace(candidates[i].FullName))
		tokens[i] = strings.Fields(names[i])
	}

	hit := func(i int, stage Stage) (*Match, bool) {
		return &Match{Employee: candidates[i], Stage: stage}, true
	}

	for i := range candidates {
		email := strings.ToLower(strings.TrimSpace(candidates[i].Email))
		if (names[i] != "" && names[i] == ref) || (email != "" && email == ref) {
			return hit(i, StageExact)
		}
	}

	for i := range candidates {
		if names[i] != "" && (strings.Contains(ref, names[i]) || strings.Contains(names[i], ref)) {
			return hit(i, StageContainment)
		}
	}

	refTokens := strings.Fields(ref)

	for i := range candidates {
		if len(tokens[i]) > 0 && coversAll(refTokens, tokens[i]) {
			return hit(i, StageWordSet)
		}
	}

	if len(refTokens) >= 2 {
		first, last := refTokens[0], refTokens[len(refTokens)-1]
		for i := range candidates {
			n := len(tokens[i])
			if n == 0 {
				continue
			}
			if overlaps(tokens[i][0], first) && overlaps(tokens[i][n-1], last) {
				return hit(i, StageEdgeWords)
			}
		}
	}

	last := refTokens[len(refTokens)-1]
	partial := -1
	for i := range candidates {
		n := len(tokens[i])
		if n == 0 {
			continue
		}
		candidateLast := tokens[i][n-1]
		if candidateLast == last {
			return hit(i, StageLastWord)
		}
		if partial < 0 && overlaps(candidateLast, last) {
			partial = i
		}
	}
	if partial >= 0 {
		return hit(partial, StageLastWord)
	}

	return nil, false
}

// coversAll reports whether every reference token overlaps some name token
func coversAll(refTokens, nameTokens []string) bool {
	for _, rt := range refTokens {
		found := false
		for _, nt := range nameTokens {
			if overlaps(rt, nt) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// overlaps is substring containment in either direction
func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
