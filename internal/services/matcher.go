package services

import (
	"strings"

	"github.com/pagesignal/backend/internal/models"
)

// MatchPattern resolves the most specific pattern for a request path among
// one project's candidates:
//
//  1. an exact pattern equal to the path always wins, regardless of any
//     wildcard also matching;
//  2. otherwise the longest wildcard prefix of the path wins;
//  3. ties are broken by lowest pattern ID, so resolution is deterministic
//     even when overlapping patterns exist across forms.
//
// A nil result is a normal outcome meaning no form should be shown. The
// scan is linear; per-project pattern counts are small by design.
func MatchPattern(patterns []models.PathPattern, path string) *models.PathPattern {
	var exact *models.PathPattern
	var wildcard *models.PathPattern

	for i := range patterns {
		candidate := &patterns[i]

		if !candidate.IsWildcard {
			if candidate.Pattern != path {
				continue
			}
			if exact == nil || candidate.ID < exact.ID {
				exact = candidate
			}
			continue
		}

		if !strings.HasPrefix(path, candidate.Pattern) {
			continue
		}
		if wildcard == nil ||
			len(candidate.Pattern) > len(wildcard.Pattern) ||
			(len(candidate.Pattern) == len(wildcard.Pattern) && candidate.ID < wildcard.ID) {
			wildcard = candidate
		}
	}

	if exact != nil {
		return exact
	}
	return wildcard
}
