package suggest

import (
	"sort"
	"strings"

	"github.com/phrazzld/curriculum-api/internal/domain"
	"github.com/phrazzld/curriculum-api/internal/domain/taxonomy"
)

// buildCorpus lowercases and joins the non-blank texts, followed by extra
// strings. Parts are separated by newlines so a keyword cannot match across a
// boundary. The second result is false when every text was blank.
func buildCorpus(texts []string, extra []string) (string, bool) {
	parts := make([]string, 0, len(texts)+len(extra))
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			continue
		}
		parts = append(parts, strings.ToLower(t))
	}
	if len(parts) == 0 {
		return "", false
	}
	for _, e := range extra {
		if strings.TrimSpace(e) == "" {
			continue
		}
		parts = append(parts, strings.ToLower(e))
	}
	return strings.Join(parts, "\n"), true
}

// countHits counts every keyword occurrence in corpus, repeats included.
func countHits(corpus string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		hits += strings.Count(corpus, kw)
	}
	return hits
}

// scoreCatalog scores every entry of c against corpus and returns those with
// a score of at least minScore, highest first. Equal scores keep catalog order.
func scoreCatalog(c *taxonomy.Catalog, corpus string, weight, minScore int) []Candidate {
	out := make([]Candidate, 0)
	for _, e := range c.Entries() {
		score := weight * countHits(corpus, e.Keywords)
		if score <= 0 || score < minScore {
			continue
		}
		out = append(out, Candidate{
			Code:  e.Code,
			Name:  e.Name,
			Score: score,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// proficiencyLevel derives the level assigned to every competency emitted by
// one call. It starts at Introduce and only escalates.
func proficiencyLevel(signals Signals, p *Params) domain.ProficiencyLevel {
	if anyBloom(signals.BloomLevels, p.MasterBloomLevels) ||
		anyCategory(signals.AssessmentCategories, p.MasterCategoryHints) {
		return domain.LevelMaster
	}
	if anyBloom(signals.BloomLevels, p.ReinforceBloomLevels) ||
		anyCategory(signals.AssessmentCategories, p.ReinforceCategoryHints) {
		return domain.LevelReinforce
	}
	return domain.LevelIntroduce
}

func anyBloom(levels, targets []domain.BloomLevel) bool {
	for _, l := range levels {
		l = domain.BloomLevel(strings.ToLower(strings.TrimSpace(string(l))))
		for _, t := range targets {
			if l == t {
				return true
			}
		}
	}
	return false
}

// anyCategory matches hints as substrings so that free-form categories such
// as "capstone project" or "lab_report" are recognised.
func anyCategory(categories, hints []string) bool {
	for _, c := range categories {
		c = strings.ToLower(c)
		for _, h := range hints {
			if strings.Contains(c, h) {
				return true
			}
		}
	}
	return false
}

// Top returns at most n leading candidates. A non-positive n returns all.
func Top(candidates []Candidate, n int) []Candidate {
	if n <= 0 || n >= len(candidates) {
		return candidates
	}
	return candidates[:n]
}
