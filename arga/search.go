package arga

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

func taxonLabel(t Taxon) string {
	if t.ScientificName != "" {
		return t.ScientificName
	}
	return t.CanonicalName
}

// RankTaxa keeps the taxa whose scientific name fuzzily matches query, closest first.
// An empty query returns taxa unchanged.
func RankTaxa(taxa []Taxon, query string) []Taxon {
	query = strings.TrimSpace(query)
	if query == "" {
		return taxa
	}

	names := make([]string, len(taxa))
	for i, t := range taxa {
		names[i] = taxonLabel(t)
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Stable(ranks)

	out := make([]Taxon, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, taxa[r.OriginalIndex])
	}
	return out
}
