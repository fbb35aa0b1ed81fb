package discovery

import "strings"

// RelationTypeAssociated is assigned to pairs whose surrounding text matches
// no category keywords.
const RelationTypeAssociated = "associated"

// category maps surrounding-text keywords onto a relationship type. The
// category with the most keyword hits across a pair's co-occurrences wins;
// ties fall to the earlier category in the list.
type category struct {
	relType  string
	keywords []string
}

var categories = []category{
	{
		relType: "employment",
		keywords: []string{
			"works at", "works for", "employed", "hired", "joined",
			"ceo", "chief", "director", "manager", "founder", "executive",
			"staff", "appointed", "resigned",
		},
	},
	{
		relType: "family",
		keywords: []string{
			"married", "wife", "husband", "spouse", "son", "daughter",
			"father", "mother", "brother", "sister", "parent", "sibling",
			"cousin", "uncle", "aunt",
		},
	},
	{
		relType: "financial",
		keywords: []string{
			"acquired", "invested", "funding", "paid", "payment", "owns",
			"shareholder", "stake", "transaction", "transferred", "loan",
			"donated", "sponsor",
		},
	},
	{
		relType: "located_in",
		keywords: []string{
			"based in", "located in", "headquartered", "lives in",
			"resides", "moved to", "office in", "born in",
		},
	},
	{
		relType: "communication",
		keywords: []string{
			"met with", "spoke", "called", "emailed", "messaged",
			"contacted", "meeting", "discussed", "negotiated", "interviewed",
		},
	},
	{
		relType: "legal",
		keywords: []string{
			"sued", "lawsuit", "charged", "indicted", "arrested",
			"convicted", "trial", "settlement", "investigation",
		},
	},
}

// keywordHits counts per-category keyword occurrences in text. Matching is
// case-insensitive substring search; text is lowercased once by the caller.
func keywordHits(lower string, hits map[string]int) int {
	total := 0
	for _, cat := range categories {
		for _, kw := range cat.keywords {
			n := strings.Count(lower, kw)
			if n > 0 {
				hits[cat.relType] += n
				total += n
			}
		}
	}
	return total
}

// dominantCategory picks the relationship type with the most keyword hits,
// falling back to RelationTypeAssociated when nothing matched. Ties break on
// category order so repeated runs agree.
func dominantCategory(hits map[string]int) (string, int) {
	best, bestHits := RelationTypeAssociated, 0
	for _, cat := range categories {
		if hits[cat.relType] > bestHits {
			best, bestHits = cat.relType, hits[cat.relType]
		}
	}
	return best, bestHits
}
