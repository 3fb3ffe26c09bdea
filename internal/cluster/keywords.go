package cluster

import (
	"regexp"
	"sort"
	"strings"
)

var wordPattern = regexp.MustCompile(`\b[a-z]{4,}\b`)

// stopWords are excluded from keyword extraction. The modality prefixes
// ("diary", "voice", "scene") are included so composition artifacts never
// surface as theme keywords.
var stopWords = map[string]bool{
	"with": true, "from": true, "about": true, "were": true, "been": true,
	"have": true, "does": true, "will": true, "would": true, "could": true,
	"should": true, "might": true, "this": true, "that": true,
	"diary": true, "voice": true, "scene": true, "today": true, "really": true,
}

// labelRule maps keyword evidence to a human-readable theme label.
// Rules are matched in order; the highest score wins, earlier rules
// breaking ties.
type labelRule struct {
	label string
	terms []string
}

var labelRules = []labelRule{
	{"Work Performance", []string{"work", "project", "deadline", "meeting", "team", "review", "presentation", "client", "office"}},
	{"Social Connection", []string{"friends", "family", "conversation", "together", "people", "colleague", "bonding", "dinner"}},
	{"Rest & Recovery", []string{"weekend", "relax", "rest", "sleep", "tired", "recharged", "break", "vacation"}},
	{"Health & Wellness", []string{"exercise", "health", "sick", "recover", "energy", "running", "wellness", "workout"}},
	{"Personal Growth", []string{"learning", "mentor", "creative", "goal", "reflection", "journey", "growth", "reading"}},
	{"Leisure & Recreation", []string{"beach", "hiking", "music", "concert", "movie", "entertainment", "park", "game"}},
}

// extractKeywords returns up to count salient terms from the given texts,
// most frequent first. Frequency ties resolve by first appearance, keeping
// the output deterministic.
func extractKeywords(texts []string, count int) []string {
	counts := make(map[string]int)
	var order []string

	for _, text := range texts {
		for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if stopWords[w] {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if count > len(order) {
		count = len(order)
	}
	return order[:count]
}

// themeLabel picks the best-matching label for a keyword set, falling back
// to a title built from the top keywords when no rule matches.
func themeLabel(keywords []string) string {
	bestScore := 0
	bestLabel := ""
	for _, rule := range labelRules {
		score := 0
		for _, kw := range keywords {
			for _, term := range rule.terms {
				if kw == term {
					score++
					break
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestLabel = rule.label
		}
	}
	if bestScore > 0 {
		return bestLabel
	}

	n := len(keywords)
	if n == 0 {
		return "General"
	}
	if n > 2 {
		n = 2
	}
	parts := make([]string, n)
	for i, w := range keywords[:n] {
		parts[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(parts, " ")
}
