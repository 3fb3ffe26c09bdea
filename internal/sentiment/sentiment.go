// Package sentiment derives a per-day mood scalar from entry text using fixed
// word lists. The analytic stages only aggregate this signal; they never invent
// their own sentiment.
package sentiment

import "strings"

var positiveWords = []string{
	"good", "great", "happy", "wonderful", "amazing", "love",
	"better", "accomplished", "grateful", "fun", "excited",
	"relieved", "positive", "motivated", "confident", "inspired",
	"recharged", "energetic", "optimistic", "fulfilling", "rewarding",
}

var negativeWords = []string{
	"stress", "pressure", "anxious", "nervous", "worry", "tough",
	"exhausted", "tired", "drained", "difficult", "hard", "sick",
	"worried", "unprepared", "uncertain", "struggling", "frustrated",
}

// Score returns a mood scalar in [-1, 1] for the given text:
// (positive hits - negative hits) / total hits, or 0 when no
// lexicon word appears.
func Score(text string) float64 {
	lower := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}
