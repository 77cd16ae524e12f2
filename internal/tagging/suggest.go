package tagging

import (
	"github.com/sahilm/fuzzy"
)

// Suggestion is a tag title ranked against a partial query.
type Suggestion struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}

// foldedTitles implements fuzzy.Source over folded tag titles.
type foldedTitles []string

func (f foldedTitles) String(i int) string { return f[i] }
func (f foldedTitles) Len() int            { return len(f) }

// Suggest ranks titles by fuzzy match against query, best first.
// Both sides are folded so "cafe" finds "Café". limit <= 0 means no limit.
func Suggest(query string, titles []string, limit int) []Suggestion {
	q := Fold(query)
	if q == "" {
		return []Suggestion{}
	}

	folded := make(foldedTitles, len(titles))
	for i, t := range titles {
		folded[i] = Fold(t)
	}

	matches := fuzzy.FindFrom(q, folded)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	suggestions := make([]Suggestion, len(matches))
	for i, m := range matches {
		suggestions[i] = Suggestion{Title: titles[m.Index], Score: m.Score}
	}
	return suggestions
}
