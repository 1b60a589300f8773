package aggregates

import (
	"sort"
	"strings"

	"mindcanvas/domain/core/entities"
)

// MatchType names the field that contributed most to a search hit
type MatchType string

const (
	MatchTitle       MatchType = "title"
	MatchDescription MatchType = "description"
	MatchMedia       MatchType = "media"
)

// SearchResult is one scored hit
type SearchResult struct {
	Node      *entities.Node
	MatchType MatchType
	MatchText string
	Score     float64
}

// Search scores every node against the whitespace-separated terms of query
// and returns the hits ordered by descending score. Ties keep document order.
func (m *MindMap) Search(query string) []SearchResult {
	return SearchNodes(m.Nodes(), query)
}

// SearchNodes is the scoring used by MindMap.Search
func SearchNodes(nodes []*entities.Node, query string) []SearchResult {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var results []SearchResult
	for _, n := range nodes {
		title := strings.ToLower(n.Title())
		var titleScore float64
		for _, t := range terms {
			if !strings.Contains(title, t) {
				continue
			}
			switch {
			case title == t:
				titleScore += 10
			case strings.HasPrefix(title, t):
				titleScore += 8
			default:
				titleScore += 5
			}
		}

		desc := strings.ToLower(n.Description())
		var descScore float64
		for _, t := range terms {
			if !strings.Contains(desc, t) {
				continue
			}
			if strings.HasPrefix(desc, t) {
				descScore += 4
			} else {
				descScore += 2
			}
		}

		var mediaScore float64
		var mediaMatch string
		for _, md := range n.Media() {
			info := md.Info()
			name := strings.ToLower(info.Name)
			text := strings.ToLower(info.ExtractedText)
			for _, t := range terms {
				if strings.Contains(name, t) {
					mediaScore += 1
					mediaMatch = info.Name
				}
				if text != "" && strings.Contains(text, t) {
					mediaScore += 0.5
					if mediaMatch == "" {
						mediaMatch = info.Name
					}
				}
			}
		}

		total := titleScore + descScore + mediaScore
		if total == 0 {
			continue
		}

		r := SearchResult{Node: n, MatchType: MatchTitle, Score: total}
		if titleScore > 0 {
			r.MatchText = n.Title()
		}
		if descScore > 0 && descScore > titleScore {
			r.MatchType = MatchDescription
			r.MatchText = n.Description()
		}
		if mediaScore > 0 && mediaScore > titleScore && mediaScore > descScore {
			r.MatchType = MatchMedia
			r.MatchText = mediaMatch
		}
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
