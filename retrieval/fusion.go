package retrieval

import (
	"slices"

	"github.com/poiesic/ragcore/core"
)

// splitSummaries separates SUMMARY pieces from content pieces, keeping order.
func splitSummaries(pieces []*core.Piece) (content, summaries []*core.Piece) {
	content = make([]*core.Piece, 0, len(pieces))
	for _, p := range pieces {
		if p.ContentType == core.ContentTypeSummary {
			summaries = append(summaries, p)
			continue
		}
		content = append(content, p)
	}
	return content, summaries
}

// relatedIDs collects the related ids of summaries in order, each once.
// The returned map records the score of the first scored summary naming each id.
func relatedIDs(summaries []*core.Piece) ([]string, map[string]float32) {
	var ids []string
	scores := make(map[string]float32)
	seen := make(map[string]struct{})
	for _, s := range summaries {
		for _, id := range s.RelatedIds {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
			if _, ok := scores[id]; !ok && s.HasScore() {
				scores[id] = s.ScoreValue()
			}
		}
	}
	return ids, scores
}

// appendExpanded appends resolved pieces that are not SUMMARY and not already
// present. Unscored pieces inherit the score of the summary that named them.
// Returns the extended slice and the number of pieces added.
func appendExpanded(content, resolved []*core.Piece, scores map[string]float32) ([]*core.Piece, int) {
	present := make(map[string]struct{}, len(content))
	for _, p := range content {
		present[p.Id] = struct{}{}
	}

	added := 0
	for _, p := range resolved {
		if p == nil || p.ContentType == core.ContentTypeSummary {
			continue
		}
		if _, ok := present[p.Id]; ok {
			continue
		}
		present[p.Id] = struct{}{}
		if score, ok := scores[p.Id]; ok && !p.HasScore() {
			p = p.WithScore(score)
		}
		content = append(content, p)
		added++
	}
	return content, added
}

// dedupPieces drops repeated ids keeping the first occurrence.
// Pieces without an id cannot be compared and are always kept.
func dedupPieces(pieces []*core.Piece) []*core.Piece {
	seen := make(map[string]struct{}, len(pieces))
	out := make([]*core.Piece, 0, len(pieces))
	for _, p := range pieces {
		if p.Id == "" {
			out = append(out, p)
			continue
		}
		if _, ok := seen[p.Id]; ok {
			continue
		}
		seen[p.Id] = struct{}{}
		out = append(out, p)
	}
	return out
}

// prunePieces bounds pieces to totalK. When every piece is scored the
// highest scores are kept in descending order; otherwise the set is
// truncated in its current order.
func prunePieces(pieces []*core.Piece, totalK int) []*core.Piece {
	if totalK <= 0 || len(pieces) <= totalK {
		return pieces
	}

	allScored := !slices.ContainsFunc(pieces, func(p *core.Piece) bool { return !p.HasScore() })
	if !allScored {
		return slices.Clone(pieces[:totalK])
	}

	sorted := slices.Clone(pieces)
	slices.SortStableFunc(sorted, func(a, b *core.Piece) int {
		switch {
		case a.ScoreValue() > b.ScoreValue():
			return -1
		case a.ScoreValue() < b.ScoreValue():
			return 1
		}
		return 0
	})
	return sorted[:totalK]
}
