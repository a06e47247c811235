package rerank

import (
	"context"
	"fmt"
	"slices"

	"github.com/poiesic/ragcore/core"
	"github.com/poiesic/ragcore/retrieval"
)

// fullMatchBoost is added when a piece contains every query term.
const fullMatchBoost = 0.25

// LexicalReranker scores pieces by the share of query terms they contain.
// It is used when no rerank service is configured.
type LexicalReranker struct {
	topN int
}

var _ retrieval.Reranker = (*LexicalReranker)(nil)

// NewLexicalReranker creates a reranker that keeps the topN best pieces.
func NewLexicalReranker(topN int) (*LexicalReranker, error) {
	if topN <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopN, topN)
	}
	return &LexicalReranker{topN: topN}, nil
}

// Rerank returns at most topN copies of pieces ordered by term overlap.
// Scores lie in [0, 1]. Ties keep input order.
func (r *LexicalReranker) Rerank(ctx context.Context, pieces []*core.Piece, query string) ([]*core.Piece, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryTerms := termSet(query)
	rescored := make([]*core.Piece, len(pieces))
	for i, p := range pieces {
		rescored[i] = p.WithScore(overlapScore(queryTerms, p.Content))
	}

	slices.SortStableFunc(rescored, func(a, b *core.Piece) int {
		switch {
		case *a.Score > *b.Score:
			return -1
		case *a.Score < *b.Score:
			return 1
		}
		return 0
	})

	if len(rescored) > r.topN {
		rescored = rescored[:r.topN]
	}
	return rescored, nil
}

// overlapScore is the fraction of query terms found in content, boosted
// when all of them are present.
func overlapScore(queryTerms map[string]bool, content string) float32 {
	if len(queryTerms) == 0 {
		return 0
	}

	docTerms := termSet(content)
	matched := 0
	for term := range queryTerms {
		if docTerms[term] {
			matched++
		}
	}

	score := float32(matched) / float32(len(queryTerms)) * (1 - fullMatchBoost)
	if matched == len(queryTerms) {
		score += fullMatchBoost
	}
	return score
}
