// Package retrieve fuses BM25 and vector search rankings into a single
// ranked list via Reciprocal Rank Fusion (RRF).
package retrieve

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/kaipakiran/khoj/internal/store"
)

// rrfConstant is the smoothing constant k in rrf(d) = w / (k + r + 1).
const rrfConstant = 60

// Hit is a single fused search result. Fuse fills FileID, Score and the
// BM25 side's MatchedTerms; it leaves Path and Filename empty, since
// neither input ranking carries them.
type Hit struct {
	FileID       int64
	Score        float64
	Path         string
	Filename     string
	MatchedTerms []string
}

// Fuse merges keyword and vector rankings with the given keyword weight
// (the vector side gets 1-keywordWeight), and truncates to limit. If both
// inputs are empty the output is empty; if only one is non-empty the
// output preserves that list's order.
func Fuse(bm25 []*store.BM25Result, vector []*store.VectorResult, keywordWeight float64, limit int) []Hit {
	type accum struct {
		fileID       int64
		score        float64
		matchedTerms []string
	}
	scores := make(map[int64]*accum)
	order := make([]int64, 0, len(bm25)+len(vector))

	addRank := func(fileID int64, rank int, weight float64, matchedTerms []string) {
		a, ok := scores[fileID]
		if !ok {
			a = &accum{fileID: fileID}
			scores[fileID] = a
			order = append(order, fileID)
		}
		a.score += weight / float64(rrfConstant+rank+1)
		if matchedTerms != nil {
			a.matchedTerms = matchedTerms
		}
	}

	for rank, r := range bm25 {
		addRank(r.FileID, rank, keywordWeight, r.MatchedTerms)
	}
	for rank, r := range vector {
		addRank(r.FileID, rank, 1-keywordWeight, nil)
	}

	hits := make([]Hit, 0, len(order))
	for _, id := range order {
		a := scores[id]
		hits = append(hits, Hit{FileID: a.fileID, Score: a.score, MatchedTerms: a.matchedTerms})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].FileID < hits[j].FileID
	})

	if limit >= 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// SearchBoth runs a BM25 search and a vector search concurrently. The BM25
// side is skipped when bm25 is nil or bm25Limit <= 0; the vector side is
// skipped when vectors or vectorQuery is nil or vectorLimit <= 0, and a
// skipped side returns nil results. The first error cancels the context
// passed to the other in-flight call and is returned with nil results.
func SearchBoth(
	ctx context.Context,
	bm25 store.BM25Index, bm25Query string, bm25Limit int,
	vectors store.VectorStore, vectorQuery []float32, vectorLimit int,
) ([]*store.BM25Result, []*store.VectorResult, error) {
	var bm25Results []*store.BM25Result
	var vectorResults []*store.VectorResult

	g, gctx := errgroup.WithContext(ctx)

	if bm25 != nil && bm25Limit > 0 {
		g.Go(func() error {
			r, err := bm25.Search(gctx, bm25Query, bm25Limit)
			if err != nil {
				return err
			}
			bm25Results = r
			return nil
		})
	}

	if vectors != nil && vectorQuery != nil && vectorLimit > 0 {
		g.Go(func() error {
			r, err := vectors.Search(gctx, vectorQuery, vectorLimit)
			if err != nil {
				return err
			}
			vectorResults = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return bm25Results, vectorResults, nil
}
