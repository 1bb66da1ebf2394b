package enrich

import (
	"context"
	"fmt"
	"math"

	"github.com/AyushPatiTripathi/Osnit-Sheild/internal/model"
)

// SimilarityThreshold is the minimum cosine similarity for a record to
// join an existing cluster.
const SimilarityThreshold = 0.75

// Cluster groups records by embedding cosine similarity, writing
// cluster ids into the records in place. Records without an embedding
// are left untouched.
//
// Assignment is greedy and single-pass: records are visited in input
// order, each unassigned record seeds a new cluster, and every later
// unassigned record similar enough to the seed joins it immediately.
// This is not transitive-closure clustering — two records similar to a
// common third can land in different clusters depending on input
// order. Known limitation, kept for behavioral compatibility with the
// deployed scoring history.
func Cluster(records []*model.Record) {
	var valid []*model.Record
	for _, rec := range records {
		if len(rec.Embedding) > 0 {
			valid = append(valid, rec)
		}
	}
	if len(valid) == 0 {
		return
	}

	assigned := make([]bool, len(valid))
	nextID := int64(1)

	for i := range valid {
		if assigned[i] {
			continue
		}
		clusterID := nextID
		nextID++

		setClusterID(valid[i], clusterID)
		assigned[i] = true

		for j := i + 1; j < len(valid); j++ {
			if assigned[j] {
				continue
			}
			if CosineSimilarity(valid[i].Embedding, valid[j].Embedding) >= SimilarityThreshold {
				setClusterID(valid[j], clusterID)
				assigned[j] = true
			}
		}
	}
}

func setClusterID(rec *model.Record, id int64) {
	v := id
	rec.ClusterID = &v
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero-magnitude vectors yield 0 rather
// than an error.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ClusterPass fetches every record carrying an embedding, reclusters
// them from scratch, and persists the new assignments. Cluster ids are
// only stable within one pass.
func (p *Pipeline) ClusterPass(ctx context.Context) error {
	records, err := p.store.ListWithEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("list records with embeddings: %w", err)
	}

	ptrs := make([]*model.Record, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	Cluster(ptrs)

	for _, rec := range ptrs {
		if rec.ClusterID == nil {
			continue
		}
		if err := p.store.SaveClusterID(ctx, rec.ID, rec.ClusterID); err != nil {
			return fmt.Errorf("save cluster id for record %d: %w", rec.ID, err)
		}
	}
	p.log.Info("clustering pass complete", "records", len(ptrs))
	return nil
}
