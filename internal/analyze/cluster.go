package analyze

import (
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/rs/zerolog/log"
)

const clusterTermCap = 10

// clusterCount follows the document-count heuristic: between 2 and 5
// clusters for more than 3 documents, otherwise one per document.
func clusterCount(docCount int) int {
	if docCount > 3 {
		k := docCount / 2
		if k < 2 {
			k = 2
		}
		if k > 5 {
			k = 5
		}
		return k
	}
	if docCount < 1 {
		return 1
	}
	return docCount
}

// clusterTerms runs k-means over the TF-IDF rows and represents each cluster
// by its highest-weighted centroid terms. Infeasible input (no features,
// non-positive k) yields an empty map, never an error.
func clusterTerms(m *Matrix, numClusters int) map[int][]string {
	if numClusters > len(m.Rows) {
		log.Warn().Int("docs", len(m.Rows)).Int("clusters", numClusters).Msg("fewer documents than clusters, reducing")
		numClusters = len(m.Rows)
		if numClusters < 1 {
			numClusters = 1
		}
	}
	if numClusters <= 0 || len(m.Terms) == 0 || len(m.Rows) == 0 {
		return map[int][]string{}
	}
	if numClusters == 1 {
		// Single cluster: the centroid is the column mean.
		center := make([]float64, len(m.Terms))
		for _, row := range m.Rows {
			for j, v := range row {
				center[j] += v
			}
		}
		for j := range center {
			center[j] /= float64(len(m.Rows))
		}
		if terms := centroidTerms(center, m.Terms); len(terms) > 0 {
			return map[int][]string{0: terms}
		}
		return map[int][]string{}
	}

	obs := make(clusters.Observations, 0, len(m.Rows))
	for _, row := range m.Rows {
		obs = append(obs, clusters.Coordinates(row))
	}
	km := kmeans.New()
	partition, err := km.Partition(obs, numClusters)
	if err != nil {
		log.Error().Err(err).Msg("k-means failed")
		return map[int][]string{}
	}

	out := map[int][]string{}
	for i, c := range partition {
		if terms := centroidTerms(c.Center, m.Terms); len(terms) > 0 {
			out[i] = terms
		}
	}
	return out
}

// centroidTerms returns the cluster's top terms by centroid weight.
func centroidTerms(center []float64, terms []string) []string {
	idx := make([]int, len(center))
	for j := range idx {
		idx[j] = j
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if center[idx[a]] != center[idx[b]] {
			return center[idx[a]] > center[idx[b]]
		}
		return terms[idx[a]] < terms[idx[b]]
	})
	var out []string
	for _, j := range idx {
		if center[j] <= 0 || len(out) == clusterTermCap {
			break
		}
		out = append(out, terms[j])
	}
	return out
}
