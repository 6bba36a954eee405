package facet

import (
	"sort"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// ValueNone is the bucket for automations that carry no value in a dimension
// (no trigger, no action call, no blueprint). Keeping these in a named bucket
// preserves the invariant that per-dimension counts sum to the matched total.
const ValueNone = "(none)"

// Aggregate computes grouped counts over an already-filtered result set. Each
// automation contributes exactly one count per requested dimension — its
// repository, its primary trigger type, its primary action domain, and its
// blueprint path — so for every dimension the bucket counts sum to len(hits).
//
// Cost is O(len(hits) * len(dims)): the full corpus is never rescanned.
//
// Buckets are ordered by count descending, ties broken lexicographically
// ascending on value, so output is deterministic.
func Aggregate(hits []types.SearchHit, dims []types.Dimension) map[types.Dimension][]types.FacetBucket {
	out := make(map[types.Dimension][]types.FacetBucket, len(dims))
	for _, dim := range dims {
		counts := make(map[string]int)
		for i := range hits {
			counts[bucketValue(&hits[i], dim)]++
		}
		out[dim] = sortBuckets(dim, counts)
	}
	return out
}

// bucketValue picks the single attribution value for a hit in a dimension.
func bucketValue(hit *types.SearchHit, dim types.Dimension) string {
	switch dim {
	case types.DimRepository:
		return hit.Repository.Name
	case types.DimTriggerType:
		// Primary trigger is the first declared one, matching how an
		// automation is usually named after its leading trigger.
		if len(hit.Automation.TriggerTypes) > 0 {
			return hit.Automation.TriggerTypes[0]
		}
		return ValueNone
	case types.DimActionDomain:
		if domains := hit.Automation.ActionDomains(); len(domains) > 0 {
			return domains[0]
		}
		return ValueNone
	case types.DimBlueprint:
		if hit.Automation.BlueprintPath != "" {
			return hit.Automation.BlueprintPath
		}
		return ValueNone
	default:
		return ValueNone
	}
}

func sortBuckets(dim types.Dimension, counts map[string]int) []types.FacetBucket {
	buckets := make([]types.FacetBucket, 0, len(counts))
	for value, count := range counts {
		buckets = append(buckets, types.FacetBucket{
			Dimension: dim,
			Value:     value,
			Count:     count,
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Value < buckets[j].Value
	})
	return buckets
}

// Total sums the counts of a bucket list. For any dimension aggregated over a
// matched set, Total equals the size of that set.
func Total(buckets []types.FacetBucket) int {
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	return total
}
