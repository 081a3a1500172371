package model

// Bucket boundaries. A mapping lands in exactly one bucket.
const (
	HighConfidenceFloor   = 0.8
	MediumConfidenceFloor = 0.6
	LowConfidenceFloor    = 0.4
)

// ConfidenceBuckets is a derived view over mapping results, partitioned by
// confidence for review workflows.
type ConfidenceBuckets struct {
	High    []MappingResult // confidence > 0.8
	Medium  []MappingResult // 0.6 < confidence <= 0.8
	Low     []MappingResult // 0.4 < confidence <= 0.6
	NoMatch []MappingResult // confidence <= 0.4
}

// Total returns the number of results across all buckets.
func (b ConfidenceBuckets) Total() int {
	return len(b.High) + len(b.Medium) + len(b.Low) + len(b.NoMatch)
}

// BucketByConfidence partitions results into the four confidence buckets,
// preserving input order within each bucket.
func BucketByConfidence(results []MappingResult) ConfidenceBuckets {
	var b ConfidenceBuckets
	for _, r := range results {
		switch {
		case r.Confidence > HighConfidenceFloor:
			b.High = append(b.High, r)
		case r.Confidence > MediumConfidenceFloor:
			b.Medium = append(b.Medium, r)
		case r.Confidence > LowConfidenceFloor:
			b.Low = append(b.Low, r)
		default:
			b.NoMatch = append(b.NoMatch, r)
		}
	}
	return b
}
