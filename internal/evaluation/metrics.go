package evaluation

// Precision calculates the share of the top k ranked items that are relevant
func Precision[T comparable](relevant map[T]struct{}, ranked []T, k int) float64 {
	if k > len(ranked) {
		k = len(ranked)
	}
	if k <= 0 {
		return 0
	}

	hits := 0
	for _, item := range ranked[:k] {
		if _, ok := relevant[item]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}

// Recall calculates the share of relevant items found in the top k
func Recall[T comparable](relevant map[T]struct{}, ranked []T, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	if k > len(ranked) {
		k = len(ranked)
	}

	found := make(map[T]struct{})
	for _, item := range ranked[:max(k, 0)] {
		if _, ok := relevant[item]; ok {
			found[item] = struct{}{}
		}
	}
	return float64(len(found)) / float64(len(relevant))
}

// MRR calculates the reciprocal rank of the first relevant item
func MRR[T comparable](relevant map[T]struct{}, ranked []T) float64 {
	for i, item := range ranked {
		if _, ok := relevant[item]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func toSet[T comparable](items []T) map[T]struct{} {
	set := make(map[T]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
