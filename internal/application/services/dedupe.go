package services

// firstWins appends items to dst, skipping any whose id was already seen.
// seen is updated in place so several calls can share one accumulated list;
// the earliest write of an id is the one that survives.
func firstWins[T any](dst []T, seen map[string]struct{}, items []T, id func(T) string) []T {
	for _, item := range items {
		key := id(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		dst = append(dst, item)
	}
	return dst
}
