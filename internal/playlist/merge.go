package playlist

// Merge concatenates batches in order, keeps the first occurrence of each
// track ID, and truncates to MaxTracks. The result is never nil.
func Merge(batches ...[]Track) []Track {
	seen := make(map[string]struct{})
	out := make([]Track, 0, MaxTracks)

	for _, batch := range batches {
		for _, t := range batch {
			if len(out) == MaxTracks {
				return out
			}
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
