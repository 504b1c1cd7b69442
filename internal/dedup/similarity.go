package dedup

// Ratio computes a similarity score in [0,1] between two strings using the
// longest-matching-blocks measure: find the longest contiguous common run,
// recurse into the unmatched left and right partitions, and sum the matched
// character counts M. The score is 2*M / (len(a)+len(b)).
//
// Two empty strings score 1.0 (identical sequences); empty vs non-empty
// scores 0.0. The measure is symmetric and deterministic: the tie-breaking in
// longestMatch is sensitive to argument order, so arguments are put in
// canonical order before matching. Inputs are expected to be normalized
// already.
func Ratio(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingRunes(ar, br)) / float64(total)
}

// matchingRunes returns the total number of runes covered by matching blocks.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}

	return size +
		matchingRunes(a[:ai], b[:bi]) +
		matchingRunes(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest contiguous run common to a and b, preferring
// the earliest occurrence in a, then in b, on ties. Returns the start index in
// each string and the run length. O(len(a)*len(b)).
func longestMatch(a, b []rune) (int, int, int) {
	bestA, bestB, bestSize := 0, 0, 0

	// runLen[j] = length of the common run ending at a[i-1], b[j-1].
	runLen := make(map[int]int, len(b))
	for i := range a {
		next := make(map[int]int, len(b))
		for j := range b {
			if a[i] != b[j] {
				continue
			}
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestA, bestB, bestSize = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}

	return bestA, bestB, bestSize
}
