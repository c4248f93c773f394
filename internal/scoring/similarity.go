package scoring

import "strings"

// TitleSimilarity returns a similarity ratio in [0, 1] between two titles
// after case and whitespace normalization. The ratio is 2*M / (len(a)+len(b))
// where M is the total length of the longest matching blocks found by
// recursively splitting around the longest common substring, the same
// measure difflib's SequenceMatcher reports.
func TitleSimilarity(a, b string) float64 {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	if len(na) == 0 && len(nb) == 0 {
		return 1.0
	}
	if len(na) == 0 || len(nb) == 0 {
		return 0.0
	}
	matched := matchingLength([]rune(na), []rune(nb))
	return 2.0 * float64(matched) / float64(len([]rune(na))+len([]rune(nb)))
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchingLength sums the lengths of the longest matching blocks between a
// and b: find the longest common substring, then recurse into the pieces on
// either side of it.
func matchingLength(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	total := size
	total += matchingLength(a[:ai], b[:bi])
	total += matchingLength(a[ai+size:], b[bi+size:])
	return total
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	// prev[j] holds the match length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > size {
					size = curr[j]
					ai = i - size
					bi = j - size
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return ai, bi, size
}
