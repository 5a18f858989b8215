package textsim

// Similarity computes the Jaccard index between the keyword sets of a and b:
// |A ∩ B| / |A ∪ B|, in [0,1]. When either side yields no qualifying
// keywords the similarity is defined as 0, never NaN.
func Similarity(a, b string) float64 {
	ka := keywordSet(a)
	kb := keywordSet(b)
	if len(ka) == 0 || len(kb) == 0 {
		return 0
	}

	inter := 0
	for w := range ka {
		if _, ok := kb[w]; ok {
			inter++
		}
	}
	union := len(ka) + len(kb) - inter
	return float64(inter) / float64(union)
}

// BestMatch scans candidate patterns in order and returns the index of the
// one with the strictly highest similarity to query, provided it reaches
// threshold. Ties keep the first candidate encountered (stable, so repeated
// lookups are reproducible). Returns (-1, 0) when nothing qualifies.
func BestMatch(patterns []string, query string, threshold float64) (int, float64) {
	best := -1
	bestScore := 0.0
	for i, p := range patterns {
		score := Similarity(query, p)
		if score >= threshold && score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best, bestScore
}

func keywordSet(text string) map[string]struct{} {
	words := Keywords(text)
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
