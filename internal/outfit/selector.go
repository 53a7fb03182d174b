package outfit

// SelectBest returns the highest scoring candidate. Ties go to the first
// candidate in enumeration order. No candidates yields the empty Outfit.
func SelectBest(candidates []Outfit) Outfit {
	if len(candidates) == 0 {
		return Outfit{}
	}
	best := 0
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[best].Score {
			best = i
		}
	}
	return candidates[best].clone()
}

// GenerateSuggestion runs the full pipeline: pool, score, select. It has
// no side effects and returns the empty Outfit when the wardrobe cannot
// dress the weather. Nil preferences score every pair as neutral.
func GenerateSuggestion(wardrobe []ClothingItem, tag WeatherTag, prefs *Preferences, overrides Overrides) Outfit {
	pool := BuildCandidatePool(wardrobe, tag, overrides)
	if !pool.Sufficient() {
		return Outfit{}
	}
	return SelectBest(ScoreCandidates(pool, tag, prefs))
}
