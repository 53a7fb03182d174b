package outfit

// NeedsOuterwear reports whether the weather calls for a layer on top
func NeedsOuterwear(tag WeatherTag) bool {
	return tag == WeatherCold || tag == WeatherRainy
}

// TripleScore scores a top/bottom/shoes combination. The color component
// is the mean of the three pairwise color affinities, the style component
// the top/bottom style affinity, and the two are weighted equally.
func TripleScore(top, bottom, shoes ClothingItem, prefs *Preferences) float64 {
	color := (prefs.ColorScore(top.Color, bottom.Color) +
		prefs.ColorScore(top.Color, shoes.Color) +
		prefs.ColorScore(bottom.Color, shoes.Color)) / 3
	style := prefs.StyleScore(top.Style, bottom.Style)
	return (color + style) / 2
}

// ScoreCandidates enumerates every top × bottom × shoes triple in pool
// order. In cold or rainy weather the first outerwear item that is not the
// top itself is appended; it is not part of the score.
func ScoreCandidates(pool CandidatePool, tag WeatherTag, prefs *Preferences) []Outfit {
	if !pool.Sufficient() {
		return nil
	}
	candidates := make([]Outfit, 0, len(pool.Tops)*len(pool.Bottoms)*len(pool.Shoes))
	for _, top := range pool.Tops {
		layer, hasLayer := firstOuterwear(pool.Outerwear, top.ID, tag)
		for _, bottom := range pool.Bottoms {
			for _, shoes := range pool.Shoes {
				items := []ClothingItem{top, bottom, shoes}
				if hasLayer {
					items = append(items, layer)
				}
				candidates = append(candidates, Outfit{
					Items: items,
					Score: TripleScore(top, bottom, shoes, prefs),
				})
			}
		}
	}
	return candidates
}

func firstOuterwear(outerwear []ClothingItem, topID string, tag WeatherTag) (ClothingItem, bool) {
	if !NeedsOuterwear(tag) {
		return ClothingItem{}, false
	}
	for _, ow := range outerwear {
		if ow.ID != topID {
			return ow, true
		}
	}
	return ClothingItem{}, false
}
