package outfit

// CandidatePool is the eligible part of the wardrobe, partitioned by
// category in wardrobe order. Accessories are never scored.
type CandidatePool struct {
	Tops      []ClothingItem
	Bottoms   []ClothingItem
	Shoes     []ClothingItem
	Outerwear []ClothingItem
}

// Sufficient reports whether at least one top, bottom and pair of shoes
// survived filtering
func (p CandidatePool) Sufficient() bool {
	return len(p.Tops) > 0 && len(p.Bottoms) > 0 && len(p.Shoes) > 0
}

// Size returns the number of pooled items
func (p CandidatePool) Size() int {
	return len(p.Tops) + len(p.Bottoms) + len(p.Shoes) + len(p.Outerwear)
}

// WeatherEligible reports whether an item suits the weather. Mild-tagged
// items are a neutral fallback in any weather, and in mild weather hot or
// cold tagged items are acceptable as transitional pieces.
func WeatherEligible(item ClothingItem, tag WeatherTag) bool {
	if item.HasTag(tag) || item.HasTag(WeatherMild) {
		return true
	}
	return tag == WeatherMild && (item.HasTag(WeatherHot) || item.HasTag(WeatherCold))
}

// OverrideEligible reports whether a sticky temperature marker keeps the
// item out. Only a marker equal to the current hot or cold tag excludes.
func OverrideEligible(item ClothingItem, tag WeatherTag, overrides Overrides) bool {
	marker, ok := overrides[item.ID]
	if !ok {
		return true
	}
	switch tag {
	case WeatherHot:
		return marker != TooHot
	case WeatherCold:
		return marker != TooCold
	}
	return true
}

// BuildCandidatePool filters the wardrobe for the weather tag and overrides
func BuildCandidatePool(wardrobe []ClothingItem, tag WeatherTag, overrides Overrides) CandidatePool {
	var pool CandidatePool
	for _, item := range wardrobe {
		if !WeatherEligible(item, tag) || !OverrideEligible(item, tag, overrides) {
			continue
		}
		switch item.Category {
		case CategoryTop:
			pool.Tops = append(pool.Tops, item)
		case CategoryBottom:
			pool.Bottoms = append(pool.Bottoms, item)
		case CategoryShoes:
			pool.Shoes = append(pool.Shoes, item)
		case CategoryOuterwear:
			pool.Outerwear = append(pool.Outerwear, item)
		}
	}
	return pool
}
