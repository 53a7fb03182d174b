package outfit

import (
	"math"
	"sort"
)

// Learning constants
const (
	// PreferenceStep is applied per like (+) or dislike (-)
	PreferenceStep = 0.1
	MinScore       = -1.0
	MaxScore       = 1.0

	// scores are snapped to a 1e-9 grid so repeated decimal steps stay exact
	scoreScale = 1e9
)

// ColorEdge is the persisted form of a color affinity
type ColorEdge struct {
	Color1 Color   `json:"color1"`
	Color2 Color   `json:"color2"`
	Score  float64 `json:"score"`
}

// StyleEdge is the persisted form of a style affinity
type StyleEdge struct {
	Style1 StyleTag `json:"style1"`
	Style2 StyleTag `json:"style2"`
	Score  float64  `json:"score"`
}

type colorKey struct{ a, b Color }

type styleKey struct{ a, b StyleTag }

func newColorKey(a, b Color) colorKey {
	if b < a {
		a, b = b, a
	}
	return colorKey{a, b}
}

func newStyleKey(a, b StyleTag) styleKey {
	if b < a {
		a, b = b, a
	}
	return styleKey{a, b}
}

// Preferences holds the symmetric color-pair and style-pair affinities.
// Lookups for a missing edge return 0; bumps on a missing edge are no-ops.
type Preferences struct {
	colors map[colorKey]float64
	styles map[styleKey]float64
}

// NewPreferences returns preferences with every palette color pair and
// every top/bottom style pair initialised to a neutral 0
func NewPreferences() *Preferences {
	p := &Preferences{
		colors: make(map[colorKey]float64),
		styles: make(map[styleKey]float64),
	}
	for _, c := range Palette {
		p.SeedColor(c)
	}
	for _, top := range TopStyles {
		for _, bottom := range BottomStyles {
			p.styles[newStyleKey(top, bottom)] = 0
		}
	}
	return p
}

// PreferencesFromEdges rebuilds preferences from persisted edges. A nil
// slice means the collection was absent and is initialised instead.
// Duplicate or self-referencing edges are skipped; out of range scores
// are clamped.
func PreferencesFromEdges(colors []ColorEdge, styles []StyleEdge) *Preferences {
	fresh := NewPreferences()
	p := &Preferences{
		colors: make(map[colorKey]float64),
		styles: make(map[styleKey]float64),
	}
	if colors == nil {
		p.colors = fresh.colors
	}
	for _, e := range colors {
		if e.Color1 == e.Color2 || !e.Color1.Valid() || !e.Color2.Valid() {
			continue
		}
		k := newColorKey(e.Color1, e.Color2)
		if _, dup := p.colors[k]; dup {
			continue
		}
		p.colors[k] = clamp(e.Score)
	}
	if styles == nil {
		p.styles = fresh.styles
	}
	for _, e := range styles {
		if e.Style1 == e.Style2 {
			continue
		}
		k := newStyleKey(e.Style1, e.Style2)
		if _, dup := p.styles[k]; dup {
			continue
		}
		p.styles[k] = clamp(e.Score)
	}
	return p
}

// ColorScore returns the affinity of two colors, 0 when no edge exists.
// Nil preferences are neutral.
func (p *Preferences) ColorScore(a, b Color) float64 {
	if p == nil {
		return 0
	}
	return p.colors[newColorKey(a, b)]
}

// StyleScore returns the affinity of two styles, 0 when no edge exists
func (p *Preferences) StyleScore(a, b StyleTag) float64 {
	if p == nil {
		return 0
	}
	return p.styles[newStyleKey(a, b)]
}

// HasColorEdge reports whether an edge exists for the pair
func (p *Preferences) HasColorEdge(a, b Color) bool {
	_, ok := p.colors[newColorKey(a, b)]
	return ok
}

// HasStyleEdge reports whether an edge exists for the pair
func (p *Preferences) HasStyleEdge(a, b StyleTag) bool {
	_, ok := p.styles[newStyleKey(a, b)]
	return ok
}

// BumpColor moves the color edge one step toward liked or disliked
func (p *Preferences) BumpColor(a, b Color, liked bool) {
	k := newColorKey(a, b)
	if score, ok := p.colors[k]; ok {
		p.colors[k] = step(score, liked)
	}
}

// BumpStyle moves the style edge one step toward liked or disliked
func (p *Preferences) BumpStyle(a, b StyleTag, liked bool) {
	k := newStyleKey(a, b)
	if score, ok := p.styles[k]; ok {
		p.styles[k] = step(score, liked)
	}
}

// SeedColor creates neutral edges between c and every other palette color
// that is missing one. Existing edges keep their score.
func (p *Preferences) SeedColor(c Color) {
	if !c.Valid() {
		return
	}
	for _, other := range Palette {
		if other == c {
			continue
		}
		k := newColorKey(c, other)
		if _, ok := p.colors[k]; !ok {
			p.colors[k] = 0
		}
	}
}

// PruneColor removes every color edge touching c. Style edges have no
// equivalent: they are never pruned.
func (p *Preferences) PruneColor(c Color) {
	for k := range p.colors {
		if k.a == c || k.b == c {
			delete(p.colors, k)
		}
	}
}

// ColorEdges returns the color edges sorted by pair
func (p *Preferences) ColorEdges() []ColorEdge {
	edges := make([]ColorEdge, 0, len(p.colors))
	for k, score := range p.colors {
		edges = append(edges, ColorEdge{Color1: k.a, Color2: k.b, Score: score})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Color1 != edges[j].Color1 {
			return edges[i].Color1 < edges[j].Color1
		}
		return edges[i].Color2 < edges[j].Color2
	})
	return edges
}

// StyleEdges returns the style edges sorted by pair
func (p *Preferences) StyleEdges() []StyleEdge {
	edges := make([]StyleEdge, 0, len(p.styles))
	for k, score := range p.styles {
		edges = append(edges, StyleEdge{Style1: k.a, Style2: k.b, Score: score})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Style1 != edges[j].Style1 {
			return edges[i].Style1 < edges[j].Style1
		}
		return edges[i].Style2 < edges[j].Style2
	})
	return edges
}

// Clone returns an independent copy
func (p *Preferences) Clone() *Preferences {
	c := &Preferences{
		colors: make(map[colorKey]float64, len(p.colors)),
		styles: make(map[styleKey]float64, len(p.styles)),
	}
	for k, v := range p.colors {
		c.colors[k] = v
	}
	for k, v := range p.styles {
		c.styles[k] = v
	}
	return c
}

func step(score float64, liked bool) float64 {
	if liked {
		score += PreferenceStep
	} else {
		score -= PreferenceStep
	}
	return clamp(math.Round(score*scoreScale) / scoreScale)
}

func clamp(score float64) float64 {
	if math.IsNaN(score) {
		return 0
	}
	return math.Min(MaxScore, math.Max(MinScore, score))
}
