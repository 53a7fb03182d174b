package outfit

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrInvalidItem  = errors.New("invalid item")
)

// Category is the garment slot an item fills
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryOuterwear Category = "outerwear"
	CategoryShoes     Category = "shoes"
	CategoryAccessory Category = "accessory"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTop, CategoryBottom, CategoryOuterwear, CategoryShoes, CategoryAccessory:
		return true
	}
	return false
}

// Color is one value of the fixed palette
type Color string

const (
	ColorBlack Color = "black"
	ColorWhite Color = "white"
	ColorNavy  Color = "navy"
	ColorGray  Color = "gray"
	ColorBeige Color = "beige"
	ColorBrown Color = "brown"
	ColorBlue  Color = "blue"
	ColorRed   Color = "red"
	ColorGreen Color = "green"
)

// Palette lists every color in a stable order
var Palette = []Color{
	ColorBlack, ColorWhite, ColorNavy, ColorGray, ColorBeige,
	ColorBrown, ColorBlue, ColorRed, ColorGreen,
}

func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

// WeatherTag is the discretised weather classification
type WeatherTag string

const (
	WeatherHot   WeatherTag = "hot"
	WeatherMild  WeatherTag = "mild"
	WeatherCold  WeatherTag = "cold"
	WeatherRainy WeatherTag = "rainy"
)

func (w WeatherTag) Valid() bool {
	switch w {
	case WeatherHot, WeatherMild, WeatherCold, WeatherRainy:
		return true
	}
	return false
}

// Condition is the sky condition reported alongside the temperature
type Condition string

const (
	ConditionClear  Condition = "clear"
	ConditionCloudy Condition = "cloudy"
	ConditionRainy  Condition = "rainy"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionClear, ConditionCloudy, ConditionRainy:
		return true
	}
	return false
}

// TempMarker records that an item was judged too hot or too cold
type TempMarker string

const (
	TooHot  TempMarker = "hot"
	TooCold TempMarker = "cold"
)

func (m TempMarker) Valid() bool {
	return m == TooHot || m == TooCold
}

// StyleTag is a garment sub-style, scoped by category
type StyleTag string

const (
	StyleNone StyleTag = ""

	StyleHoodie     StyleTag = "hoodie"
	StyleQuarterzip StyleTag = "quarterzip"
	StyleFlannel    StyleTag = "flannel"
	StyleTShirt     StyleTag = "tshirt"
	StylePolo       StyleTag = "polo"
	StyleDressShirt StyleTag = "dress-shirt"
	StyleSweater    StyleTag = "sweater"
	StyleBlazer     StyleTag = "blazer"
	StyleCargo      StyleTag = "cargo"
	StyleDenim      StyleTag = "denim"
	StyleChino      StyleTag = "chino"
	StyleShorts     StyleTag = "shorts"
	StyleSneakers   StyleTag = "sneakers"
	StyleBoots      StyleTag = "boots"
	StyleDressShoes StyleTag = "dress-shoes"
	StyleSandals    StyleTag = "sandals"
)

var (
	TopStyles = []StyleTag{
		StyleHoodie, StyleQuarterzip, StyleFlannel, StyleTShirt,
		StylePolo, StyleDressShirt, StyleSweater, StyleBlazer,
	}
	BottomStyles = []StyleTag{StyleCargo, StyleDenim, StyleChino, StyleShorts}
	ShoeStyles   = []StyleTag{StyleSneakers, StyleBoots, StyleDressShoes, StyleSandals}
)

// StylesFor returns the styles allowed for a category and whether
// the category may leave its style empty
func StylesFor(c Category) (styles []StyleTag, optional bool) {
	switch c {
	case CategoryTop:
		return TopStyles, false
	case CategoryBottom:
		return BottomStyles, false
	case CategoryShoes:
		return ShoeStyles, true
	case CategoryOuterwear:
		return TopStyles, true
	case CategoryAccessory:
		return nil, true
	}
	return nil, false
}

// ValidStyleFor reports whether s is a legal style for category c
func ValidStyleFor(c Category, s StyleTag) bool {
	styles, optional := StylesFor(c)
	if s == StyleNone {
		return optional
	}
	for _, allowed := range styles {
		if s == allowed {
			return true
		}
	}
	return false
}

// ClothingItem is a single garment in the wardrobe
type ClothingItem struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Category    Category     `json:"type"`
	Color       Color        `json:"color"`
	WeatherTags []WeatherTag `json:"weatherTags"`
	Style       StyleTag     `json:"styleTag,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
}

// HasTag reports whether the item carries the weather tag
func (it ClothingItem) HasTag(tag WeatherTag) bool {
	for _, t := range it.WeatherTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Validate checks every enumerated field of the item. ID is not checked
// since it is assigned by the wardrobe on add.
func (it ClothingItem) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if !it.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, it.Category)
	}
	if !it.Color.Valid() {
		return fmt.Errorf("%w: unknown color %q", ErrInvalidItem, it.Color)
	}
	if len(it.WeatherTags) == 0 {
		return fmt.Errorf("%w: at least one weather tag is required", ErrInvalidItem)
	}
	for _, t := range it.WeatherTags {
		if !t.Valid() {
			return fmt.Errorf("%w: unknown weather tag %q", ErrInvalidItem, t)
		}
	}
	if !ValidStyleFor(it.Category, it.Style) {
		return fmt.Errorf("%w: style %q not allowed for %s", ErrInvalidItem, it.Style, it.Category)
	}
	return nil
}

func (it ClothingItem) clone() ClothingItem {
	it.WeatherTags = append([]WeatherTag(nil), it.WeatherTags...)
	return it
}

// Outfit is a scored combination of items, ordered top, bottom, shoes
// and optionally outerwear. The zero Outfit means no suggestion.
type Outfit struct {
	Items []ClothingItem `json:"items"`
	Score float64        `json:"score"`
}

// Empty reports whether the outfit carries no items
func (o Outfit) Empty() bool {
	return len(o.Items) == 0
}

// IDs returns the item identifiers in outfit order
func (o Outfit) IDs() []string {
	ids := make([]string, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ID
	}
	return ids
}

// Contains reports whether the outfit includes the item
func (o Outfit) Contains(id string) bool {
	for _, it := range o.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}

func (o Outfit) byCategory(c Category) []ClothingItem {
	var out []ClothingItem
	for _, it := range o.Items {
		if it.Category == c {
			out = append(out, it)
		}
	}
	return out
}

func (o Outfit) clone() Outfit {
	if o.Items == nil {
		return o
	}
	items := make([]ClothingItem, len(o.Items))
	for i, it := range o.Items {
		items[i] = it.clone()
	}
	return Outfit{Items: items, Score: o.Score}
}

// HistoryEntry records an outfit that was presented
type HistoryEntry struct {
	Date  time.Time `json:"date"`
	Items []string  `json:"items"`
}

// FeedbackRecord records a like or dislike on a whole outfit
type FeedbackRecord struct {
	Outfit []ClothingItem `json:"outfit"`
	Liked  bool           `json:"liked"`
	Date   time.Time      `json:"date"`
}

// Overrides maps item IDs to their sticky temperature marker
type Overrides map[string]TempMarker
