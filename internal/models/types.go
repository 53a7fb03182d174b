package models

import (
	"time"

	"github.com/mrwolf/fitpicker/internal/outfit"
)

// ItemRequest creates or replaces a wardrobe item
type ItemRequest struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Type        string   `json:"type" validate:"required,oneof=top bottom shoes outerwear accessory"`
	Color       string   `json:"color" validate:"required"`
	WeatherTags []string `json:"weatherTags" validate:"required,min=1,dive,oneof=hot mild cold rainy"`
	StyleTag    string   `json:"styleTag,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// Item converts the request; enum membership is checked by the engine
func (r ItemRequest) Item(id string) outfit.ClothingItem {
	tags := make([]outfit.WeatherTag, len(r.WeatherTags))
	for i, t := range r.WeatherTags {
		tags[i] = outfit.WeatherTag(t)
	}
	return outfit.ClothingItem{
		ID:          id,
		Name:        r.Name,
		Category:    outfit.Category(r.Type),
		Color:       outfit.Color(r.Color),
		WeatherTags: tags,
		Style:       outfit.StyleTag(r.StyleTag),
		ImageURL:    r.ImageURL,
	}
}

// Item is a wardrobe item as the client sees it
type Item struct {
	outfit.ClothingItem
	Override     outfit.TempMarker `json:"temperatureOverride,omitempty"`
	WornRecently bool              `json:"wornRecently"`
}

type ItemsResponse struct {
	Items []Item `json:"items"`
}

// Weather is the reading the suggestion was made for
type Weather struct {
	Temperature float64           `json:"temperature"`
	Condition   outfit.Condition  `json:"condition"`
	Tag         outfit.WeatherTag `json:"tag"`
	Source      string            `json:"source"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Location    string            `json:"locationSource,omitempty"`
	FetchedAt   time.Time         `json:"fetchedAt"`
}

// SuggestionResponse status values
const (
	StatusOK    = "ok"
	StatusEmpty = "empty"
)

type SuggestionResponse struct {
	Status  string                `json:"status"`
	Reason  string                `json:"reason,omitempty"`
	Weather Weather               `json:"weather"`
	Items   []outfit.ClothingItem `json:"items"`
	Score   float64               `json:"score"`
}

// FeedbackRequest rates an outfit. Without items the current suggestion
// is rated.
type FeedbackRequest struct {
	Items       []string `json:"items" validate:"omitempty,max=8,dive,required"`
	Liked       *bool    `json:"liked" validate:"required"`
	Temperature string   `json:"temperature,omitempty" validate:"omitempty,oneof=hot cold"`
}

type FeedbackResponse struct {
	Status     string `json:"status"`
	Regenerate bool   `json:"regenerate"`
}

// TemperatureRequest reports the current outfit as too hot or too cold
type TemperatureRequest struct {
	Feedback string `json:"feedback" validate:"required,oneof=hot cold"`
}

// TemperatureResponse carries the adjusted outfit, or status "regenerate"
// when no adjustment applied and a new suggestion should be requested
type TemperatureResponse struct {
	Status     string              `json:"status"`
	Suggestion *SuggestionResponse `json:"suggestion,omitempty"`
	Overridden []string            `json:"overridden"`
}

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type HistoryResponse struct {
	History []outfit.HistoryEntry `json:"history"`
}

type PreferencesResponse struct {
	Colors    []outfit.ColorEdge `json:"colors"`
	Styles    []outfit.StyleEdge `json:"styles"`
	Overrides outfit.Overrides   `json:"temperatureOverrides"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Weather  string `json:"weather"`
	Version  string `json:"version"`
}
