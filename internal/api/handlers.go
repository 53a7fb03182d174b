package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/mrwolf/fitpicker/internal/db"
	"github.com/mrwolf/fitpicker/internal/logging"
	"github.com/mrwolf/fitpicker/internal/models"
	"github.com/mrwolf/fitpicker/internal/outfit"
	"github.com/mrwolf/fitpicker/internal/session"
	"github.com/mrwolf/fitpicker/internal/vault"
	"github.com/mrwolf/fitpicker/internal/weather"
)

const (
	version      = "1.0.0"
	maxBodyBytes = 1 << 20
)

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn().Err(err).Msg("encoding response")
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// decode reads and validates a JSON body, writing the error response on
// failure
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return false
	}
	if err := validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err.Error(),
		})
		return false
	}
	return true
}

// writeEngineError maps engine and session errors to HTTP statuses
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, outfit.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, outfit.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_ITEM")
	case errors.Is(err, session.ErrNoSuggestion):
		writeError(w, http.StatusConflict, err.Error(), "NO_SUGGESTION")
	default:
		logging.Error().Err(err).Msg("unexpected engine error")
		writeError(w, http.StatusInternalServerError, "internal error", "INTERNAL")
	}
}

type Handlers struct {
	db        *db.DB
	session   *session.Session
	refresher *weather.Refresher
	device    *weather.DeviceLocator
	vault     *vault.Vault // optional, journals events
	clock     clockwork.Clock
}

type Deps struct {
	DB        *db.DB
	Session   *session.Session
	Refresher *weather.Refresher
	Device    *weather.DeviceLocator
	Vault     *vault.Vault
	Clock     clockwork.Clock
}

func NewHandlers(d Deps) *Handlers {
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	return &Handlers{
		db:        d.DB,
		session:   d.Session,
		refresher: d.Refresher,
		device:    d.Device,
		vault:     d.Vault,
		clock:     d.Clock,
	}
}

func (h *Handlers) journal(e vault.Event) {
	if h.vault == nil {
		return
	}
	if err := h.vault.LogEvent(e); err != nil {
		logging.Warn().Err(err).Str("kind", e.Kind).Msg("journal write failed")
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		Database: "ok",
		Weather:  "pending",
		Version:  version,
	}
	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "error: " + err.Error()
	}
	if reading, ok := h.refresher.Current(); ok {
		resp.Weather = reading.Source
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) currentWeather() models.Weather {
	reading, ok := h.refresher.Current()
	if !ok {
		reading = weather.SeasonalFallback(h.clock.Now(), weather.Location{})
	}
	return models.Weather{
		Temperature: reading.TemperatureF,
		Condition:   reading.Condition,
		Tag:         reading.Tag,
		Source:      reading.Source,
		Latitude:    reading.Location.Latitude,
		Longitude:   reading.Location.Longitude,
		Location:    reading.Location.Source,
		FetchedAt:   reading.FetchedAt,
	}
}

// Weather handles GET /weather
func (h *Handlers) Weather(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.currentWeather())
}

// SetLocation handles PUT /location. The device position joins the lookup
// chain and weather is refreshed right away.
func (h *Handlers) SetLocation(w http.ResponseWriter, r *http.Request) {
	var req models.LocationRequest
	if !decode(w, r, &req) {
		return
	}
	h.device.Set(*req.Latitude, *req.Longitude)

	if _, err := h.refresher.Refresh(r.Context()); err != nil && !errors.Is(err, weather.ErrSuperseded) {
		logging.Warn().Err(err).Msg("refresh after location change")
	}
	writeJSON(w, http.StatusOK, h.currentWeather())
}

// ListItems handles GET /items
func (h *Handlers) ListItems(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	since := h.clock.Now().Add(-outfit.RecentWindow)

	items := make([]models.Item, 0, len(state.Wardrobe))
	for _, it := range state.Wardrobe {
		items = append(items, models.Item{
			ClothingItem: it,
			Override:     state.Overrides[it.ID],
			WornRecently: state.WornSince(it.ID, since),
		})
	}
	writeJSON(w, http.StatusOK, models.ItemsResponse{Items: items})
}

// AddItem handles POST /items
func (h *Handlers) AddItem(w http.ResponseWriter, r *http.Request) {
	var req models.ItemRequest
	if !decode(w, r, &req) {
		return
	}
	added, err := h.session.AddItem(req.Item(""))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	h.journal(vault.NewEvent(vault.EventItemAdded, h.clock.Now(), added.ID))
	writeJSON(w, http.StatusCreated, added)
}

// EditItem handles PUT /items/{id}
func (h *Handlers) EditItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req models.ItemRequest
	if !decode(w, r, &req) {
		return
	}
	item := req.Item(id)
	if err := h.session.EditItem(item); err != nil {
		writeEngineError(w, err)
		return
	}
	h.journal(vault.NewEvent(vault.EventItemEdited, h.clock.Now(), id))
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /items/{id}
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.session.DeleteItem(id); err != nil {
		writeEngineError(w, err)
		return
	}
	h.journal(vault.NewEvent(vault.EventItemDeleted, h.clock.Now(), id))
	w.WriteHeader(http.StatusNoContent)
}

// ClearOverride handles DELETE /items/{id}/override
func (h *Handlers) ClearOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.session.ClearOverride(id); err != nil {
		writeEngineError(w, err)
		return
	}
	h.journal(vault.NewEvent(vault.EventOverrideDrop, h.clock.Now(), id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) suggestion(o outfit.Outfit) models.SuggestionResponse {
	wx := h.currentWeather()
	resp := models.SuggestionResponse{
		Status:  models.StatusOK,
		Weather: wx,
		Items:   o.Items,
		Score:   o.Score,
	}
	if o.Empty() {
		resp.Status = models.StatusEmpty
		resp.Items = []outfit.ClothingItem{}
		resp.Reason = fmt.Sprintf("need at least one top, bottom and pair of shoes suitable for %s weather", wx.Tag)
	}
	return resp
}

// Suggestion handles GET /suggestion
func (h *Handlers) Suggestion(w http.ResponseWriter, r *http.Request) {
	o := h.session.Suggest(h.refresher.Tag())
	writeJSON(w, http.StatusOK, h.suggestion(o))
}

// Regenerate handles POST /suggestion/regenerate
func (h *Handlers) Regenerate(w http.ResponseWriter, r *http.Request) {
	o := h.session.Regenerate(h.refresher.Tag())
	writeJSON(w, http.StatusOK, h.suggestion(o))
}

// Feedback handles POST /feedback
func (h *Handlers) Feedback(w http.ResponseWriter, r *http.Request) {
	var req models.FeedbackRequest
	if !decode(w, r, &req) {
		return
	}
	liked := *req.Liked
	if err := h.session.Feedback(req.Items, liked, outfit.TempMarker(req.Temperature)); err != nil {
		writeEngineError(w, err)
		return
	}

	e := vault.NewEvent(vault.EventFeedback, h.clock.Now(), req.Items...)
	e.Liked = &liked
	e.Marker = req.Temperature
	h.journal(e)

	writeJSON(w, http.StatusOK, models.FeedbackResponse{
		Status:     "recorded",
		Regenerate: !liked || req.Temperature != "",
	})
}

// TemperatureFeedback handles POST /feedback/temperature
func (h *Handlers) TemperatureFeedback(w http.ResponseWriter, r *http.Request) {
	var req models.TemperatureRequest
	if !decode(w, r, &req) {
		return
	}
	adjusted, rated, err := h.session.Temperature(outfit.TempMarker(req.Feedback))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	e := vault.NewEvent(vault.EventTemperature, h.clock.Now(), rated...)
	e.Marker = req.Feedback
	h.journal(e)

	resp := models.TemperatureResponse{Status: "regenerate", Overridden: rated}
	if !adjusted.Empty() {
		s := h.suggestion(adjusted)
		resp.Status = "adjusted"
		resp.Suggestion = &s
	}
	writeJSON(w, http.StatusOK, resp)
}

// History handles GET /history?limit=N, newest last
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	history := h.session.Snapshot().History
	if history == nil {
		history = []outfit.HistoryEntry{}
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer", "INVALID_LIMIT")
			return
		}
		if limit < len(history) {
			history = history[len(history)-limit:]
		}
	}
	writeJSON(w, http.StatusOK, models.HistoryResponse{History: history})
}

// Preferences handles GET /preferences
func (h *Handlers) Preferences(w http.ResponseWriter, r *http.Request) {
	state := h.session.Snapshot()
	writeJSON(w, http.StatusOK, models.PreferencesResponse{
		Colors:    state.Prefs.ColorEdges(),
		Styles:    state.Prefs.StyleEdges(),
		Overrides: state.Overrides,
	})
}
