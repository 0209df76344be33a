// Package web serves the control page and the JSON play/stop endpoints.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/jukebox"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/app/playback"
	"github.com/NestorKrdona/Audio-Play-Robot/internal/domain/track"
)

//go:embed templates/*.html
var templateFiles embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFiles, "templates/index.html"))

// Response status values.
const (
	StatusPlaying = "playing"
	StatusStopped = "stopped"
	StatusIdle    = "idle"
	StatusError   = "error"
)

// Error messages returned to clients.
const (
	MessageAudioNotFound  = "Audio not found"
	MessagePlaybackFailed = "Playback failed"
	MessageShuttingDown   = "Player is shutting down"
)

// Player is the part of the jukebox the handlers need.
type Player interface {
	Has(id string) bool
	Tracks() []track.Track
	Play(id string) error
	Stop() error
	GetStatus() jukebox.Status
}

// Response is the JSON body of every API response.
type Response struct {
	Status  string `json:"status"`
	Audio   string `json:"audio,omitempty"`
	Message string `json:"message,omitempty"`
}

// Handler serves the HTTP endpoints.
type Handler struct {
	player Player
	title  string
}

// NewHandler creates a new Handler.
func NewHandler(player Player, title string) *Handler {
	if title == "" {
		title = "Audio Player"
	}
	return &Handler{player: player, title: title}
}

// Register registers the routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /play/{trackId}", h.Play)
	mux.HandleFunc("POST /stop", h.Stop)
	mux.HandleFunc("GET /status", h.Status)
}

type indexTrack struct {
	ID       string
	Name     string
	Duration string
	Playing  bool
}

type indexData struct {
	Title   string
	Tracks  []indexTrack
	Current string
	PollMs  int64
}

// statusPollInterval is how often the control page refreshes from /status.
const statusPollInterval = 3 * time.Second

// Index renders the control page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	status := h.player.GetStatus()

	data := indexData{Title: h.title, PollMs: statusPollInterval.Milliseconds()}
	if status.Current != nil {
		data.Current = status.Current.ID
	}
	for _, t := range h.player.Tracks() {
		it := indexTrack{ID: t.ID, Name: t.DisplayName(), Playing: t.ID == data.Current}
		if t.Duration > 0 {
			it.Duration = t.Duration.Round(time.Second).String()
		}
		data.Tracks = append(data.Tracks, it)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		zlog.Error().Err(err).Msg("web: failed to render index")
	}
}

// Play starts looping the requested track.
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("trackId")

	if !h.player.Has(id) {
		writeJSON(w, http.StatusNotFound, Response{Status: StatusError, Message: MessageAudioNotFound})
		return
	}

	if err := h.player.Play(id); err != nil {
		if errors.Is(err, playback.ErrTrackNotFound) {
			writeJSON(w, http.StatusNotFound, Response{Status: StatusError, Message: MessageAudioNotFound})
			return
		}
		if errors.Is(err, playback.ErrClosed) {
			writeJSON(w, http.StatusServiceUnavailable, Response{Status: StatusError, Message: MessageShuttingDown})
			return
		}
		zlog.Error().Err(err).Msgf("web: failed to play %s", id)
		writeJSON(w, http.StatusInternalServerError, Response{Status: StatusError, Message: MessagePlaybackFailed})
		return
	}

	writeJSON(w, http.StatusOK, Response{Status: StatusPlaying, Audio: id})
}

// Stop stops playback. It always reports success.
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.player.Stop(); err != nil {
		zlog.Error().Err(err).Msg("web: failed to stop playback")
	}
	writeJSON(w, http.StatusOK, Response{Status: StatusStopped})
}

// Status reports what is playing.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.player.GetStatus()
	if status.Current == nil {
		writeJSON(w, http.StatusOK, Response{Status: StatusIdle})
		return
	}
	writeJSON(w, http.StatusOK, Response{Status: StatusPlaying, Audio: status.Current.ID})
}

func writeJSON(w http.ResponseWriter, code int, body Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zlog.Error().Err(err).Msg("web: failed to write response")
	}
}
