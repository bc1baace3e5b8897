// Package server exposes the HTTP API handlers.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/onnwee/stream-recap/archive"
	"github.com/onnwee/stream-recap/chat"
	"github.com/onnwee/stream-recap/focus"
	"github.com/onnwee/stream-recap/session"
	"github.com/onnwee/stream-recap/summarize"
	"github.com/onnwee/stream-recap/telemetry"
)

// Pinger is satisfied by the optional session index.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the handlers drive.
type Deps struct {
	Timer      *focus.Timer
	Buffer     *chat.Buffer
	Summarizer *summarize.Service
	Workflow   *session.Workflow
	Archiver   *archive.Archiver
	// AudioPath is the rolling summary.mp3 served by /play.
	AudioPath string

	DefaultWorkMinutes  int
	DefaultBreakMinutes int

	// Readiness inputs
	DataDir          string
	RequiredBinaries []string
	Index            Pinger
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	Deps
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(d Deps) *Handlers {
	return &Handlers{Deps: d}
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// HandleTimerStart starts a work or break interval: ?mode=work|break&minutes=N.
// Without minutes the mode's default applies. Starting work clears chat.
func (h *Handlers) HandleTimerStart(w http.ResponseWriter, r *http.Request) {
	mode, err := focus.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	minutes := h.DefaultWorkMinutes
	if mode == focus.ModeBreak {
		minutes = h.DefaultBreakMinutes
	}
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > focus.MaxMinutes {
			writeMessage(w, http.StatusBadRequest, "minutes must be a whole number from 1 to "+strconv.Itoa(focus.MaxMinutes))
			return
		}
		minutes = n
	}

	if err := h.Timer.Start(time.Duration(minutes)*time.Minute, mode); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if mode == focus.ModeWork {
		h.Buffer.Clear()
	}
	telemetry.LoggerWithCorr(r.Context()).Info("interval started",
		slog.String("mode", string(mode)), slog.Int("minutes", minutes), slog.String("component", "http"))
	writeMessage(w, http.StatusOK, capitalize(string(mode))+" session started for "+strconv.Itoa(minutes)+" minutes.")
}

type statusResponse struct {
	Status   string `json:"status"`
	Mode     string `json:"mode,omitempty"`
	TimeLeft string `json:"time_left,omitempty"`
}

// HandleStatus reports whether an interval is running and how long is left.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.Timer.Status()
	if !st.Active {
		writeJSON(w, http.StatusOK, statusResponse{Status: "inactive"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:   "active",
		Mode:     string(st.Mode),
		TimeLeft: focus.FormatClock(st.Left),
	})
}

// HandleTimerEnd stops a running interval early and finalizes the session.
func (h *Handlers) HandleTimerEnd(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.Timer.Stop(); !ok {
		writeMessage(w, http.StatusOK, "No active timer.")
		return
	}
	if _, err := h.Workflow.Finalize(r.Context()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Error("finalize after early end failed", slog.Any("err", err), slog.String("component", "http"))
		writeMessage(w, http.StatusInternalServerError, "Timer ended, but finalize failed: "+err.Error())
		return
	}
	writeMessage(w, http.StatusOK, "Timer ended early and finalized.")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
