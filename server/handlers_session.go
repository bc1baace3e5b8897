package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/onnwee/stream-recap/archive"
	"github.com/onnwee/stream-recap/session"
	"github.com/onnwee/stream-recap/telemetry"
)

// HandleSummary summarizes recent chat. Failures come back as summary text.
func (h *Handlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"summary": h.Summarizer.Summarize(r.Context())})
}

// HandleSpeak reads the cached summary aloud without saving a session.
func (h *Handlers) HandleSpeak(w http.ResponseWriter, r *http.Request) {
	_, err := h.Workflow.Speak(r.Context())
	switch {
	case errors.Is(err, archive.ErrNoSummary):
		writeMessage(w, http.StatusNotFound, "No summary available to speak.")
	case err != nil:
		telemetry.LoggerWithCorr(r.Context()).Error("speak failed", slog.Any("err", err), slog.String("component", "http"))
		writeMessage(w, http.StatusInternalServerError, "Speech synthesis failed: "+err.Error())
	default:
		writeMessage(w, http.StatusOK, "Summary spoken (but not saved).")
	}
}

// HandleFinalize runs the finalize workflow.
func (h *Handlers) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	res, err := h.Workflow.Finalize(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Finalize failed: "+err.Error())
		return
	}
	if res.Outcome == session.OutcomeNothing {
		writeMessage(w, http.StatusNotFound, res.Message())
		return
	}
	writeMessage(w, http.StatusOK, res.Message())
}

// HandlePlay serves the most recent summary audio.
func (h *Handlers) HandlePlay(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.AudioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeMessage(w, http.StatusNotFound, "No summary audio available.")
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, archive.AudioFile, info.ModTime(), f)
}

// HandleClear empties the chat buffer.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Buffer.Clear()
	writeMessage(w, http.StatusOK, "Chat log cleared.")
}

type chatLineRequest struct {
	Author string `json:"author"`
	Text   string `json:"text"`
}

// HandleChatAppend adds one line to the buffer, for trying prompts and voices
// without a live channel.
func (h *Handlers) HandleChatAppend(w http.ResponseWriter, r *http.Request) {
	var req chatLineRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Author, req.Text = strings.TrimSpace(req.Author), strings.TrimSpace(req.Text)
	if req.Author == "" || req.Text == "" {
		writeMessage(w, http.StatusBadRequest, "author and text are required")
		return
	}
	h.Buffer.Append(req.Author, req.Text)
	writeMessage(w, http.StatusCreated, "Chat line added.")
}

type historyEntry struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// HandleHistoryList lists archived sessions, newest first.
func (h *Handlers) HandleHistoryList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Archiver.List()
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	list := make([]historyEntry, 0, len(ids))
	for _, id := range ids {
		list = append(list, historyEntry{ID: id, Path: "/history/" + id})
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleHistoryGet returns one archived summary.
func (h *Handlers) HandleHistoryGet(w http.ResponseWriter, r *http.Request) {
	text, err := h.Archiver.Summary(r.PathValue("id"))
	if errors.Is(err, archive.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"summary": "Summary not found."})
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": text})
}
