package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"markestedt/cliphoard/hotkey"
	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/snippet"
)

const dispatchTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps controller errors to HTTP status codes
func statusFor(err error) int {
	var herr *hotkey.Error
	var parseErr *snippet.ParseError
	switch {
	case errors.Is(err, intent.ErrInvalid), errors.As(err, &parseErr):
		return http.StatusBadRequest
	case errors.As(err, &herr):
		return http.StatusConflict
	case errors.Is(err, intent.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// dispatch runs in and replies with the resulting state, or the error and
// the state it left behind
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, in intent.Intent) {
	ctx, cancel := context.WithTimeout(r.Context(), dispatchTimeout)
	defer cancel()

	state, err := s.dispatcher.Dispatch(ctx, in)
	if err != nil {
		slog.Warn("Dashboard request failed", "intent", in.Kind, "error", err)
		writeJSON(w, statusFor(err), map[string]interface{}{
			"error": err.Error(),
			"state": state,
		})
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// decodeOptional accepts an empty body
func decodeOptional(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, intent.Intent{Kind: intent.Snapshot})
}

func (s *Server) handleAddSnippet(w http.ResponseWriter, r *http.Request) {
	var req snippet.Snippet
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.AddSnippet, Snippet: req})
}

// handleReplaceSnippets takes the whole list, in the serialized form
func (s *Server) handleReplaceSnippets(w http.ResponseWriter, r *http.Request) {
	var req []snippet.Snippet
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.ReplaceSnippets, Snippets: req})
}

func (s *Server) handleRemoveSnippet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.RemoveSnippet, Index: index})
}

func (s *Server) handleCopySnippet(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}

	// The body is optional; without it the auto-paste setting applies
	var req struct {
		Paste *bool `json:"paste"`
	}
	if !decodeOptional(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.SelectSnippet, Index: index, Paste: req.Paste})
}

func (s *Server) handleNewList(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, intent.Intent{Kind: intent.NewList})
}

type pathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleOpenList(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.OpenFile, Path: req.Path})
}

func (s *Server) handleSaveList(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !decode(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.SaveFile, Path: req.Path})
}

// handleSetHotkey accepts either {"combo": "Ctrl+Alt+H"} or the separate
// modifier flags and key
func (s *Server) handleSetHotkey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Combo string `json:"combo"`
		hotkey.Combination
	}
	if !decode(w, r, &req) {
		return
	}

	combo := req.Combination
	if req.Combo != "" {
		parsed, err := hotkey.ParseCombination(req.Combo)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		combo = parsed
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.SetHotkey, Hotkey: combo})
}

// handleSetOption sets {"value": bool}, or flips the option without a body
func (s *Server) handleSetOption(w http.ResponseWriter, r *http.Request) {
	opt, err := intent.ParseOption(chi.URLParam(r, "name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var req struct {
		Value *bool `json:"value"`
	}
	if !decodeOptional(w, r, &req) {
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.ToggleOption, Option: opt, Value: req.Value})
}

func (s *Server) handleSetPasteDelay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ms *int `json:"ms"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Ms == nil {
		http.Error(w, "ms is required", http.StatusBadRequest)
		return
	}
	s.dispatch(w, r, intent.Intent{Kind: intent.SetPasteDelay, Delay: time.Duration(*req.Ms) * time.Millisecond})
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, intent.Intent{Kind: intent.SaveSettings})
}

func (s *Server) handlePopupSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Index *int `json:"index"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Index == nil {
		http.Error(w, "index is required", http.StatusBadRequest)
		return
	}

	if err := s.popups.Select(chi.URLParam(r, "id"), *req.Index); err != nil {
		writePopupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handlePopupDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.popups.Dismiss(chi.URLParam(r, "id")); err != nil {
		writePopupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func writePopupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, popup.ErrStale):
		http.Error(w, err.Error(), http.StatusGone)
	case errors.Is(err, popup.ErrIndex):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// handleStats returns statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "Usage storage is disabled", http.StatusServiceUnavailable)
		return
	}

	days := queryInt(r, "days", 7, 1)

	overall, err := s.db.GetOverallStats(days)
	if err != nil {
		slog.Error("Failed to get overall stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	daily, err := s.db.GetDailyStats(days)
	if err != nil {
		slog.Error("Failed to get daily stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	titles, err := s.db.GetTitleStats(days, 10)
	if err != nil {
		slog.Error("Failed to get title stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"overall": overall,
		"daily":   daily,
		"titles":  titles,
	})
}

// handleGetHistory returns the paginated copy log
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "Usage storage is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := queryInt(r, "limit", 50, 1)
	offset := queryInt(r, "offset", 0, 0)

	copies, err := s.db.GetCopies(limit, offset)
	if err != nil {
		slog.Error("Failed to get copies", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetCopyCount()
	if err != nil {
		slog.Error("Failed to get copy count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"copies": copies,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleDeleteHistory clears the copy log
func (s *Server) handleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		http.Error(w, "Usage storage is disabled", http.StatusServiceUnavailable)
		return
	}

	if err := s.db.ClearCopies(); err != nil {
		slog.Error("Failed to clear history", "error", err)
		http.Error(w, "Failed to clear history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, intent.Intent{Kind: intent.Exit})
}

// queryInt reads a query parameter, falling back to def when absent or
// below floor
func queryInt(r *http.Request, name string, def, floor int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < floor {
		return def
	}
	return n
}
