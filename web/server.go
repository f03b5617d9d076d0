// Package web serves the local dashboard: a REST API over the controller's
// intents, a websocket feed of state and popups, and the static page.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"markestedt/cliphoard/intent"
	"markestedt/cliphoard/popup"
	"markestedt/cliphoard/storage"
)

//go:embed static/*
var staticFiles embed.FS

// ErrNoDashboard is returned by Show when no dashboard is connected to
// display the popup
var ErrNoDashboard = errors.New("no dashboard connected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return isLocalOrigin(r)
	},
}

// Server represents the web server
type Server struct {
	dispatcher intent.Dispatcher
	popups     *popup.Host
	db         *storage.DB
	port       int
	hub        *Hub

	mu    sync.RWMutex
	state *intent.State
	live  *popup.Popup
}

// NewServer creates a new web server. db may be nil when usage storage is
// disabled.
func NewServer(dispatcher intent.Dispatcher, popups *popup.Host, db *storage.DB, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		dispatcher: dispatcher,
		popups:     popups,
		db:         db,
		port:       port,
		hub:        hub,
	}
}

// URL is the dashboard address
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(localOnly)
		r.Use(middleware.AllowContentType("application/json"))

		r.Get("/state", s.handleState)

		r.Post("/snippets", s.handleAddSnippet)
		r.Put("/snippets", s.handleReplaceSnippets)
		r.Delete("/snippets/{index}", s.handleRemoveSnippet)
		r.Post("/snippets/{index}/copy", s.handleCopySnippet)

		r.Post("/list/new", s.handleNewList)
		r.Post("/list/open", s.handleOpenList)
		r.Post("/list/save", s.handleSaveList)

		r.Put("/hotkey", s.handleSetHotkey)
		r.Put("/options/{name}", s.handleSetOption)
		r.Put("/paste-delay", s.handleSetPasteDelay)
		r.Post("/settings/save", s.handleSaveSettings)

		r.Post("/popup/{id}/select", s.handlePopupSelect)
		r.Post("/popup/{id}/dismiss", s.handlePopupDismiss)

		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleGetHistory)
		r.Delete("/history", s.handleDeleteHistory)

		r.Post("/exit", s.handleExit)
	})

	r.Get("/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// embed guarantees the directory exists
		panic(err)
	}
	r.Get("/", serveFile(staticFS, "index.html"))

	return r
}

// Start serves on localhost until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
	}

	slog.Info("Starting web server", "port", s.port, "url", s.URL())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		s.hub.Stop()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	return nil
}

// StateChanged pushes s to every dashboard
func (s *Server) StateChanged(st intent.State) {
	s.mu.Lock()
	s.state = &st
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{Type: MessageTypeState, Data: st})
}

// Notify pushes n to every dashboard
func (s *Server) Notify(n intent.Notice) {
	s.hub.BroadcastMessage(Message{Type: MessageTypeNotice, Data: n})
}

// Show displays p in the connected dashboards
func (s *Server) Show(p popup.Popup) error {
	if s.hub.Clients() == 0 {
		return fmt.Errorf("%w: open %s", ErrNoDashboard, s.URL())
	}

	s.mu.Lock()
	s.live = &p
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{Type: MessageTypePopup, Data: p})
	return nil
}

// Close removes popup id from the dashboards
func (s *Server) Close(id string) {
	s.mu.Lock()
	if s.live != nil && s.live.ID == id {
		s.live = nil
	}
	s.mu.Unlock()

	s.hub.BroadcastMessage(Message{Type: MessageTypePopupClosed, Data: PopupClosedMessage{ID: id}})
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	// New dashboards start from the latest state and live popup
	s.mu.RLock()
	state, live := s.state, s.live
	s.mu.RUnlock()
	if state != nil {
		queue(client, Message{Type: MessageTypeState, Data: *state})
	}
	if live != nil {
		queue(client, Message{Type: MessageTypePopup, Data: *live})
	}

	select {
	case client.hub.register <- client:
	case <-client.hub.quit:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

func queue(c *Client, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.send <- data
}

// requestLogger logs each request with slog
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// localOnly rejects requests made by pages from other sites
func localOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isLocalOrigin(r) || r.Header.Get("Sec-Fetch-Site") == "cross-site" {
			slog.Warn("Rejected cross-site request",
				"method", r.Method,
				"path", r.URL.Path,
				"origin", r.Header.Get("Origin"),
			)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// serveFile returns a handler that reads a single file from fsys and sends it.
func serveFile(fsys fs.FS, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

// isLocalOrigin accepts same-host pages and clients that send no Origin
func isLocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if origin == "http://"+r.Host {
		return true
	}
	return strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")
}
