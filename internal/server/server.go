// Package server exposes generated feeds over HTTP: the feed documents of
// a single-feed output directory at the root, and per-feed subdirectories
// of a multi-feed run under /{feed}/.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	jsonFeedContentType = "application/feed+json; charset=utf-8"
	rssContentType      = "application/rss+xml; charset=utf-8"
)

// Server serves feed files from an output directory.
type Server struct {
	log *slog.Logger
	dir string
}

// New builds a server rooted at the given output directory.
func New(log *slog.Logger, dir string) *Server {
	return &Server{log: log, dir: dir}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/feed.json", s.serveFile("", "feed.json", jsonFeedContentType))
	r.Get("/feed.xml", s.serveFile("", "feed.xml", rssContentType))
	r.Get("/{feed}/feed.json", s.serveNamed("feed.json", jsonFeedContentType))
	r.Get("/{feed}/feed.xml", s.serveNamed("feed.xml", rssContentType))
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) serveFile(sub, name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.dir, sub, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				writeJSON(w, http.StatusNotFound, errorResponse{Error: "feed not found"})
				return
			}
			s.log.Error("read feed file", slog.String("path", path), slog.Any("err", err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			s.log.Debug("write response", slog.Any("err", err))
		}
	}
}

func (s *Server) serveNamed(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		feedName := chi.URLParam(r, "feed")
		if !validFeedName(feedName) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "feed not found"})
			return
		}
		s.serveFile(feedName, name, contentType)(w, r)
	}
}

// validFeedName rejects anything that could escape the output directory.
func validFeedName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
