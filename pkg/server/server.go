// Package server provides a small local HTTP server for previewing
// generated viewer pages and their sprite assets in a browser.
package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
)

// Server serves the viewer pages found in a directory.
type Server struct {
	dir  string
	addr string
	http *http.Server
}

// New creates a preview server for the HTML pages and sprite files in dir.
func New(dir, addr string) *Server {
	s := &Server{dir: dir, addr: addr}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/view/{name}", s.handleView).Methods("GET")
	r.PathPrefix("/assets/").Handler(
		http.StripPrefix("/assets/", http.FileServer(http.Dir(dir))))

	s.http = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until the context is canceled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("preview server failed: %v", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// pages lists the HTML files available in the served directory.
func (s *Server) pages() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".html") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>brainsprite viewers</title></head>
<body>
  <h1>Generated viewers</h1>
  {{if .}}
  <ul>
    {{range .}}<li><a href="/view/{{.}}">{{.}}</a></li>
    {{end}}
  </ul>
  {{else}}
  <p>No viewer pages found.</p>
  {{end}}
</body>
</html>
`))

// handleIndex lists the available viewer pages.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	names, err := s.pages()
	if err != nil {
		http.Error(w, "failed to list viewers", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, names); err != nil {
		http.Error(w, "failed to render index", http.StatusInternalServerError)
	}
}

// handleView serves a viewer page or one of its sprite files. Sprite
// references in file mode are relative to the page, so they resolve to
// this same route.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name != filepath.Base(name) {
		http.NotFound(w, r)
		return
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
