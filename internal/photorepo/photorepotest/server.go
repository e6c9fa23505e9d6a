// Package photorepotest provides an in-memory stand-in for the parts of
// the GitHub REST API that photorepo uses.
package photorepotest

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
)

// Server is a fake GitHub API holding repositories in memory.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	repos map[string]map[string][]byte // repo -> file path -> content

	// FailUploads lists file names whose upload answers 500.
	FailUploads map[string]bool
	// Token, when set, is required as a bearer token.
	Token string

	branches []string
}

// NewServer starts a fake API. Close it when done.
func NewServer() *Server {
	s := &Server{
		repos:       make(map[string]map[string][]byte),
		FailUploads: make(map[string]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/repos", s.createRepo)
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", s.getContents)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", s.putContents)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/contents/{path...}", s.deleteContents)
	s.Server = httptest.NewServer(s.auth(mux))
	return s
}

// APIURL returns the base URL to hand to photorepo.
func (s *Server) APIURL() string {
	return s.Server.URL + "/"
}

// Put seeds a file.
func (s *Server) Put(repo, filePath string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo(repo)[filePath] = content
}

// Files lists the file names directly under dir, sorted.
func (s *Server) Files(repo, dir string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for p := range s.repos[repo] {
		if path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

// Content returns a stored file.
func (s *Server) Content(repo, filePath string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.repos[repo][filePath]
	return data, ok
}

// HasRepo reports whether repo was created or seeded.
func (s *Server) HasRepo(repo string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.repos[repo]
	return ok
}

// Branches returns the branch field of every write, in order. Writes
// without a branch record "".
func (s *Server) Branches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.branches...)
}

// SHA is the fake blob sha of content.
func SHA(content []byte) string {
	sum := sha1.Sum(content)
	return hex.EncodeToString(sum[:])
}

func (s *Server) repo(name string) map[string][]byte {
	r, ok := s.repos[name]
	if !ok {
		r = make(map[string][]byte)
		s.repos[name] = r
	}
	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) createRepo(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.repos[body.Name]; ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": "Repository creation failed."})
		return
	}
	s.repos[body.Name] = make(map[string][]byte)
	writeJSON(w, http.StatusCreated, map[string]any{"name": body.Name})
}

func (s *Server) getContents(w http.ResponseWriter, r *http.Request) {
	repo, dir := r.PathValue("repo"), strings.TrimSuffix(r.PathValue("path"), "/")

	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.repos[repo]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	entries := []map[string]any{}
	seenDirs := map[string]bool{}
	for p, content := range files {
		switch {
		case path.Dir(p) == dir:
			entries = append(entries, map[string]any{
				"type": "file", "name": path.Base(p), "path": p, "sha": SHA(content), "size": len(content),
			})
		case strings.HasPrefix(p, dir+"/"):
			sub := strings.SplitN(strings.TrimPrefix(p, dir+"/"), "/", 2)[0]
			if !seenDirs[sub] {
				seenDirs[sub] = true
				entries = append(entries, map[string]any{"type": "dir", "name": sub, "path": dir + "/" + sub})
			}
		}
	}
	if len(entries) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) putContents(w http.ResponseWriter, r *http.Request) {
	repo, filePath := r.PathValue("repo"), r.PathValue("path")
	var body struct {
		Message string `json:"message"`
		Content []byte `json:"content"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches = append(s.branches, body.Branch)
	if s.FailUploads[path.Base(filePath)] {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		return
	}
	files, ok := s.repos[repo]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if _, exists := files[filePath]; exists {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": `"sha" wasn't supplied.`})
		return
	}
	files[filePath] = body.Content
	writeJSON(w, http.StatusCreated, map[string]any{
		"content": map[string]any{"name": path.Base(filePath), "path": filePath, "sha": SHA(body.Content)},
	})
}

func (s *Server) deleteContents(w http.ResponseWriter, r *http.Request) {
	repo, filePath := r.PathValue("repo"), r.PathValue("path")
	var body struct {
		Message string `json:"message"`
		SHA     string `json:"sha"`
		Branch  string `json:"branch"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches = append(s.branches, body.Branch)
	content, ok := s.repos[repo][filePath]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}
	if body.SHA != SHA(content) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": fmt.Sprintf("%s does not match", filePath)})
		return
	}
	delete(s.repos[repo], filePath)
	writeJSON(w, http.StatusOK, map[string]any{"content": nil, "commit": map[string]any{"sha": "deadbeef"}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
