package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/http/httputil"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	signupsResource  = "signups"
	articlesResource = "articles"
)

var validStatuses = map[string]bool{"draft": true, "pending": true, "public": true}

// Store represents an in-memory data store
type Store struct {
	data map[string]map[string]map[string]interface{}
	mu   sync.RWMutex
}

func newStore() *Store {
	return &Store{data: make(map[string]map[string]map[string]interface{})}
}

func (s *Store) put(resourceType, id string, record map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[resourceType]; !ok {
		s.data[resourceType] = make(map[string]map[string]interface{})
	}
	s.data[resourceType][id] = record
}

func (s *Store) get(resourceType, id string) (map[string]interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.data[resourceType][id]
	return record, ok
}

func (s *Store) list(resourceType string) []map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]map[string]interface{}, 0, len(s.data[resourceType]))
	for _, record := range s.data[resourceType] {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return fmt.Sprint(records[i]["created_at"]) < fmt.Sprint(records[j]["created_at"])
	})
	return records
}

func (s *Store) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]map[string]map[string]interface{})
}

// TestServer serves the pages the example workflows drive: a sign-up form
// and an article admin with a status workflow. Submissions can be read back
// as JSON under /api/.
type TestServer struct {
	store *Store
	mux   *http.ServeMux
	now   func() time.Time
}

// NewTestServer creates a new instance of TestServer
func NewTestServer() *TestServer {
	s := &TestServer{store: newStore(), mux: http.NewServeMux(), now: time.Now}
	s.mux.HandleFunc("/signup", s.handleSignup)
	s.mux.HandleFunc("/admin/articles/new", s.handleNewArticle)
	s.mux.HandleFunc("/admin/articles", s.handleCreateArticle)
	s.mux.HandleFunc("/admin/articles/", s.handleArticle)
	s.mux.HandleFunc("/api/", s.handleAPI)
	s.mux.HandleFunc("/_clear", s.handleClear)
	return s
}

func (s *TestServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logRequest(r)
	s.mux.ServeHTTP(w, r)
}

func (s *TestServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		render(w, signupPage, map[string]interface{}{"Submitted": r.URL.Query().Get("ok") == "1"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(r.PostForm.Get("email")) == "" {
			http.Error(w, "email is required", http.StatusUnprocessableEntity)
			return
		}
		record := s.newRecord()
		for _, field := range []string{"name", "email", "phone", "birthdate"} {
			record[field] = r.PostForm.Get(field)
		}
		s.store.put(signupsResource, record["id"].(string), record)
		http.Redirect(w, r, "/signup?ok=1", http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *TestServer) handleNewArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	render(w, newArticlePage, nil)
}

func (s *TestServer) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	title := strings.TrimSpace(r.PostForm.Get("title"))
	if title == "" {
		http.Error(w, "title is required", http.StatusUnprocessableEntity)
		return
	}

	record := s.newRecord()
	record["title"] = title
	record["body"] = r.PostForm.Get("body")
	record["status"] = "draft"
	id := record["id"].(string)
	s.store.put(articlesResource, id, record)
	http.Redirect(w, r, "/admin/articles/"+id, http.StatusSeeOther)
}

// handleArticle serves /admin/articles/{id} and /admin/articles/{id}/status.
func (s *TestServer) handleArticle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/admin/articles/"), "/"), "/")
	id := parts[0]
	article, ok := s.store.get(articlesResource, id)
	if !ok {
		http.Error(w, "resource not found", http.StatusNotFound)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		render(w, articlePage, article)
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		status := r.PostForm.Get("status")
		if !validStatuses[status] {
			http.Error(w, fmt.Sprintf("invalid status %q", status), http.StatusUnprocessableEntity)
			return
		}
		updated := make(map[string]interface{}, len(article))
		for k, v := range article {
			updated[k] = v
		}
		updated["status"] = status
		s.store.put(articlesResource, id, updated)
		http.Redirect(w, r, "/admin/articles/"+id, http.StatusSeeOther)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleAPI exposes stored records: GET /api/{type} and GET /api/{type}/{id}.
func (s *TestServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"), "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	var response interface{}
	if len(parts) == 1 {
		response = s.store.list(parts[0])
	} else {
		record, ok := s.store.get(parts[0], parts[1])
		if !ok {
			http.Error(w, "resource not found", http.StatusNotFound)
			return
		}
		response = record
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("❌ Error encoding response: %v", err)
	}
}

func (s *TestServer) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.store.clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *TestServer) newRecord() map[string]interface{} {
	return map[string]interface{}{
		"id":         uuid.NewString(),
		"created_at": s.now().UTC().Format(time.RFC3339Nano),
	}
}

func render(w http.ResponseWriter, page *template.Template, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		log.Printf("❌ Error rendering page: %v", err)
	}
}

func (s *TestServer) logRequest(r *http.Request) {
	dump, err := httputil.DumpRequest(r, true)
	if err != nil {
		log.Printf("❌ Error dumping request: %v", err)
		return
	}
	log.Printf("📥 Incoming Request:\n%s\n", string(dump))
}
