// Package dispatchtest provides a scripted stand-in for the task
// decomposition service.
package dispatchtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Reply is one canned response. Replies are served in order; the last one
// repeats once the script runs out.
type Reply struct {
	Status int
	Body   string
}

// JSON builds a 200 reply with v encoded as the body.
func JSON(v any) Reply {
	buf, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Status: http.StatusOK, Body: string(buf)}
}

// Failure builds an error reply with a plain-text body.
func Failure(status int, body string) Reply {
	return Reply{Status: status, Body: body}
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []Reply
	requests []string
	hold     chan struct{}
}

func New(replies ...Reply) *Server {
	s := &Server{replies: replies}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	s.Server = httptest.NewServer(r)
	return s
}

// Hold makes every chat request wait until the returned function is called.
func (s *Server) Hold() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Requests returns the message field of every chat request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.requests...)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, req.Message)
	reply := Reply{Status: http.StatusOK, Body: `{"chat_response":"done"}`}
	if len(s.replies) > 0 {
		reply = s.replies[0]
		if len(s.replies) > 1 {
			s.replies = s.replies[1:]
		}
	}
	hold := s.hold
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	_, _ = io.WriteString(w, reply.Body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
