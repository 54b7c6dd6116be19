package mocksendgrid

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

// Message records an accepted mail send.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
}

// Server implements a minimal SendGrid-like /v3/mail/send endpoint.
type Server struct {
	mu       sync.Mutex
	calls    []Call
	messages []Message

	expectedAuthorization string

	// failNext requests are answered with failStatus.
	failNext   int
	failStatus int

	// dropNext requests have their connection closed without a response.
	dropNext int
}

// New constructs a new mock server.
func New() *Server {
	return &Server{}
}

// RequireBearerToken enforces that requests include an Authorization header matching the key.
// If key is empty, authorization is not enforced.
func (s *Server) RequireBearerToken(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = strings.TrimSpace(key)
	if key == "" {
		s.expectedAuthorization = ""
		return
	}
	s.expectedAuthorization = "Bearer " + key
}

// FailNext answers the next n send requests with status.
func (s *Server) FailNext(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failStatus = status
}

// DropNext closes the connection of the next n send requests without writing
// a response.
func (s *Server) DropNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropNext = n
}

// Handler returns an http.Handler that serves the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/mail/send", s.handleSend)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Messages returns a snapshot of accepted messages.
func (s *Server) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.mu.Lock()
	expected := s.expectedAuthorization
	s.mu.Unlock()

	if expected == "" {
		return true
	}
	if r.Header.Get("Authorization") != expected {
		writeErrors(w, http.StatusUnauthorized, "The provided authorization grant is invalid, expired, or revoked")
		return false
	}
	return true
}

// takeScripted consumes one scripted drop or failure, drop first.
func (s *Server) takeScripted() (drop bool, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropNext > 0 {
		s.dropNext--
		return true, 0
	}
	if s.failNext > 0 {
		s.failNext--
		return false, s.failStatus
	}
	return false, 0
}

type mailRequest struct {
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Subject string `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}

	drop, status := s.takeScripted()
	if drop {
		hj, ok := w.(http.Hijacker)
		if !ok {
			http.Error(w, "hijacking not supported", http.StatusInternalServerError)
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}
	if status != 0 {
		writeErrors(w, status, "scripted failure")
		return
	}

	var req mailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrors(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	msg := Message{From: strings.TrimSpace(req.From.Email), Subject: req.Subject}
	for _, p := range req.Personalizations {
		for _, to := range p.To {
			if e := strings.TrimSpace(to.Email); e != "" {
				msg.To = append(msg.To, e)
			}
		}
	}
	for _, c := range req.Content {
		if c.Type == "text/plain" {
			msg.Text = c.Value
		}
	}
	switch {
	case len(msg.To) == 0:
		writeErrors(w, http.StatusBadRequest, "personalizations.to is required")
		return
	case msg.From == "":
		writeErrors(w, http.StatusBadRequest, "from.email is required")
		return
	case msg.Text == "":
		writeErrors(w, http.StatusBadRequest, "content is required")
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	w.WriteHeader(http.StatusAccepted)
}

func writeErrors(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errors": []map[string]string{{"message": message}},
	})
}
