// Package ui serves the assistant's web shell: a chat endpoint driving
// agent sessions plus read-only views of the mailbox and calendar.
package ui

import (
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/arodchenko/deskagent/pkg/agent"
	"github.com/arodchenko/deskagent/pkg/errmodel"
	"github.com/arodchenko/deskagent/pkg/providers/calendar"
	"github.com/arodchenko/deskagent/pkg/providers/mail"
	"github.com/arodchenko/deskagent/pkg/runtime"
	"github.com/arodchenko/deskagent/pkg/transcript"
)

//go:embed static
var staticFS embed.FS

// Server exposes the assistant over HTTP. Sessions are created lazily per
// session ID; each session's Run is serialized with its own lock.
type Server struct {
	cfg       *agent.Config
	steps     transcript.Store
	mailbox   *mail.Mailbox
	calendar  *calendar.Calendar
	showSteps bool
	sessOpts  []runtime.SessionOption

	mu       sync.Mutex
	sessions map[string]*sessionSlot
}

type sessionSlot struct {
	mu   sync.Mutex
	sess *runtime.Session
}

// Options carries the optional pieces of the server.
type Options struct {
	// Steps persists transcripts; nil means in-memory.
	Steps transcript.Store
	// Mailbox and Calendar enable the read-only state views when set.
	Mailbox  *mail.Mailbox
	Calendar *calendar.Calendar
	// ShowSteps includes the intermediate steps in chat responses.
	ShowSteps bool
	// SessionOptions apply to every session the server creates.
	SessionOptions []runtime.SessionOption
}

// NewServer builds the HTTP surface over a complete agent configuration.
func NewServer(cfg *agent.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errmodel.Validation("invalid_config", "server needs an agent configuration", nil)
	}
	steps := opts.Steps
	if steps == nil {
		steps = transcript.NewMemoryStore()
	}
	return &Server{
		cfg:       cfg,
		steps:     steps,
		mailbox:   opts.Mailbox,
		calendar:  opts.Calendar,
		showSteps: opts.ShowSteps,
		sessOpts:  opts.SessionOptions,
		sessions:  map[string]*sessionSlot{},
	}, nil
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/steps/{session}", s.handleSteps)
	mux.HandleFunc("GET /api/mailbox/threads", s.handleMailThreads)
	mux.HandleFunc("GET /api/mailbox/threads/{id}", s.handleMailThread)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFileFS(w, r, staticFS, "static/index.html")
	})
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	return otelhttp.NewHandler(mux, "ui")
}

// slot returns the session registered under id, or a fresh one. Only ids the
// server issued become map keys; an unknown caller-supplied id starts a new
// session rather than reserving an arbitrary key forever.
func (s *Server) slot(id string) (*sessionSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sl, ok := s.sessions[id]; ok {
		return sl, nil
	}
	sess, err := runtime.NewSession(s.cfg, s.steps, s.sessOpts...)
	if err != nil {
		return nil, err
	}
	sl := &sessionSlot{sess: sess}
	s.sessions[sess.ID] = sl
	return sl, nil
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string                  `json:"session_id"`
	Answer    string                  `json:"answer"`
	Steps     []transcript.StepRecord `json:"steps,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errmodel.WriteHTTP(w, r, errmodel.Validation("malformed_request", "request body must be JSON", nil))
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		errmodel.WriteHTTP(w, r, errmodel.Validation("empty_message", "message is required", nil))
		return
	}
	sl, err := s.slot(req.SessionID)
	if err != nil {
		errmodel.WriteHTTP(w, r, err)
		return
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()

	before, _ := s.steps.LastSeq(r.Context(), sl.sess.ID)
	res, err := sl.sess.Run(r.Context(), req.Message)
	if err != nil {
		errmodel.WriteHTTP(w, r, err)
		return
	}
	resp := chatResponse{SessionID: sl.sess.ID, Answer: res.Answer}
	if s.showSteps {
		resp.Steps, _ = sl.sess.Steps(r.Context(), before)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSteps(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session")
	s.mu.Lock()
	sl, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "unknown session", nil))
		return
	}
	steps, err := sl.sess.Steps(r.Context(), 0)
	if err != nil {
		errmodel.WriteHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sl.sess.ID, "steps": steps})
}

func (s *Server) handleMailThreads(w http.ResponseWriter, r *http.Request) {
	if s.mailbox == nil {
		errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "mailbox view is not enabled", nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"threads": s.mailbox.ListThreads(),
		"state":   s.mailbox.StateString(),
	})
}

func (s *Server) handleMailThread(w http.ResponseWriter, r *http.Request) {
	if s.mailbox == nil {
		errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "mailbox view is not enabled", nil))
		return
	}
	id := r.PathValue("id")
	full, lines := s.mailbox.ThreadEmailsAsString(id)
	if len(lines) == 0 {
		errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "unknown thread", nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thread_id": id,
		"subject":   s.mailbox.ThreadSubject(id),
		"content":   full,
	})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if s.calendar == nil {
		errmodel.WriteHTTP(w, r, errmodel.Validation("not_found", "calendar view is not enabled", nil))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"meetings": s.calendar.Meetings(),
		"state":    s.calendar.StateString(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
