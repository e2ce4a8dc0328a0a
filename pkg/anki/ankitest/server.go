// Package ankitest provides an in-process fake AnkiConnect server for tests.
package ankitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Call is one request received by the fake.
type Call struct {
	Action  string
	Version int
	Params  json.RawMessage
}

// Handler answers one action. It returns the result, or a non-empty error
// message to send back in the error field.
type Handler func(params json.RawMessage) (result interface{}, errMsg string)

// Server is a fake AnkiConnect endpoint.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	calls    []Call
	handlers map[string]Handler
}

// NewServer starts a fake with no actions registered. Unknown actions get
// an "unsupported action" error, as AnkiConnect does.
func NewServer() *Server {
	s := &Server{handlers: map[string]Handler{}}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// Handle registers h for action.
func (s *Server) Handle(action string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[action] = h
}

// Result registers a fixed result for action.
func (s *Server) Result(action string, result interface{}) {
	s.Handle(action, func(json.RawMessage) (interface{}, string) { return result, "" })
}

// Fail registers a fixed error message for action.
func (s *Server) Fail(action, msg string) {
	s.Handle(action, func(json.RawMessage) (interface{}, string) { return nil, msg })
}

// Calls returns the requests received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string          `json:"action"`
		Version int             `json:"version"`
		Params  json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls = append(s.calls, Call{Action: req.Action, Version: req.Version, Params: req.Params})
	h, ok := s.handlers[req.Action]
	s.mu.Unlock()

	resp := map[string]interface{}{"result": nil, "error": nil}
	if !ok {
		resp["error"] = "unsupported action"
	} else if result, msg := h(req.Params); msg != "" {
		resp["error"] = msg
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
