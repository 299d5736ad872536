package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aretw0/orocos/internal/logging"
	"github.com/aretw0/orocos/pkg/domain"
	"github.com/aretw0/orocos/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TaskHost is the set of tasks a Server exposes. *memory.Transport
// implements it.
type TaskHost interface {
	Task(name string) (ports.RemoteTask, bool)
	Names() []string
}

// Server serves the tasks of a TaskHost.
type Server struct {
	host   TaskHost
	logger *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRouter returns a chi router serving host. Callers may mount extra
// routes on it (e.g. /metrics).
func NewRouter(host TaskHost, opts ...ServerOption) chi.Router {
	s := &Server{host: host, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.health)
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Route("/{task}", func(r chi.Router) {
			r.Get("/", s.taskInfo)
			r.Get("/state", s.state)
			r.Post("/transitions/{transition}", s.transition)

			r.Get("/ports", s.ports)
			r.Get("/ports/{port}", s.port)
			r.Get("/ports/{port}/sample", s.readPort)
			r.Put("/ports/{port}/sample", s.writePort)

			r.Get("/attributes", s.attributes)
			r.Get("/attributes/{attribute}", s.attribute)
			r.Get("/attributes/{attribute}/value", s.readAttribute)
			r.Put("/attributes/{attribute}/value", s.writeAttribute)
			r.Get("/attributes/{attribute}/string", s.readAttributeString)
			r.Put("/attributes/{attribute}/string", s.writeAttributeString)

			r.Get("/operations", s.operations)
			r.Post("/operations/{operation}", s.callOperation)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("task call failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		s.logger.Debug("task call rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

// urlParam returns the decoded URL parameter key. chi matches on the raw
// path when the request carries escaped characters, e.g. "pose%2Fout".
func urlParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

// task resolves the {task} URL parameter, answering 404 itself on failure.
func (s *Server) task(w http.ResponseWriter, r *http.Request) (ports.RemoteTask, bool) {
	name := urlParam(r, "task")
	t, ok := s.host.Task(name)
	if !ok {
		s.fail(w, r, &domain.NotFoundError{Kind: "task", Name: name})
		return nil, false
	}
	return t, true
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.host.Names())
}

func (s *Server) taskInfo(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	model, err := t.ModelName(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, taskInfo{Name: t.Name(), Model: model})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	state, err := t.State(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stateBody{State: state.String()})
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	tr, err := domain.ParseTransition(urlParam(r, "transition"))
	if err != nil {
		s.fail(w, r, &domain.NotFoundError{Kind: "transition", Name: urlParam(r, "transition"), Err: err})
		return
	}

	var fn func() (bool, error)
	switch tr {
	case domain.TransitionConfigure:
		fn = func() (bool, error) { return t.Configure(r.Context()) }
	case domain.TransitionStart:
		fn = func() (bool, error) { return t.Start(r.Context()) }
	case domain.TransitionStop:
		fn = func() (bool, error) { return t.Stop(r.Context()) }
	case domain.TransitionCleanup:
		fn = func() (bool, error) { return t.Cleanup(r.Context()) }
	}
	done, err := fn()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionBody{OK: done})
}

func (s *Server) ports(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	infos, err := t.Ports(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) port(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	info, err := t.Port(r.Context(), urlParam(r, "port"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) readPort(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	v, has, err := t.ReadPort(r.Context(), urlParam(r, "port"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sampleBody{Value: v, OK: has})
}

func (s *Server) writePort(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	var body valueBody
	if !s.decode(w, r, &body) {
		return
	}
	if err := t.WritePort(r.Context(), urlParam(r, "port"), body.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) attributes(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	infos, err := t.Attributes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) attribute(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	info, err := t.Attribute(r.Context(), urlParam(r, "attribute"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) readAttribute(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	v, err := t.ReadAttribute(r.Context(), urlParam(r, "attribute"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valueBody{Value: v})
}

func (s *Server) writeAttribute(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	var body valueBody
	if !s.decode(w, r, &body) {
		return
	}
	if err := t.WriteAttribute(r.Context(), urlParam(r, "attribute"), body.Value); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) readAttributeString(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	v, err := t.ReadAttributeString(r.Context(), urlParam(r, "attribute"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stringBody{Value: v})
}

func (s *Server) writeAttributeString(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	var body stringBody
	if !s.decode(w, r, &body) {
		return
	}
	err := t.WriteAttributeString(r.Context(), urlParam(r, "attribute"), body.Value)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) operations(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	infos, err := t.Operations(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) callOperation(w http.ResponseWriter, r *http.Request) {
	t, ok := s.task(w, r)
	if !ok {
		return
	}
	var body callBody
	if !s.decode(w, r, &body) {
		return
	}
	v, err := t.CallOperation(r.Context(), urlParam(r, "operation"), body.Args)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, valueBody{Value: v})
}
