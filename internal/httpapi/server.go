package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"studydesk/internal/infer"
	"studydesk/internal/task"
)

// Repository stores tasks per owner.
type Repository interface {
	List(ctx context.Context, owner string, q task.Query) ([]task.Task, error)
	Get(ctx context.Context, owner, id string) (task.Task, error)
	Create(ctx context.Context, owner string, d task.Draft) (task.Task, error)
	Update(ctx context.Context, owner, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, owner, id string) error
	Ping(ctx context.Context) error
}

type Options struct {
	// JWTSecret enables bearer-token auth. Empty serves every request as AnonymousUser.
	JWTSecret     string
	AnonymousUser string
	CORSOrigin    string
	Logger        logrus.FieldLogger
}

type Server struct {
	repo      Repository
	log       logrus.FieldLogger
	secret    string
	anonymous string
	handler   http.Handler
}

func NewServer(repo Repository, opts Options) *Server {
	s := &Server{
		repo:      repo,
		log:       opts.Logger,
		secret:    opts.JWTSecret,
		anonymous: opts.AnonymousUser,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.anonymous == "" {
		s.anonymous = "local"
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.handleGetTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", s.handleUpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", s.handleDeleteTask).Methods(http.MethodDelete)
	api.HandleFunc("/ai/generate-description", s.handleGenerateDescription).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.handler = withRequestID(accessLog(s.log)(cors(opts.CORSOrigin)(r)))
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("storage not ready")
		writeError(w, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tasks, err := s.repo.List(r.Context(), ownerFrom(r.Context()), q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var d task.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := s.repo.Create(r.Context(), ownerFrom(r.Context()), d)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.repo.Get(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var p task.Patch
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := s.repo.Update(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"], p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), ownerFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type describeRequest struct {
	Title string `json:"title"`
}

type describeResponse struct {
	Description string `json:"description"`
}

func (s *Server) handleGenerateDescription(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, task.ErrEmptyTitle.Error())
		return
	}
	writeJSON(w, http.StatusOK, describeResponse{Description: infer.Describe(req.Title)})
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithField("rid", RequestIDFromContext(r.Context())).Error("request failed")
	}
	writeError(w, status, msg)
}
