package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dockhand/dockhand/internal/jobs"
	"github.com/dockhand/dockhand/internal/limits"
)

// Request/Response types

type operationRequest struct {
	Name string `json:"name"`
}

type operationResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"job_id"`
}

type bulkOperationResponse struct {
	OK   bool              `json:"ok"`
	Jobs []jobs.Submission `json:"jobs"`
}

type jobResponse struct {
	OK  bool      `json:"ok"`
	Job *jobs.Job `json:"job"`
}

// Handler methods

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, jobs.ActionStart)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.handleOperation(w, r, jobs.ActionStop)
}

// handleOperation submits one job for a named service. The response carries
// only the job id; callers poll /api/job/{id} until a terminal status.
func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request, action jobs.Action) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()

	var req operationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limits.JSON))
	if err := dec.Decode(&req); err != nil {
		writeError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		writeError(w, "name is required", http.StatusBadRequest)
		return
	}

	svc, ok := s.table.Lookup(req.Name)
	if !ok {
		writeError(w, "service not found", http.StatusNotFound)
		return
	}

	jobID := s.submitter.Submit(svc, action)
	writeJSON(w, operationResponse{OK: true, JobID: jobID}, http.StatusOK)
}

func (s *Server) handleStartAll(w http.ResponseWriter, r *http.Request) {
	s.handleBulkOperation(w, r, jobs.ActionStart)
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	s.handleBulkOperation(w, r, jobs.ActionStop)
}

func (s *Server) handleBulkOperation(w http.ResponseWriter, r *http.Request, action jobs.Action) {
	if r.Method != http.MethodPost {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	subs := s.submitter.SubmitAll(action)
	writeJSON(w, bulkOperationResponse{OK: true, Jobs: subs}, http.StatusOK)
}

// handleJob serves GET /api/job/{id}. An unknown id, malformed or otherwise,
// is a normal not-found response; clients poll this after restarts.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/job/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, "job not found", http.StatusNotFound)
		return
	}

	job, ok := s.registry.Get(id)
	if !ok {
		writeError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, jobResponse{OK: true, Job: &job}, http.StatusOK)
}
