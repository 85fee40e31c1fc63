package handler

import (
	"encoding/json"
	"net/http"

	"github.com/claimstack/claims-chat/internal/api/response"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WorkflowHandler handles job and workflow endpoints.
type WorkflowHandler struct {
	workflows *service.WorkflowService
	jobs      *service.JobService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(workflows *service.WorkflowService, jobs *service.JobService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows, jobs: jobs}
}

// StartWorkflowRequest begins claim intake for a session.
type StartWorkflowRequest struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
	Text      string `json:"text" validate:"required"`
}

// Start creates an intake job for the session.
func (h *WorkflowHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	job, err := h.workflows.StartWorkflow(r.Context(), req.SessionID, req.Text)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.Created(w, job)
}

// ResumeJobRequest supplies the user input a paused job is waiting on.
type ResumeJobRequest struct {
	UserInput string `json:"user_input" validate:"required"`
}

// Resume feeds user input to a paused job.
func (h *WorkflowHandler) Resume(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.BadRequest(w, "invalid job ID")
		return
	}

	var req ResumeJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, validationErrors(err))
		return
	}

	job, err := h.workflows.ResumeWorkflow(r.Context(), jobID, req.UserInput)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, job)
}

// Get returns a job by id.
func (h *WorkflowHandler) Get(w http.ResponseWriter, r *http.Request) {
	jobID, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		response.BadRequest(w, "invalid job ID")
		return
	}

	job, err := h.jobs.Get(r.Context(), jobID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	response.OK(w, job)
}
