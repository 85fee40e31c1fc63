package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Context keys the workflow writes.
const (
	ctxKeyInitialText  = "initial_text"
	ctxKeyMissing      = "missing"
	ctxKeyMissingField = "missing_field"
	ctxKeyUserInput    = "user_input"
	ctxKeyResult       = "result"
)

// IntakeDecision is the outcome of the intake policy for a job's
// current context.
type IntakeDecision struct {
	// NeedInput pauses the job until the user supplies MissingField.
	NeedInput    bool
	MissingField string
	Prompt       string
}

// IntakePolicy decides, from the job context alone, whether intake can
// proceed or must pause for user input. It is a pure function; the
// workflow service owns all state changes.
type IntakePolicy func(jobContext map[string]any) IntakeDecision

// LicensePlatePolicy pauses intake until the context carries a license
// plate, either captured directly or supplied as user input on resume.
func LicensePlatePolicy(jobContext map[string]any) IntakeDecision {
	if _, ok := jobContext["license_plate"]; ok {
		return IntakeDecision{}
	}
	if _, ok := jobContext[ctxKeyUserInput]; ok {
		return IntakeDecision{}
	}
	return IntakeDecision{
		NeedInput:    true,
		MissingField: "license_plate",
		Prompt:       "Please provide license plate number",
	}
}

// WorkflowService drives claim-intake jobs through the state machine.
// PROCESSING is a real suspend point: completion is applied by worker
// goroutines fed from a queue, not inline in the request.
type WorkflowService struct {
	jobs        *JobService
	policy      IntakePolicy
	completions chan uuid.UUID
}

// NewWorkflowService creates a new workflow service. queueSize bounds
// the pending-completion queue.
func NewWorkflowService(jobs *JobService, policy IntakePolicy, queueSize int) *WorkflowService {
	if policy == nil {
		policy = LicensePlatePolicy
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &WorkflowService{
		jobs:        jobs,
		policy:      policy,
		completions: make(chan uuid.UUID, queueSize),
	}
}

// Run consumes the completion queue with the given number of workers
// until ctx is cancelled. It blocks; callers run it in a goroutine.
func (s *WorkflowService) Run(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	done := make(chan struct{})
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for {
				select {
				case <-ctx.Done():
					return
				case id := <-s.completions:
					s.complete(ctx, id)
				}
			}
		}()
	}
	for i := 0; i < workers; i++ {
		<-done
	}
}

// StartWorkflow begins claim intake for a session: the job is created
// in PENDING, moved to PROCESSING, and then the intake policy either
// pauses it in AWAITING_USER_INPUT with the missing-field prompt or
// hands it to the async completer.
func (s *WorkflowService) StartWorkflow(ctx context.Context, sessionID, initialText string) (*domain.Job, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput)
	}

	job, err := s.jobs.Create(ctx, sessionID, map[string]any{ctxKeyInitialText: initialText})
	if err != nil {
		return nil, err
	}

	job, err = s.jobs.Transition(ctx, job.ID, domain.JobStateProcessing, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin intake: %w", err)
	}

	decision := s.policy(job.Context)
	if decision.NeedInput {
		return s.jobs.Transition(ctx, job.ID, domain.JobStateAwaitingUserInput, map[string]any{
			ctxKeyMissing:      decision.Prompt,
			ctxKeyMissingField: decision.MissingField,
		})
	}

	s.enqueue(ctx, job.ID)
	return job, nil
}

// ResumeWorkflow feeds user input to a paused job: it transitions
// AWAITING_USER_INPUT -> PROCESSING with the input merged into context
// and queues the asynchronous completion. The returned job is in
// PROCESSING; clients observe COMPLETED through the job.update
// broadcast or by polling.
func (s *WorkflowService) ResumeWorkflow(ctx context.Context, jobID uuid.UUID, userInput string) (*domain.Job, error) {
	job, err := s.jobs.Transition(ctx, jobID, domain.JobStateProcessing, map[string]any{
		ctxKeyUserInput: userInput,
	})
	if err != nil {
		return nil, err
	}

	s.enqueue(ctx, job.ID)
	return job, nil
}

// enqueue hands a job to the completion workers. A full queue falls
// back to inline completion rather than dropping the signal.
func (s *WorkflowService) enqueue(ctx context.Context, id uuid.UUID) {
	select {
	case s.completions <- id:
	default:
		log.Warn().Str("job_id", id.String()).Msg("Completion queue full, completing inline")
		s.complete(ctx, id)
	}
}

// complete finishes a PROCESSING job with the result patch. A job that
// moved elsewhere in the meantime is left alone.
func (s *WorkflowService) complete(ctx context.Context, id uuid.UUID) {
	if _, err := s.jobs.Transition(ctx, id, domain.JobStateCompleted, map[string]any{
		ctxKeyResult: "updated with user input",
	}); err != nil {
		log.Error().Err(err).Str("job_id", id.String()).Msg("Failed to complete job")
	}
}
