package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claimstack/claims-chat/internal/api/handler"
	"github.com/claimstack/claims-chat/internal/domain"
	"github.com/claimstack/claims-chat/internal/repository/memory"
	"github.com/claimstack/claims-chat/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, true, response["success"])

	data, ok := response["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

// pingerFunc adapts a function to the Pinger interface.
type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadyCheck(t *testing.T) {
	t.Run("ready when all stores answer", func(t *testing.T) {
		ready := handler.ReadyCheck(map[string]handler.Pinger{
			"documents": pingerFunc(func(context.Context) error { return nil }),
			"database":  pingerFunc(func(context.Context) error { return nil }),
		})

		rec := httptest.NewRecorder()
		ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unavailable when a store is down", func(t *testing.T) {
		ready := handler.ReadyCheck(map[string]handler.Pinger{
			"documents": pingerFunc(func(context.Context) error { return errors.New("down") }),
		})

		rec := httptest.NewRecorder()
		ready(rec, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

// newChatRouter wires a chat handler over in-memory storage.
func newChatRouter() chi.Router {
	conversations := service.NewConversationService(memory.NewMessageRepository(), nil, nil, nil)
	h := handler.NewChatHandler(conversations)

	r := chi.NewRouter()
	r.Post("/chat", h.Post)
	r.Get("/conversations/{sessionID}", h.GetConversation)
	return r
}

func TestChatHandler_Post(t *testing.T) {
	t.Run("returns the assistant reply", func(t *testing.T) {
		r := newChatRouter()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/chat", map[string]string{
			"session_id": "s1",
			"sender":     "user",
			"text":       "my car was hit",
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		data := response["data"].(map[string]any)
		assert.Contains(t, data["reply"], "my car was hit")
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		r := newChatRouter()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/chat", map[string]string{
			"session_id": "s1",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body rejected", func(t *testing.T) {
		r := newChatRouter()

		req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestChatHandler_GetConversation(t *testing.T) {
	r := newChatRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/chat", map[string]string{
		"session_id": "s1",
		"sender":     "user",
		"text":       "hello",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/conversations/s1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var response map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	data := response["data"].(map[string]any)
	messages := data["messages"].([]any)
	assert.Len(t, messages, 2)
}

// newWorkflowRouter wires workflow and job handlers over in-memory
// storage. Completion workers are not started, so jobs handed to the
// completer stay in PROCESSING.
func newWorkflowRouter() chi.Router {
	jobs := service.NewJobService(memory.NewJobRepository(), nil)
	workflows := service.NewWorkflowService(jobs, nil, 8)
	h := handler.NewWorkflowHandler(workflows, jobs)

	r := chi.NewRouter()
	r.Post("/workflows", h.Start)
	r.Get("/jobs/{jobID}", h.Get)
	r.Post("/jobs/{jobID}/resume", h.Resume)
	return r
}

func TestWorkflowHandler_Start(t *testing.T) {
	t.Run("pauses for the missing field", func(t *testing.T) {
		r := newWorkflowRouter()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/workflows", map[string]string{
			"session_id": "s1",
			"text":       "my car was hit",
		}))

		require.Equal(t, http.StatusCreated, rec.Code)
		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		data := response["data"].(map[string]any)
		assert.Equal(t, string(domain.JobStateAwaitingUserInput), data["state"])

		jobContext := data["context"].(map[string]any)
		assert.Equal(t, "Please provide license plate number", jobContext["missing"])
	})

	t.Run("missing text rejected", func(t *testing.T) {
		r := newWorkflowRouter()

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/workflows", map[string]string{
			"session_id": "s1",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWorkflowHandler_Resume(t *testing.T) {
	r := newWorkflowRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/workflows", map[string]string{
		"session_id": "s1",
		"text":       "my car was hit",
	}))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	jobID := created["data"].(map[string]any)["id"].(string)

	t.Run("accepts user input", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/jobs/"+jobID+"/resume", map[string]string{
			"user_input": "ABC123",
		}))

		require.Equal(t, http.StatusOK, rec.Code)
		var response map[string]any
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		data := response["data"].(map[string]any)
		assert.Equal(t, string(domain.JobStateProcessing), data["state"])
		assert.Equal(t, "ABC123", data["context"].(map[string]any)["user_input"])
	})

	t.Run("second resume conflicts", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/jobs/"+jobID+"/resume", map[string]string{
			"user_input": "ABC123 again",
		}))
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("malformed job id rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, makeJSONRequest(http.MethodPost, "/jobs/not-a-uuid/resume", map[string]string{
			"user_input": "ABC123",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestWorkflowHandler_Get(t *testing.T) {
	r := newWorkflowRouter()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// Helper to make JSON request
func makeJSONRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}
