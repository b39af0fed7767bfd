package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	z "github.com/Oudwins/zog"

	"deployer/internals/schemas"
)

func (s *Server) HandlerHealth(w http.ResponseWriter, r *http.Request) {
	RenderJSON(w, r, schemas.HealthResponse{
		Status:     "ok",
		Mode:       "local",
		GithubUser: s.Base.Env.GITHUB_USER,
	}, Render.Status(http.StatusOK))
}

// HandlerSubmitTask validates a submission, acknowledges it immediately, and
// hands the pipeline to a detached run. Nothing that happens after the ack can
// change the response the caller already received.
func (s *Server) HandlerSubmitTask(w http.ResponseWriter, r *http.Request) {
	var submission schemas.TaskSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInvalidJson, "Invalid JSON", nil), Render.Status(http.StatusBadRequest))
		return
	}

	if issues := schemas.TaskSubmissionSchema.Validate(&submission); len(issues) > 0 {
		payload := JsonResponseError(JsonResponseErrorCodeValidationFailed, "Schema validation failed", z.Issues.Flatten(issues))
		RenderJSON(w, r, payload, Render.Status(http.StatusBadRequest))
		return
	}

	if s.Base.Env.PROJECT_SECRET == "" {
		s.Base.Logger.Error("PROJECT_SECRET is not configured")
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, "Server misconfigured", nil), Render.Status(http.StatusInternalServerError))
		return
	}
	if submission.Secret != s.Base.Env.PROJECT_SECRET {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeAuthRequired, "Invalid secret", nil), Render.Status(http.StatusUnauthorized))
		return
	}

	response, err := s.runs.Spawn(submission, func(ctx context.Context) (*schemas.RunResult, error) {
		return s.runPipeline(ctx, submission)
	})
	if err != nil {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}

	s.Base.Logger.Info("accepted task",
		"run_id", response.RunID,
		"task", submission.Task,
		"round", submission.Round,
	)
	RenderJSON(w, r, schemas.SubmissionAck{
		Status: "ok",
		Task:   submission.Task,
		Round:  submission.Round,
	}, Render.Status(http.StatusOK))
}

func (s *Server) HandlerRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeValidationFailed, "run id is required", nil), Render.Status(http.StatusBadRequest))
		return
	}

	response, err := s.runs.Get(runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeNotFound, "Run not found", nil), Render.Status(http.StatusNotFound))
			return
		}
		RenderJSON(w, r, JsonResponseError(JsonResponseErrorCodeInternal, err.Error(), nil), Render.Status(http.StatusInternalServerError))
		return
	}
	RenderJSON(w, r, response, Render.Status(http.StatusOK))
}

func (s *Server) HandlerShutdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("shutting down"))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if s.httpServer == nil {
			s.Base.Logger.Error("shutdown failed", "error", errors.New("server not initialized"))
			return
		}
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.Base.Logger.Error("shutdown failed", "error", err)
		}
	}()
}
