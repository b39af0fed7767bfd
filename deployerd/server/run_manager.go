package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"deployer/internals/schemas"
)

// runManager supervises one detached goroutine per accepted submission and
// records its lifecycle in the run store. Failures end the run silently from
// the caller's perspective; the record and the logs are the only trace.
type runManager struct {
	store  *runStore
	logger *slog.Logger
}

func newRunManager(store *runStore, logger *slog.Logger) *runManager {
	return &runManager{store: store, logger: logger}
}

type pipelineFunc func(ctx context.Context) (*schemas.RunResult, error)

func (m *runManager) Spawn(submission schemas.TaskSubmission, run pipelineFunc) (*schemas.RunResponse, error) {
	runID, err := newRunID()
	if err != nil {
		return nil, err
	}
	record, err := m.store.newRecord(runID, submission)
	if err != nil {
		return nil, err
	}
	if err := m.store.create(context.Background(), record); err != nil {
		return nil, err
	}

	response := recordToResponse(record, nil)
	if run == nil {
		return response, nil
	}

	go func() {
		startTime := time.Now().UTC().Format(time.RFC3339Nano)
		update := runRecord{ID: runID, Status: schemas.RunStatusRunning, StartedAt: startTime}
		if err := m.store.update(context.Background(), update); err != nil {
			m.logger.Error("failed to mark run running", "run_id", runID, "error", err)
		}

		result, runErr := run(context.Background())
		finishTime := time.Now().UTC().Format(time.RFC3339Nano)
		resultJSON, err := m.store.marshalResult(result)
		if err != nil {
			m.logger.Error("failed to encode run result", "run_id", runID, "error", err)
		}

		finalUpdate := runRecord{ID: runID, FinishedAt: finishTime, ResultJSON: resultJSON}
		if runErr != nil {
			finalUpdate.Status = schemas.RunStatusFailed
			finalUpdate.Error = runErr.Error()
			m.logger.Error("pipeline run failed", "run_id", runID, "task", record.Task, "error", runErr)
		} else {
			finalUpdate.Status = schemas.RunStatusSucceeded
		}
		if err := m.store.update(context.Background(), finalUpdate); err != nil {
			m.logger.Error("failed to finalize run", "run_id", runID, "error", err)
		}
	}()

	return response, nil
}

func (m *runManager) Get(runID string) (*schemas.RunResponse, error) {
	record, err := m.store.get(context.Background(), runID)
	if err != nil {
		return nil, err
	}
	result, err := decodeRunResult(record.ResultJSON)
	if err != nil {
		return nil, err
	}
	return recordToResponse(*record, result), nil
}

func recordToResponse(record runRecord, result *schemas.RunResult) *schemas.RunResponse {
	return &schemas.RunResponse{
		RunID:      record.ID,
		Task:       record.Task,
		Status:     record.Status,
		CreatedAt:  record.CreatedAt,
		StartedAt:  record.StartedAt,
		FinishedAt: record.FinishedAt,
		Error:      record.Error,
		Result:     result,
	}
}

func decodeRunResult(resultJSON string) (*schemas.RunResult, error) {
	if resultJSON == "" {
		return nil, nil
	}
	var result schemas.RunResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
