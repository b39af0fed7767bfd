package server

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"deployer/internals/schemas"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type runStore struct {
	db *sql.DB
}

type runRecord struct {
	ID             string
	Task           string
	Round          int
	Status         schemas.RunStatus
	CreatedAt      string
	StartedAt      string
	FinishedAt     string
	Error          string
	SubmissionJSON string
	ResultJSON     string
}

func newRunStore(dbPath string) (*runStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	store := &runStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *runStore) migrate() error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	return goose.Up(s.db, "migrations")
}

func (s *runStore) create(ctx context.Context, record runRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (id, task, round, status, created_at, started_at, finished_at, error, submission_json, result_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, record.ID, record.Task, record.Round, record.Status, record.CreatedAt, nullIfEmpty(record.StartedAt), nullIfEmpty(record.FinishedAt), nullIfEmpty(record.Error), nullIfEmpty(record.SubmissionJSON), nullIfEmpty(record.ResultJSON))
	return err
}

func (s *runStore) update(ctx context.Context, record runRecord) error {
	_, err := s.db.ExecContext(ctx, `
UPDATE runs
SET status = ?, started_at = COALESCE(?, started_at), finished_at = COALESCE(?, finished_at), error = COALESCE(?, error), result_json = COALESCE(?, result_json)
WHERE id = ?
`, record.Status, nullIfEmpty(record.StartedAt), nullIfEmpty(record.FinishedAt), nullIfEmpty(record.Error), nullIfEmpty(record.ResultJSON), record.ID)
	return err
}

func (s *runStore) get(ctx context.Context, id string) (*runRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, task, round, status, created_at, started_at, finished_at, error, submission_json, result_json
FROM runs
WHERE id = ?
`, id)

	var record runRecord
	var status string
	var startedAt sql.NullString
	var finishedAt sql.NullString
	var errMsg sql.NullString
	var submissionJSON sql.NullString
	var resultJSON sql.NullString
	if err := row.Scan(&record.ID, &record.Task, &record.Round, &status, &record.CreatedAt, &startedAt, &finishedAt, &errMsg, &submissionJSON, &resultJSON); err != nil {
		return nil, err
	}
	record.Status = schemas.RunStatus(status)
	record.StartedAt = startedAt.String
	record.FinishedAt = finishedAt.String
	record.Error = errMsg.String
	record.SubmissionJSON = submissionJSON.String
	record.ResultJSON = resultJSON.String
	return &record, nil
}

// newRecord builds the pending row for an accepted submission. The stored
// submission copy never includes the shared secret.
func (s *runStore) newRecord(runID string, submission schemas.TaskSubmission) (runRecord, error) {
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)
	stored := submission
	stored.Secret = ""
	data, err := json.Marshal(stored)
	if err != nil {
		return runRecord{}, fmt.Errorf("failed to encode submission: %w", err)
	}
	return runRecord{
		ID:             runID,
		Task:           submission.Task,
		Round:          submission.Round,
		Status:         schemas.RunStatusPending,
		CreatedAt:      createdAt,
		SubmissionJSON: string(data),
	}, nil
}

func (s *runStore) marshalResult(result *schemas.RunResult) (string, error) {
	if result == nil {
		return "", nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
