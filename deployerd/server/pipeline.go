package server

import (
	"context"

	"deployer/internals/schemas"
)

// runPipeline executes one submission end to end: stage the worktree, publish
// it, wait for the page, notify the evaluation endpoint. Stage and publish
// errors fail the run; a poll timeout and a notify exhaustion are recorded but
// do not (the caller was acknowledged long ago and the published repository
// cannot be rolled back).
func (s *Server) runPipeline(ctx context.Context, submission schemas.TaskSubmission) (*schemas.RunResult, error) {
	logger := s.Base.Logger.With("task", submission.Task, "round", submission.Round)

	dir, repoName, err := s.Worktree.Stage(submission.Task, submission.Brief, submission.Attachments)
	if err != nil {
		return nil, err
	}
	logger.Info("worktree staged", "path", dir, "repo", repoName)

	sha, err := s.Publisher.Publish(dir, repoName)
	if err != nil {
		return nil, err
	}
	logger.Info("repository published", "repo", repoName, "commit", sha)

	if err := s.Publisher.EnablePages(repoName); err != nil {
		return nil, err
	}

	repoURL := s.Publisher.RepoURL(repoName)
	pagesURL := s.Publisher.PagesURL(repoName)

	live := s.Pages.Wait(pagesURL)
	if !live {
		logger.Warn("pages did not become live within budget", "pages_url", pagesURL)
	}

	payload := schemas.NotificationPayload{
		Email:     submission.Email,
		Task:      submission.Task,
		Round:     submission.Round,
		Nonce:     submission.Nonce,
		RepoURL:   repoURL,
		CommitSHA: sha,
		PagesURL:  pagesURL,
	}
	notified := true
	if err := s.Notifier.Notify(ctx, submission.EvaluationURL, payload); err != nil {
		notified = false
		logger.Error("failed to notify evaluation endpoint", "error", err)
	}

	return &schemas.RunResult{
		RepoName:  repoName,
		RepoURL:   repoURL,
		CommitSHA: sha,
		PagesURL:  pagesURL,
		PageLive:  live,
		Notified:  notified,
	}, nil
}
