// Package publish turns a staged directory into a public, pages-enabled
// repository on the configured hosting account by shelling out to git and gh.
package publish

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

type commandFunc func(name string, args ...string) *exec.Cmd

var execCommand commandFunc = exec.Command

// StepError reports the first external-tool step that exited non-zero,
// carrying the captured combined output for diagnostics. Steps are atomic:
// there is no retry of individual steps and no rollback of earlier ones.
type StepError struct {
	Step   string
	Output string
	Err    error
}

func (e *StepError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("publish step %s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("publish step %s failed: %v: %s", e.Step, e.Err, e.Output)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Host interface {
	Publish(dir string, repoName string) (string, error)
	EnablePages(repoName string) error
	RepoURL(repoName string) string
	PagesURL(repoName string) string
}

// Local publishes through the local git and gh binaries. gh must already be
// authenticated for the configured account.
type Local struct {
	User        string
	AuthorName  string
	AuthorEmail string
	logger      *slog.Logger
}

var _ Host = (*Local)(nil)

func NewLocal(user string, authorName string, authorEmail string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{User: user, AuthorName: authorName, AuthorEmail: authorEmail, logger: logger}
}

// Publish initializes version control in dir, commits everything as a single
// initial commit, creates the public remote repository and pushes to it.
// Returns the commit SHA of the pushed commit.
func (l *Local) Publish(dir string, repoName string) (string, error) {
	if _, err := l.run("init", dir, nil, "git", "init"); err != nil {
		return "", err
	}
	if _, err := l.run("add", dir, nil, "git", "add", "."); err != nil {
		return "", err
	}
	if _, err := l.run("commit", dir, l.authorEnv(), "git", "commit", "-m", "Initial commit"); err != nil {
		return "", err
	}
	if _, err := l.run("branch", dir, nil, "git", "branch", "-M", "main"); err != nil {
		return "", err
	}
	if _, err := l.run("create", dir, nil, "gh", "repo", "create", repoName, "--public", "--source=.", "--remote=origin", "--push"); err != nil {
		return "", err
	}
	output, err := l.run("rev-parse", dir, nil, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	sha := strings.TrimSpace(output)
	if sha == "" {
		return "", &StepError{Step: "rev-parse", Err: fmt.Errorf("empty commit sha")}
	}
	return sha, nil
}

func (l *Local) EnablePages(repoName string) error {
	_, err := l.run("enable-pages", "", nil, "gh", "repo", "edit", l.User+"/"+repoName, "--enable-pages")
	return err
}

// RepoURL and PagesURL are derived from the account identity, never fetched.
func (l *Local) RepoURL(repoName string) string {
	return fmt.Sprintf("https://github.com/%s/%s", l.User, repoName)
}

func (l *Local) PagesURL(repoName string) string {
	return fmt.Sprintf("https://%s.github.io/%s/", l.User, repoName)
}

func (l *Local) authorEnv() []string {
	var env []string
	if l.AuthorName != "" {
		env = append(env,
			"GIT_AUTHOR_NAME="+l.AuthorName,
			"GIT_COMMITTER_NAME="+l.AuthorName,
		)
	}
	if l.AuthorEmail != "" {
		env = append(env,
			"GIT_AUTHOR_EMAIL="+l.AuthorEmail,
			"GIT_COMMITTER_EMAIL="+l.AuthorEmail,
		)
	}
	return env
}

func (l *Local) run(step string, dir string, extraEnv []string, name string, args ...string) (string, error) {
	l.logger.Info("run", "step", step, "cmd", name+" "+strings.Join(args, " "))
	cmd := execCommand(name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", &StepError{Step: step, Output: strings.TrimSpace(string(output)), Err: err}
	}
	return string(output), nil
}
