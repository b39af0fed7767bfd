// Package worktree stages the files for one task into a uniquely named
// directory under the shared work root.
package worktree

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"deployer/internals/datauri"
	"deployer/internals/schemas"
)

const namePrefixLimit = 40

type Builder struct {
	Root   string
	Owner  string
	logger *slog.Logger
}

func NewBuilder(root string, owner string, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Root: root, Owner: owner, logger: logger}
}

// DeriveName maps a submission to its staging-directory name. The name is a
// pure function of (task, brief, attachment URLs): resubmitting identical
// content collides on the same name, which is how duplicate submissions dedupe.
func DeriveName(task string, brief string, attachments []schemas.Attachment) string {
	seed := brief
	for _, attachment := range attachments {
		seed += attachment.URL
	}
	safe := sanitizeName(task)
	if len(safe) > namePrefixLimit {
		safe = safe[:namePrefixLimit]
	}
	return fmt.Sprintf("task-%s-%s", safe, shortHash(seed, 6))
}

// Stage destroys any previous directory for the derived name and rebuilds it
// from scratch: generated artifacts first, then decoded attachments.
// Attachment decode failures are skipped with a warning; directory errors fail
// the whole stage.
func (b *Builder) Stage(task string, brief string, attachments []schemas.Attachment) (string, string, error) {
	name := DeriveName(task, brief, attachments)
	dir := filepath.Join(b.Root, name)

	if _, err := os.Stat(dir); err == nil {
		b.logger.Info("removing existing worktree", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return "", "", fmt.Errorf("failed to remove existing worktree: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create worktree: %w", err)
	}

	index, err := renderIndexHTML(task, brief)
	if err != nil {
		return "", "", fmt.Errorf("failed to render index.html: %w", err)
	}
	files := map[string]string{
		"index.html": index,
		"README.md":  renderReadme(task, brief),
		"LICENSE":    renderLicense(b.Owner),
	}
	for fname, content := range files {
		if err := os.WriteFile(filepath.Join(dir, fname), []byte(content), 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write %s: %w", fname, err)
		}
	}

	for _, attachment := range attachments {
		data, err := datauri.Decode(attachment.URL)
		if err != nil {
			b.logger.Warn("skipping attachment that failed to decode",
				"name", attachment.Name,
				"error", err,
			)
			continue
		}
		fname := attachment.Name
		if fname == "" {
			fname = "attachment-" + shortHash(attachment.URL, 6)
		}
		fname = filepath.Base(fname)
		if err := os.WriteFile(filepath.Join(dir, fname), data, 0o644); err != nil {
			return "", "", fmt.Errorf("failed to write attachment %s: %w", fname, err)
		}
	}

	return dir, name, nil
}

// sanitizeName collapses every run of characters outside [A-Za-z0-9_-] into a
// single '-'.
func sanitizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevDash := false
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if isAlpha || isDigit || r == '_' || r == '-' {
			b.WriteRune(r)
			prevDash = false
			continue
		}
		if prevDash {
			continue
		}
		b.WriteByte('-')
		prevDash = true
	}
	return b.String()
}

func shortHash(s string, length int) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:length]
}
