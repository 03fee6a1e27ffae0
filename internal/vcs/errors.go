package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes callers are expected to branch on.
// Adapters wrap backend output with one of these so the orchestrator and the
// auto-merge coordinator never match on raw command text themselves.
var (
	// ErrBackendUnavailable means the git or jj executable is missing or
	// unusable. Fatal for the requested operation; never retried.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNotRepository means the path is not a recognized repository.
	ErrNotRepository = errors.New("not a recognized repository")

	// ErrAuthFailed means the remote rejected our credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrPushRejected means the remote refused the push (non-fast-forward).
	ErrPushRejected = errors.New("push rejected")

	// ErrConflict means the operation stopped on merge/rebase conflicts and
	// needs human or agent follow-up rather than a retry.
	ErrConflict = errors.New("conflict resolution required")

	// ErrChangeNotFound means the referenced change no longer exists.
	ErrChangeNotFound = errors.New("change not found")

	// ErrDirtyWorkingCopy means uncommitted changes block the operation.
	ErrDirtyWorkingCopy = errors.New("uncommitted changes in working copy")
)

// ClassifyOutput maps backend command output to a typed error. Substring
// matching on human-readable text is fragile, so every known message variant
// lives here and nowhere else; the corpus is pinned by TestClassifyOutput.
// Unknown text comes back as a plain error wrapping the message.
func ClassifyOutput(msg string) error {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "authentication failed"),
		strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "could not read username"),
		strings.Contains(lower, "invalid credentials"):
		return fmt.Errorf("%w: %s", ErrAuthFailed, strings.TrimSpace(msg))

	case strings.Contains(lower, "non-fast-forward"),
		strings.Contains(lower, "rejected"),
		strings.Contains(lower, "fetch first"),
		strings.Contains(lower, "failed to push some refs"):
		return fmt.Errorf("%w: %s", ErrPushRejected, strings.TrimSpace(msg))

	case strings.Contains(lower, "conflict"),
		strings.Contains(lower, "needs merge"),
		strings.Contains(lower, "could not apply"):
		return fmt.Errorf("%w: %s", ErrConflict, strings.TrimSpace(msg))

	case strings.Contains(lower, "not a git repository"),
		strings.Contains(lower, "there is no jj repo"),
		strings.Contains(lower, "not a jj repo"):
		return fmt.Errorf("%w: %s", ErrNotRepository, strings.TrimSpace(msg))

	case strings.Contains(lower, "revision") && strings.Contains(lower, "doesn't exist"),
		strings.Contains(lower, "no such revision"),
		strings.Contains(lower, "unknown revision"),
		strings.Contains(lower, "bad revision"):
		return fmt.Errorf("%w: %s", ErrChangeNotFound, strings.TrimSpace(msg))

	default:
		return errors.New(strings.TrimSpace(msg))
	}
}
