package vcs

import (
	"errors"
	"testing"
)

func TestClassifyOutput(t *testing.T) {
	// Message corpus collected from real git and jj failures. Classification
	// is substring-based, so every variant we rely on is pinned here.
	tests := []struct {
		name string
		msg  string
		want error
	}{
		{"auth plain", "fatal: Authentication failed for 'https://github.com/o/r.git/'", ErrAuthFailed},
		{"auth ssh", "git@github.com: Permission denied (publickey).", ErrAuthFailed},
		{"auth prompt", "fatal: could not read Username for 'https://github.com': terminal prompts disabled", ErrAuthFailed},
		{"auth gitlab", "remote: HTTP Basic: Access denied. invalid credentials", ErrAuthFailed},
		{"push non-ff", "! [rejected] main -> main (non-fast-forward)", ErrPushRejected},
		{"push refs", "error: failed to push some refs to 'origin'", ErrPushRejected},
		{"push fetch first", "Updates were rejected because the remote contains work that you do not have locally. fetch first", ErrPushRejected},
		{"rebase conflict", "CONFLICT (content): Merge conflict in main.go", ErrConflict},
		{"rebase apply", "error: could not apply 1a2b3c4... tweak parser", ErrConflict},
		{"merge needed", "error: you need to resolve your current index first\nmain.go: needs merge", ErrConflict},
		{"not git repo", "fatal: not a git repository (or any of the parent directories): .git", ErrNotRepository},
		{"not jj repo", "Error: There is no jj repo in \".\"", ErrNotRepository},
		{"jj missing rev", "Error: Revision `zzzzzzzz` doesn't exist", ErrChangeNotFound},
		{"git bad rev", "fatal: bad revision 'deadbeef'", ErrChangeNotFound},
		{"git unknown rev", "fatal: ambiguous argument 'x': unknown revision or path not in the working tree.", ErrChangeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyOutput(tt.msg)
			if !errors.Is(got, tt.want) {
				t.Errorf("ClassifyOutput(%q) = %v, want errors.Is %v", tt.msg, got, tt.want)
			}
		})
	}
}

func TestClassifyOutputUnknown(t *testing.T) {
	got := ClassifyOutput("warning: something odd happened\n")
	for _, sentinel := range []error{ErrAuthFailed, ErrPushRejected, ErrConflict, ErrNotRepository, ErrChangeNotFound} {
		if errors.Is(got, sentinel) {
			t.Errorf("unknown message classified as %v", sentinel)
		}
	}
	if got.Error() != "warning: something odd happened" {
		t.Errorf("ClassifyOutput trimmed message = %q", got.Error())
	}
}
