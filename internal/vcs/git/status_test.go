package git

import (
	"context"
	"testing"

	"github.com/helmling/arbor/internal/testutil"
	"github.com/helmling/arbor/internal/vcs"
)

func TestStatus(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	files, err := g.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("clean repo status = %d entries, want 0", len(files))
	}

	testutil.WriteFile(t, dir+"/new.txt", "new\n")
	testutil.WriteFile(t, dir+"/README.md", "# changed\n")

	files, err = g.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}

	kinds := map[string]vcs.FileStatusKind{}
	for _, f := range files {
		kinds[f.Path] = f.Kind
	}
	if kinds["new.txt"] != vcs.StatusUntracked {
		t.Errorf("new.txt kind = %v, want StatusUntracked", kinds["new.txt"])
	}
	if kinds["README.md"] != vcs.StatusModified {
		t.Errorf("README.md kind = %v, want StatusModified", kinds["README.md"])
	}
}

func TestDiffChanges(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	before, err := g.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	testutil.WriteFileAndCommit(t, dir, "added.txt", "added\n", "add file")

	after, err := g.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	diffs, err := g.DiffChanges(ctx, before.ChangeID, after.ChangeID)
	if err != nil {
		t.Fatalf("DiffChanges: %v", err)
	}
	if len(diffs) != 1 {
		t.Fatalf("DiffChanges = %d entries, want 1", len(diffs))
	}
	if diffs[0].Path != "added.txt" || diffs[0].ChangeType != vcs.FileAdded {
		t.Errorf("diff = %+v, want added.txt FileAdded", diffs[0])
	}
}

func TestOngoingOperationNone(t *testing.T) {
	dir := testutil.CreateTempGitRepo(t)
	g, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	op, err := g.OngoingOperation(context.Background())
	if err != nil {
		t.Fatalf("OngoingOperation: %v", err)
	}
	if op != vcs.OpNone {
		t.Errorf("OngoingOperation = %v, want OpNone", op)
	}
}

func TestParseNameStatus(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []vcs.FileDiff
	}{
		{
			"empty", "", nil,
		},
		{
			"modify and add",
			"M\x00a.go\x00A\x00b.go\x00",
			[]vcs.FileDiff{
				{Path: "a.go", ChangeType: vcs.FileModified},
				{Path: "b.go", ChangeType: vcs.FileAdded},
			},
		},
		{
			"rename",
			"R100\x00old.go\x00new.go\x00",
			[]vcs.FileDiff{
				{Path: "new.go", OldPath: "old.go", ChangeType: vcs.FileRenamed},
			},
		},
		{
			"delete",
			"D\x00gone.go\x00",
			[]vcs.FileDiff{
				{Path: "gone.go", ChangeType: vcs.FileDeleted},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseNameStatus(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("parseNameStatus = %d entries, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("entry %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestStatusKind(t *testing.T) {
	tests := []struct {
		index, workdir byte
		want           vcs.FileStatusKind
	}{
		{'?', '?', vcs.StatusUntracked},
		{'U', 'U', vcs.StatusConflicted},
		{'A', 'A', vcs.StatusConflicted},
		{'A', ' ', vcs.StatusAdded},
		{' ', 'D', vcs.StatusDeleted},
		{'M', ' ', vcs.StatusModified},
		{' ', 'M', vcs.StatusModified},
	}

	for _, tt := range tests {
		if got := statusKind(tt.index, tt.workdir); got != tt.want {
			t.Errorf("statusKind(%c, %c) = %v, want %v", tt.index, tt.workdir, got, tt.want)
		}
	}
}
