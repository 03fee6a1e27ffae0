package automerge

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/helmling/arbor/internal/testutil"
	"github.com/helmling/arbor/internal/workspace"
)

func TestMergeSkipsWhenNotOptedIn(t *testing.T) {
	c := NewCoordinator()

	err := c.Merge(context.Background(), Completion{
		Project:   Project{ID: uuid.New(), AutoMerge: false},
		SessionID: uuid.New(),
		Workspace: &workspace.Workspace{Dir: "/nonexistent"},
	})
	if err != nil {
		t.Errorf("Merge without opt-in: %v, want nil", err)
	}
}

func TestMergeLandsOnTarget(t *testing.T) {
	ctx := context.Background()

	src := testutil.CreateTempGitRepo(t)
	bare := filepath.Join(t.TempDir(), "origin.git")
	testutil.MustRunGit(t, src, "clone", "--bare", ".", bare)
	testutil.MustRunGit(t, src, "remote", "add", "origin", bare)

	m := workspace.NewManager(t.TempDir())
	dir := filepath.Join(t.TempDir(), "ws")
	ws, err := m.Create(ctx, dir, []workspace.Input{{
		Repo: workspace.Repo{
			ID:                  uuid.New(),
			Name:                "api",
			Path:                src,
			DefaultTargetBranch: "main",
		},
	}}, "agent-yolo")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wt := filepath.Join(dir, "api")
	testutil.WriteFileAndCommit(t, wt, "feature.go", "package api\n", "add feature")

	c := NewCoordinator()
	err = c.Merge(ctx, Completion{
		Project:   Project{ID: uuid.New(), AutoMerge: true},
		SessionID: uuid.New(),
		Workspace: ws,
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	out := testutil.RunGit(t, bare, "log", "main", "--format=%s")
	if !strings.Contains(out, "add feature") {
		t.Errorf("target branch log missing session commit:\n%s", out)
	}
}

func TestMergeFailureNamesRepo(t *testing.T) {
	ctx := context.Background()

	// No origin remote configured, so the fetch fails.
	src := testutil.CreateTempGitRepo(t)

	m := workspace.NewManager(t.TempDir())
	dir := filepath.Join(t.TempDir(), "ws")
	ws, err := m.Create(ctx, dir, []workspace.Input{{
		Repo: workspace.Repo{
			ID:                  uuid.New(),
			Name:                "api",
			Path:                src,
			DefaultTargetBranch: "main",
		},
	}}, "agent-nofetch")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := NewCoordinator()
	err = c.Merge(ctx, Completion{
		Project:   Project{ID: uuid.New(), AutoMerge: true},
		SessionID: uuid.New(),
		Workspace: ws,
	})
	if err == nil {
		t.Fatal("Merge should fail without an origin remote")
	}
	if !strings.Contains(err.Error(), `"api"`) {
		t.Errorf("error %q does not name the repo", err)
	}
}

func TestProjectLockSerializesSameProject(t *testing.T) {
	c := NewCoordinator()
	project := uuid.New()

	lock := c.projectLock(project)
	lock.Lock()

	second := make(chan struct{})
	go func() {
		c.projectLock(project).Lock()
		close(second)
		c.projectLock(project).Unlock()
	}()

	select {
	case <-second:
		t.Fatal("second acquisition proceeded while first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	lock.Unlock()
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("second acquisition never proceeded after release")
	}
}

func TestProjectLockIndependentProjects(t *testing.T) {
	c := NewCoordinator()

	c.projectLock(uuid.New()).Lock()

	done := make(chan struct{})
	go func() {
		other := c.projectLock(uuid.New())
		other.Lock()
		other.Unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("different project blocked by unrelated lock")
	}
}

func TestProjectLockStable(t *testing.T) {
	c := NewCoordinator()
	project := uuid.New()

	var wg sync.WaitGroup
	locks := make([]*sync.Mutex, 16)
	for i := range locks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			locks[i] = c.projectLock(project)
		}(i)
	}
	wg.Wait()

	for i := 1; i < len(locks); i++ {
		if locks[i] != locks[0] {
			t.Fatal("projectLock returned different mutexes for one project")
		}
	}
}
