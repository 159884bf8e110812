package gitctx

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/mreview/internal/diffmap"
	"github.com/dshills/mreview/internal/forge"
)

// setupTestRepo creates a temp git repo with two commits: the first adds
// main.go, util.go and old.go; the second edits main.go, deletes util.go,
// renames old.go and adds new.go.
func setupTestRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()

	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("command %v failed: %v\n%s", args, err, out)
		}
	}
	write := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	run("git", "init")
	run("git", "checkout", "-b", "main")
	write("main.go", "package main\n\nfunc main() {}\n")
	write("util.go", "package main\n\nfunc helper() {}\n")
	write("old.go", "package main\n\n// keep this file long enough\n// so rename detection\n// has something to match\nvar x = 1\n")
	run("git", "add", "-A")
	run("git", "commit", "-m", "init")

	write("main.go", "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n")
	run("git", "rm", "-q", "util.go")
	run("git", "mv", "old.go", "renamed.go")
	write("new.go", "package main\n\nvar y = 2\n")
	run("git", "add", "-A")
	run("git", "commit", "-m", "change")

	return dir
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantHead string
	}{
		{"", "HEAD~1", "HEAD"},
		{"main..feature", "main", "feature"},
		{"main...feature", "main", "feature"},
		{"origin/main", "origin/main", "HEAD"},
		{"main..", "main", "HEAD"},
		{"..feature", "HEAD", "feature"},
	}
	for _, tt := range tests {
		base, head := ParseRange(tt.in)
		if base != tt.wantBase || head != tt.wantHead {
			t.Errorf("ParseRange(%q) = (%q, %q), want (%q, %q)", tt.in, base, head, tt.wantBase, tt.wantHead)
		}
	}
}

func TestSplitDiff(t *testing.T) {
	diff := `diff --git a/a.go b/a.go
index 1111111..2222222 100644
--- a/a.go
+++ b/a.go
@@ -1,2 +10,3 @@ func f() {
 context
+added1
-removed
+added2
diff --git a/gone.go b/gone.go
deleted file mode 100644
index 3333333..0000000
--- a/gone.go
+++ /dev/null
@@ -1 +0,0 @@
-bye
`
	files, err := SplitDiff(diff)
	if err != nil {
		t.Fatalf("SplitDiff error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("files = %d, want 2", len(files))
	}
	if files[0].Path != "a.go" {
		t.Errorf("files[0].Path = %q", files[0].Path)
	}
	if got := diffmap.EligibleLines(files[0].Diff); len(got) != 2 || got[0] != 11 || got[1] != 12 {
		t.Errorf("EligibleLines = %v, want [11 12]\n%s", got, files[0].Diff)
	}
	if !strings.HasPrefix(files[0].Diff, "@@ -1,2 +10,3 @@ func f() {\n") {
		t.Errorf("hunk header not preserved:\n%s", files[0].Diff)
	}
	if !files[1].Deleted || files[1].Path != "gone.go" {
		t.Errorf("files[1] = %+v", files[1])
	}
}

func TestSplitDiff_Empty(t *testing.T) {
	files, err := SplitDiff("")
	if err != nil {
		t.Fatalf("SplitDiff error: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %d, want 0", len(files))
	}
}

func TestRepo_FetchChangeSet(t *testing.T) {
	dir := setupTestRepo(t)
	ctx := context.Background()

	repo, err := Open(ctx, dir, "")
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	cs, err := repo.FetchChangeSet(ctx)
	if err != nil {
		t.Fatalf("FetchChangeSet error: %v", err)
	}
	if cs.Refs.Head == "" || cs.Refs.Base == "" || cs.SourceRef != cs.Refs.Head {
		t.Errorf("Refs = %+v, SourceRef = %q", cs.Refs, cs.SourceRef)
	}

	byPath := make(map[string]forge.FileChange)
	for _, f := range cs.Files {
		byPath[f.Path] = f
	}
	if f, ok := byPath["main.go"]; !ok || len(diffmap.EligibleLines(f.Diff)) == 0 {
		t.Errorf("main.go change = %+v", f)
	}
	if f := byPath["util.go"]; !f.Deleted {
		t.Errorf("util.go should be deleted: %+v", f)
	}
	if f := byPath["renamed.go"]; !f.Renamed || f.OldPath != "old.go" {
		t.Errorf("renamed.go should be a rename of old.go: %+v", f)
	}
	if f := byPath["new.go"]; !f.New {
		t.Errorf("new.go should be new: %+v", f)
	}

	content, found, err := repo.FetchFileContent(ctx, "main.go", cs.SourceRef)
	if err != nil || !found || !strings.Contains(content, "fmt.Println") {
		t.Errorf("FetchFileContent(main.go) = (%q, %v, %v)", content, found, err)
	}
	_, found, err = repo.FetchFileContent(ctx, "util.go", cs.SourceRef)
	if err != nil || found {
		t.Errorf("deleted file: found = %v, err = %v", found, err)
	}
}

func TestOpen_NotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	if _, err := Open(context.Background(), t.TempDir(), ""); err == nil {
		t.Error("expected error outside a git repository")
	}
}

func TestRepo_InMemoryComments(t *testing.T) {
	repo := &Repo{revRange: "a..b"}
	ctx := context.Background()

	n, err := repo.CreateNote(ctx, "placeholder")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpdateNote(ctx, n.ID, "final"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpdateNote(ctx, 999, "x"); err == nil {
		t.Error("updating an unknown note should fail")
	}
	notes, _ := repo.ListNotes(ctx)
	if len(notes) != 1 || notes[0].Body != "final" {
		t.Errorf("notes = %+v", notes)
	}

	pc := forge.PositionedComment{Path: "a.go", Line: 3, Body: "c"}
	if err := repo.CreatePositionedComment(ctx, pc); err != nil {
		t.Fatal(err)
	}
	discussions, _ := repo.ListDiscussions(ctx)
	if len(discussions) != 1 || len(discussions[0].Notes) != 1 {
		t.Fatalf("discussions = %+v", discussions)
	}
	if got := repo.Comments(); len(got) != 1 || got[0] != pc {
		t.Errorf("Comments() = %+v", got)
	}

	if err := repo.DeleteNote(ctx, discussions[0].Notes[0]); err != nil {
		t.Errorf("DeleteNote error: %v", err)
	}
	discussions, _ = repo.ListDiscussions(ctx)
	if len(discussions[0].Notes) != 0 {
		t.Error("discussion note should be removed")
	}
	if err := repo.DeleteNote(ctx, forge.Note{ID: 12345}); err == nil {
		t.Error("deleting an unknown note should fail")
	}
}

func TestGetRepoMeta(t *testing.T) {
	dir := setupTestRepo(t)
	meta, err := GetRepoMeta(context.Background(), dir)
	if err != nil {
		t.Fatalf("GetRepoMeta error: %v", err)
	}
	if meta.Branch != "main" || meta.Head == "" {
		t.Errorf("meta = %+v", meta)
	}
}
