package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/dshills/mreview/internal/forge"
)

// DefaultRange is reviewed when no revision range is given.
const DefaultRange = "HEAD~1..HEAD"

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// ParseRange splits "base..head" or "base...head" into its revisions. A
// single revision is compared against HEAD.
func ParseRange(revRange string) (base, head string) {
	if revRange == "" {
		revRange = DefaultRange
	}
	for _, sep := range []string{"...", ".."} {
		if b, h, ok := strings.Cut(revRange, sep); ok {
			if b == "" {
				b = "HEAD"
			}
			if h == "" {
				h = "HEAD"
			}
			return b, h
		}
	}
	return revRange, "HEAD"
}

// Repo is a forge.Store over a local revision range. Nothing is published:
// notes and comments are kept in memory so a dry run can show what a real
// pass would post.
type Repo struct {
	dir      string
	revRange string

	forge.Recorder
}

var _ forge.Store = (*Repo)(nil)

// Open returns a Repo for revRange in the repository containing dir.
func Open(ctx context.Context, dir, revRange string) (*Repo, error) {
	if _, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel"); err != nil {
		return nil, fmt.Errorf("not a git repository: %w", err)
	}
	if revRange == "" {
		revRange = DefaultRange
	}
	return &Repo{dir: dir, revRange: revRange}, nil
}

// Unit describes the revision range for logs.
func (r *Repo) Unit() string { return r.revRange }

// FetchChangeSet diffs the merge base of the range against its head.
func (r *Repo) FetchChangeSet(ctx context.Context) (*forge.ChangeSet, error) {
	baseRev, headRev := ParseRange(r.revRange)
	start, err := r.revParse(ctx, baseRev)
	if err != nil {
		return nil, err
	}
	head, err := r.revParse(ctx, headRev)
	if err != nil {
		return nil, err
	}
	base, err := gitOutput(ctx, r.dir, "merge-base", start, head)
	if err != nil {
		return nil, fmt.Errorf("git merge-base %s %s: %w", baseRev, headRev, err)
	}
	base = strings.TrimSpace(base)

	out, err := gitOutput(ctx, r.dir, "diff", "--no-color", "--no-ext-diff", "-M", base, head)
	if err != nil {
		return nil, fmt.Errorf("git diff %s: %w", r.revRange, err)
	}
	files, err := SplitDiff(out)
	if err != nil {
		return nil, err
	}
	return &forge.ChangeSet{
		Files:     files,
		Refs:      forge.Refs{Base: base, Head: head, Start: start},
		SourceRef: head,
		Title:     r.revRange,
	}, nil
}

func (r *Repo) revParse(ctx context.Context, rev string) (string, error) {
	sha, err := gitOutput(ctx, r.dir, "rev-parse", "--verify", rev+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", rev, err)
	}
	return strings.TrimSpace(sha), nil
}

// SplitDiff parses a multi-file git diff into per-file changes whose Diff
// holds only the hunks of that file.
func SplitDiff(diff string) ([]forge.FileChange, error) {
	files, _, err := gitdiff.Parse(strings.NewReader(diff))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}
	changes := make([]forge.FileChange, 0, len(files))
	for _, f := range files {
		fc := forge.FileChange{
			Path:    f.NewName,
			OldPath: f.OldName,
			Deleted: f.IsDelete,
			New:     f.IsNew,
			Renamed: f.IsRename,
		}
		if f.IsDelete {
			fc.Path = f.OldName
		}
		if !f.IsBinary {
			fc.Diff = renderFragments(f.TextFragments)
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

func renderFragments(frags []*gitdiff.TextFragment) string {
	var b strings.Builder
	for _, frag := range frags {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@", frag.OldPosition, frag.OldLines, frag.NewPosition, frag.NewLines)
		if c := strings.TrimSpace(frag.Comment); c != "" {
			b.WriteString(" " + c)
		}
		b.WriteByte('\n')
		for _, line := range frag.Lines {
			b.WriteString(line.Op.String())
			b.WriteString(line.Line)
			if !strings.HasSuffix(line.Line, "\n") {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// FetchFileContent reads path at ref from the object database.
func (r *Repo) FetchFileContent(ctx context.Context, path, ref string) (string, bool, error) {
	object := ref + ":" + path
	if _, err := gitOutput(ctx, r.dir, "cat-file", "-e", object); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("git cat-file -e %s: %w", object, err)
	}
	out, err := gitOutput(ctx, r.dir, "cat-file", "-p", object)
	if err != nil {
		return "", false, fmt.Errorf("git cat-file -p %s: %w", object, err)
	}
	return out, true, nil
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
