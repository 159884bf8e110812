package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"

	"github.com/dshills/mreview/internal/forge"
)

const (
	defaultBaseURL = "https://gitlab.com"
	perPage        = 100
)

// Client is a forge.Store bound to one merge request.
type Client struct {
	api     *gl.Client
	project string
	mrIID   int
}

var _ forge.Store = (*Client)(nil)

// NewClient creates a client for merge request mrIID of project, which may
// be a numeric ID or a full path such as "group/project". Extra options are
// applied after the defaults.
func NewClient(baseURL, token, project string, mrIID int, opts ...gl.ClientOptionFunc) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is not set")
	}
	if project == "" || mrIID <= 0 {
		return nil, fmt.Errorf("GitLab project and merge request IID are required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	// The limiter never blocks; GitLab's own rate limiting answers 429.
	base := []gl.ClientOptionFunc{
		gl.WithBaseURL(strings.TrimRight(baseURL, "/")),
		gl.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		gl.WithCustomLimiter(rate.NewLimiter(rate.Inf, 0)),
	}
	api, err := gl.NewClient(token, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return &Client{api: api, project: project, mrIID: mrIID}, nil
}

// Unit describes the merge request for logs.
func (c *Client) Unit() string {
	return fmt.Sprintf("%s!%d", c.project, c.mrIID)
}

// FetchChangeSet reads the merge request and its per-file diffs.
func (c *Client) FetchChangeSet(ctx context.Context) (*forge.ChangeSet, error) {
	mr, _, err := c.api.MergeRequests.GetMergeRequest(c.project, c.mrIID, nil, gl.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("fetching merge request: %w", apiError(err))
	}

	cs := &forge.ChangeSet{
		Refs: forge.Refs{
			Base:  mr.DiffRefs.BaseSha,
			Head:  mr.DiffRefs.HeadSha,
			Start: mr.DiffRefs.StartSha,
		},
		SourceRef: mr.SourceBranch,
		Title:     mr.Title,
		WebURL:    mr.WebURL,
	}

	opt := &gl.ListMergeRequestDiffsOptions{}
	opt.PerPage = perPage
	opt.Page = 1
	for {
		diffs, resp, err := c.api.MergeRequests.ListMergeRequestDiffs(c.project, c.mrIID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing merge request diffs: %w", apiError(err))
		}
		for _, d := range diffs {
			cs.Files = append(cs.Files, forge.FileChange{
				Path:    d.NewPath,
				OldPath: d.OldPath,
				Diff:    d.Diff,
				Deleted: d.DeletedFile,
				New:     d.NewFile,
				Renamed: d.RenamedFile,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return cs, nil
}

// FetchFileContent reads the raw file at ref. A 404 means the file does not
// exist there.
func (c *Client) FetchFileContent(ctx context.Context, path, ref string) (string, bool, error) {
	body, _, err := c.api.RepositoryFiles.GetRawFile(c.project, path, &gl.GetRawFileOptions{Ref: gl.Ptr(ref)}, gl.WithContext(ctx))
	if err != nil {
		err = apiError(err)
		if forge.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetching %s at %s: %w", path, ref, err)
	}
	return string(body), true, nil
}

func note(n *gl.Note) forge.Note {
	return forge.Note{ID: int64(n.ID), Body: n.Body}
}

// ListDiscussions returns every discussion thread of the merge request.
func (c *Client) ListDiscussions(ctx context.Context) ([]forge.Discussion, error) {
	var out []forge.Discussion
	opt := &gl.ListMergeRequestDiscussionsOptions{}
	opt.PerPage = perPage
	opt.Page = 1
	for {
		page, resp, err := c.api.Discussions.ListMergeRequestDiscussions(c.project, c.mrIID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing discussions: %w", apiError(err))
		}
		for _, d := range page {
			disc := forge.Discussion{ID: d.ID}
			for _, n := range d.Notes {
				disc.Notes = append(disc.Notes, note(n))
			}
			out = append(out, disc)
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opt.Page = resp.NextPage
	}
}

// ListNotes returns every note of the merge request.
func (c *Client) ListNotes(ctx context.Context) ([]forge.Note, error) {
	var out []forge.Note
	opt := &gl.ListMergeRequestNotesOptions{}
	opt.PerPage = perPage
	opt.Page = 1
	for {
		page, resp, err := c.api.Notes.ListMergeRequestNotes(c.project, c.mrIID, opt, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing notes: %w", apiError(err))
		}
		for _, n := range page {
			out = append(out, note(n))
		}
		if resp.NextPage == 0 {
			return out, nil
		}
		opt.Page = resp.NextPage
	}
}

// CreateNote adds a general note to the merge request.
func (c *Client) CreateNote(ctx context.Context, body string) (forge.Note, error) {
	n, _, err := c.api.Notes.CreateMergeRequestNote(c.project, c.mrIID,
		&gl.CreateMergeRequestNoteOptions{Body: gl.Ptr(body)}, gl.WithContext(ctx))
	if err != nil {
		return forge.Note{}, fmt.Errorf("creating note: %w", apiError(err))
	}
	return note(n), nil
}

// UpdateNote replaces the body of an existing note.
func (c *Client) UpdateNote(ctx context.Context, noteID int64, body string) (forge.Note, error) {
	n, _, err := c.api.Notes.UpdateMergeRequestNote(c.project, c.mrIID, int(noteID),
		&gl.UpdateMergeRequestNoteOptions{Body: gl.Ptr(body)}, gl.WithContext(ctx))
	if err != nil {
		return forge.Note{}, fmt.Errorf("updating note %d: %w", noteID, apiError(err))
	}
	return note(n), nil
}

// DeleteNote deletes a note.
func (c *Client) DeleteNote(ctx context.Context, n forge.Note) error {
	if _, err := c.api.Notes.DeleteMergeRequestNote(c.project, c.mrIID, int(n.ID), gl.WithContext(ctx)); err != nil {
		return fmt.Errorf("deleting note %d: %w", n.ID, apiError(err))
	}
	return nil
}

// CreatePositionedComment starts a discussion on a line of the new file.
func (c *Client) CreatePositionedComment(ctx context.Context, pc forge.PositionedComment) error {
	opt := &gl.CreateMergeRequestDiscussionOptions{
		Body: gl.Ptr(pc.Body),
		Position: &gl.PositionOptions{
			PositionType: gl.Ptr("text"),
			BaseSHA:      gl.Ptr(pc.Refs.Base),
			HeadSHA:      gl.Ptr(pc.Refs.Head),
			StartSHA:     gl.Ptr(pc.Refs.Start),
			NewPath:      gl.Ptr(pc.Path),
			NewLine:      gl.Ptr(pc.Line),
		},
	}
	if _, _, err := c.api.Discussions.CreateMergeRequestDiscussion(c.project, c.mrIID, opt, gl.WithContext(ctx)); err != nil {
		return fmt.Errorf("commenting on %s:%d: %w", pc.Path, pc.Line, apiError(err))
	}
	return nil
}

// apiError converts a client-go error response into a forge.APIError so
// callers can test status codes without importing client-go.
func apiError(err error) error {
	var resp *gl.ErrorResponse
	if !errors.As(err, &resp) || resp.Response == nil {
		return err
	}
	apiErr := &forge.APIError{
		StatusCode: resp.Response.StatusCode,
		Body:       strings.TrimSpace(string(resp.Body)),
	}
	if req := resp.Response.Request; req != nil {
		apiErr.Method = req.Method
		apiErr.Endpoint = req.URL.Path
	}
	return apiErr
}
