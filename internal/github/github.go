package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dshills/mreview/internal/forge"
)

const (
	defaultAPIURL = "https://api.github.com"
	perPage       = 100

	// Note kinds; GitHub keeps line comments and conversation comments
	// in separate collections with separate delete endpoints.
	kindReview = "review"
	kindIssue  = "issue"
)

// Client is a forge.Store bound to one pull request.
type Client struct {
	token   string
	apiURL  string
	owner   string
	repo    string
	number  int
	httpCli *http.Client
}

var _ forge.Store = (*Client)(nil)

// NewClient creates a client for pull request number of owner/repo. An
// empty apiURL selects api.github.com.
func NewClient(apiURL, token, owner, repo string, number int) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is not set")
	}
	if owner == "" || repo == "" || number <= 0 {
		return nil, fmt.Errorf("GitHub owner, repo and pull request number are required")
	}
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		owner:   owner,
		repo:    repo,
		number:  number,
		httpCli: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Unit describes the pull request for logs.
func (c *Client) Unit() string {
	return fmt.Sprintf("%s/%s#%d", c.owner, c.repo, c.number)
}

func (c *Client) repoPath(format string, args ...any) string {
	return fmt.Sprintf("/repos/%s/%s", c.owner, c.repo) + fmt.Sprintf(format, args...)
}

type pullRequest struct {
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Head    struct {
		SHA string `json:"sha"`
		Ref string `json:"ref"`
	} `json:"head"`
	Base struct {
		SHA string `json:"sha"`
	} `json:"base"`
}

// PRFile represents a file changed in a pull request.
type PRFile struct {
	Filename         string `json:"filename"`
	PreviousFilename string `json:"previous_filename"`
	Status           string `json:"status"`
	Patch            string `json:"patch"`
}

// FetchChangeSet reads the pull request and its changed files. File content
// is read at the head commit; the start anchor is the base commit.
func (c *Client) FetchChangeSet(ctx context.Context) (*forge.ChangeSet, error) {
	var pr pullRequest
	if err := c.do(ctx, http.MethodGet, c.repoPath("/pulls/%d", c.number), nil, &pr); err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}

	cs := &forge.ChangeSet{
		Refs:      forge.Refs{Base: pr.Base.SHA, Head: pr.Head.SHA, Start: pr.Base.SHA},
		SourceRef: pr.Head.SHA,
		Title:     pr.Title,
		WebURL:    pr.HTMLURL,
	}
	err := c.paginate(ctx, c.repoPath("/pulls/%d/files", c.number), func(data []byte) error {
		var files []PRFile
		if err := json.Unmarshal(data, &files); err != nil {
			return err
		}
		for _, f := range files {
			fc := forge.FileChange{
				Path:    f.Filename,
				OldPath: f.Filename,
				Diff:    f.Patch,
			}
			switch f.Status {
			case "added":
				fc.New = true
			case "removed":
				fc.Deleted = true
			case "renamed":
				fc.Renamed = true
				fc.OldPath = f.PreviousFilename
			}
			cs.Files = append(cs.Files, fc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching pull request files: %w", err)
	}
	return cs, nil
}

// FetchFileContent reads the raw file at ref. A 404 means the file does not
// exist there.
func (c *Client) FetchFileContent(ctx context.Context, path, ref string) (string, bool, error) {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	endpoint := c.repoPath("/contents/%s?ref=%s", strings.Join(segments, "/"), url.QueryEscape(ref))

	body, _, err := c.send(ctx, http.MethodGet, c.apiURL+endpoint, "application/vnd.github.raw", nil)
	if forge.IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetching %s at %s: %w", path, ref, err)
	}
	return string(body), true, nil
}

type apiComment struct {
	ID          int64  `json:"id"`
	Body        string `json:"body"`
	InReplyToID int64  `json:"in_reply_to_id"`
}

// ListDiscussions returns the review comment threads of the pull request.
// Replies are grouped under the comment they answer.
func (c *Client) ListDiscussions(ctx context.Context) ([]forge.Discussion, error) {
	var out []forge.Discussion
	index := make(map[int64]int)
	err := c.paginate(ctx, c.repoPath("/pulls/%d/comments", c.number), func(data []byte) error {
		var page []apiComment
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		for _, cm := range page {
			note := forge.Note{ID: cm.ID, Body: cm.Body, Kind: kindReview}
			if i, ok := index[cm.InReplyToID]; ok && cm.InReplyToID != 0 {
				out[i].Notes = append(out[i].Notes, note)
				continue
			}
			index[cm.ID] = len(out)
			out = append(out, forge.Discussion{
				ID:    strconv.FormatInt(cm.ID, 10),
				Notes: []forge.Note{note},
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing review comments: %w", err)
	}
	return out, nil
}

// ListNotes returns the conversation comments of the pull request.
func (c *Client) ListNotes(ctx context.Context) ([]forge.Note, error) {
	var out []forge.Note
	err := c.paginate(ctx, c.repoPath("/issues/%d/comments", c.number), func(data []byte) error {
		var page []apiComment
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		for _, cm := range page {
			out = append(out, forge.Note{ID: cm.ID, Body: cm.Body, Kind: kindIssue})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return out, nil
}

type commentBody struct {
	Body string `json:"body"`
}

// CreateNote adds a conversation comment.
func (c *Client) CreateNote(ctx context.Context, body string) (forge.Note, error) {
	var cm apiComment
	if err := c.do(ctx, http.MethodPost, c.repoPath("/issues/%d/comments", c.number), commentBody{body}, &cm); err != nil {
		return forge.Note{}, fmt.Errorf("creating comment: %w", err)
	}
	return forge.Note{ID: cm.ID, Body: cm.Body, Kind: kindIssue}, nil
}

// UpdateNote replaces the body of a conversation comment.
func (c *Client) UpdateNote(ctx context.Context, noteID int64, body string) (forge.Note, error) {
	var cm apiComment
	if err := c.do(ctx, http.MethodPatch, c.repoPath("/issues/comments/%d", noteID), commentBody{body}, &cm); err != nil {
		return forge.Note{}, fmt.Errorf("updating comment %d: %w", noteID, err)
	}
	return forge.Note{ID: cm.ID, Body: cm.Body, Kind: kindIssue}, nil
}

// DeleteNote deletes a review comment or a conversation comment depending
// on the note's kind.
func (c *Client) DeleteNote(ctx context.Context, note forge.Note) error {
	endpoint := c.repoPath("/issues/comments/%d", note.ID)
	if note.Kind == kindReview {
		endpoint = c.repoPath("/pulls/comments/%d", note.ID)
	}
	if err := c.do(ctx, http.MethodDelete, endpoint, nil, nil); err != nil {
		return fmt.Errorf("deleting comment %d: %w", note.ID, err)
	}
	return nil
}

// ReviewComment is the payload for a single-line review comment.
type ReviewComment struct {
	Body     string `json:"body"`
	CommitID string `json:"commit_id"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Side     string `json:"side"`
}

// CreatePositionedComment comments on a line of the head version.
func (c *Client) CreatePositionedComment(ctx context.Context, pc forge.PositionedComment) error {
	payload := ReviewComment{
		Body:     pc.Body,
		CommitID: pc.Refs.Head,
		Path:     pc.Path,
		Line:     pc.Line,
		Side:     "RIGHT",
	}
	if err := c.do(ctx, http.MethodPost, c.repoPath("/pulls/%d/comments", c.number), payload, nil); err != nil {
		return fmt.Errorf("commenting on %s:%d: %w", pc.Path, pc.Line, err)
	}
	return nil
}

var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// paginate calls fn with every page of a collection, following the Link
// header.
func (c *Client) paginate(ctx context.Context, endpoint string, fn func([]byte) error) error {
	next := fmt.Sprintf("%s%s?per_page=%d", c.apiURL, endpoint, perPage)
	for next != "" {
		body, header, err := c.send(ctx, http.MethodGet, next, "", nil)
		if err != nil {
			return err
		}
		if err := fn(body); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
		next = ""
		if m := linkNextRe.FindStringSubmatch(header.Get("Link")); len(m) == 2 {
			next = m[1]
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}
	body, _, err := c.send(ctx, method, c.apiURL+endpoint, "", payload)
	if err != nil {
		return err
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, rawURL, accept string, payload []byte) ([]byte, http.Header, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	if accept == "" {
		accept = "application/vnd.github.v3+json"
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", accept)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &forge.APIError{
			Method:     method,
			Endpoint:   strings.TrimPrefix(rawURL, c.apiURL),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return body, resp.Header, nil
}

var (
	httpsRemoteRe = regexp.MustCompile(`https?://[^/]+/([^/]+)/([^/.\s]+)`)
	sshRemoteRe   = regexp.MustCompile(`[^@]+@[^:]+:([^/]+)/([^/.\s]+)`)
)

// DetectRepo parses owner/repo from the origin remote of the repository in
// dir.
func DetectRepo(ctx context.Context, dir string) (owner, repo string, err error) {
	cmd := exec.CommandContext(ctx, "git", "remote", "get-url", "origin")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", "", fmt.Errorf("cannot detect repo: git remote get-url origin failed: %w", err)
	}
	return ParseRemoteURL(strings.TrimSpace(string(out)))
}

// ParseRemoteURL extracts owner/repo from a git remote URL.
func ParseRemoteURL(remote string) (owner, repo string, err error) {
	remote = strings.TrimSuffix(remote, ".git")

	if m := httpsRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRemoteRe.FindStringSubmatch(remote); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("cannot parse owner/repo from remote URL: %s", remote)
}
