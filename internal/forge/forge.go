package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Refs are the revision anchors a positioned comment is attached to.
type Refs struct {
	Base  string `json:"base"`
	Head  string `json:"head"`
	Start string `json:"start"`
}

// FileChange is one changed file with its unified diff.
type FileChange struct {
	Path    string `json:"path"`
	OldPath string `json:"oldPath,omitempty"`
	Diff    string `json:"diff"`
	Deleted bool   `json:"deleted,omitempty"`
	New     bool   `json:"new,omitempty"`
	Renamed bool   `json:"renamed,omitempty"`
}

// ChangeSet is the set of changes under review. It does not change during a
// pass.
type ChangeSet struct {
	Files     []FileChange `json:"files"`
	Refs      Refs         `json:"refs"`
	SourceRef string       `json:"sourceRef"`
	Title     string       `json:"title,omitempty"`
	WebURL    string       `json:"webUrl,omitempty"`
}

// Note is a single comment in the store. Kind distinguishes stores that keep
// positioned and general comments in separate collections; it is opaque to
// callers and passed back unchanged to DeleteNote.
type Note struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	Kind string `json:"kind,omitempty"`
}

// Discussion is a thread of notes.
type Discussion struct {
	ID    string `json:"id"`
	Notes []Note `json:"notes"`
}

// PositionedComment is a comment anchored to a line of the new version of
// a file.
type PositionedComment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Body string `json:"body"`
	Refs Refs   `json:"refs"`
}

// Store reads and mutates the comments of one review unit.
type Store interface {
	FetchChangeSet(ctx context.Context) (*ChangeSet, error)
	// FetchFileContent returns found=false when the file does not exist at
	// ref.
	FetchFileContent(ctx context.Context, path, ref string) (content string, found bool, err error)
	ListDiscussions(ctx context.Context) ([]Discussion, error)
	ListNotes(ctx context.Context) ([]Note, error)
	CreateNote(ctx context.Context, body string) (Note, error)
	UpdateNote(ctx context.Context, noteID int64, body string) (Note, error)
	DeleteNote(ctx context.Context, note Note) error
	CreatePositionedComment(ctx context.Context, c PositionedComment) error
}

// APIError is a non-2xx response from a change-tracking service.
type APIError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuth reports whether err is an APIError with status 401 or 403.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
