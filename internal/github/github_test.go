package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dshills/mreview/internal/forge"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		token:   "test-token",
		apiURL:  server.URL,
		owner:   "owner",
		repo:    "repo",
		number:  42,
		httpCli: server.Client(),
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient("", "tok", "owner", "repo", 1)
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	if c.apiURL != defaultAPIURL {
		t.Errorf("apiURL = %q, want %q", c.apiURL, defaultAPIURL)
	}
	if c.Unit() != "owner/repo#1" {
		t.Errorf("Unit() = %q", c.Unit())
	}
	if _, err := NewClient("", "", "owner", "repo", 1); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewClient("", "tok", "owner", "", 1); err == nil {
		t.Error("expected error for missing repo")
	}
}

func TestFetchChangeSet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), "Bearer test-token")
		}
		switch r.URL.Path {
		case "/repos/owner/repo/pulls/42":
			w.Write([]byte(`{"title":"Fix","html_url":"https://github.com/owner/repo/pull/42","head":{"sha":"h1","ref":"fix"},"base":{"sha":"b1"}}`))
		case "/repos/owner/repo/pulls/42/files":
			if r.URL.Query().Get("page") == "" {
				w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/owner/repo/pulls/42/files?per_page=100&page=2>; rel="next", <http://%s/x>; rel="last"`, r.Host, r.Host))
				w.Write([]byte(`[{"filename":"a.go","status":"modified","patch":"@@ -1 +1 @@\n-x\n+y"},{"filename":"b.go","status":"removed"}]`))
				return
			}
			w.Write([]byte(`[{"filename":"c.go","previous_filename":"old.go","status":"renamed","patch":""},{"filename":"d.go","status":"added","patch":"@@ -0,0 +1 @@\n+z"}]`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer server.Close()

	cs, err := newTestClient(server).FetchChangeSet(context.Background())
	if err != nil {
		t.Fatalf("FetchChangeSet error: %v", err)
	}
	if cs.Refs != (forge.Refs{Base: "b1", Head: "h1", Start: "b1"}) {
		t.Errorf("Refs = %+v", cs.Refs)
	}
	if cs.SourceRef != "h1" {
		t.Errorf("SourceRef = %q, want head sha", cs.SourceRef)
	}
	if len(cs.Files) != 4 {
		t.Fatalf("Files = %d, want 4", len(cs.Files))
	}
	if !cs.Files[1].Deleted || !cs.Files[2].Renamed || cs.Files[2].OldPath != "old.go" || !cs.Files[3].New {
		t.Errorf("files = %+v", cs.Files)
	}
}

func TestFetchFileContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.raw" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.URL.Path == "/repos/owner/repo/contents/src/my file.go" && r.URL.Query().Get("ref") == "h1" {
			w.Write([]byte("package src\n"))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer server.Close()
	c := newTestClient(server)

	content, found, err := c.FetchFileContent(context.Background(), "src/my file.go", "h1")
	if err != nil || !found || content != "package src\n" {
		t.Errorf("FetchFileContent = (%q, %v, %v)", content, found, err)
	}
	content, found, err = c.FetchFileContent(context.Background(), "nope.go", "h1")
	if err != nil || found || content != "" {
		t.Errorf("missing file = (%q, %v, %v)", content, found, err)
	}
}

func TestListDiscussions_GroupsReplies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":1,"body":"root"},
			{"id":2,"body":"reply","in_reply_to_id":1},
			{"id":3,"body":"other"}
		]`))
	}))
	defer server.Close()

	discussions, err := newTestClient(server).ListDiscussions(context.Background())
	if err != nil {
		t.Fatalf("ListDiscussions error: %v", err)
	}
	if len(discussions) != 2 {
		t.Fatalf("discussions = %d, want 2", len(discussions))
	}
	if len(discussions[0].Notes) != 2 || discussions[0].ID != "1" {
		t.Errorf("discussions[0] = %+v", discussions[0])
	}
	if discussions[0].Notes[1].Kind != kindReview {
		t.Errorf("review comment kind = %q", discussions[0].Notes[1].Kind)
	}
}

func TestDeleteNote_ByKind(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	c := newTestClient(server)

	if err := c.DeleteNote(context.Background(), forge.Note{ID: 5, Kind: kindReview}); err != nil {
		t.Fatal(err)
	}
	if err := c.DeleteNote(context.Background(), forge.Note{ID: 6, Kind: kindIssue}); err != nil {
		t.Fatal(err)
	}
	want := []string{"/repos/owner/repo/pulls/comments/5", "/repos/owner/repo/issues/comments/6"}
	if len(paths) != 2 || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestNotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/repo/issues/42/comments":
			w.Write([]byte(`[{"id":7,"body":"## mreview"}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/repos/owner/repo/issues/42/comments":
			var b commentBody
			json.NewDecoder(r.Body).Decode(&b)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(apiComment{ID: 8, Body: b.Body})
		case r.Method == http.MethodPatch && r.URL.Path == "/repos/owner/repo/issues/comments/8":
			var b commentBody
			json.NewDecoder(r.Body).Decode(&b)
			json.NewEncoder(w).Encode(apiComment{ID: 8, Body: b.Body})
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()
	c := newTestClient(server)
	ctx := context.Background()

	notes, err := c.ListNotes(ctx)
	if err != nil || len(notes) != 1 || notes[0].ID != 7 {
		t.Errorf("ListNotes = %+v, %v", notes, err)
	}
	n, err := c.CreateNote(ctx, "placeholder")
	if err != nil || n.ID != 8 || n.Body != "placeholder" {
		t.Errorf("CreateNote = %+v, %v", n, err)
	}
	n, err = c.UpdateNote(ctx, 8, "done")
	if err != nil || n.Body != "done" {
		t.Errorf("UpdateNote = %+v, %v", n, err)
	}
}

func TestCreatePositionedComment(t *testing.T) {
	var got ReviewComment
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/owner/repo/pulls/42/comments" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":1}`))
	}))
	defer server.Close()

	err := newTestClient(server).CreatePositionedComment(context.Background(), forge.PositionedComment{
		Path: "a.go", Line: 9, Body: "body", Refs: forge.Refs{Base: "b", Head: "h", Start: "b"},
	})
	if err != nil {
		t.Fatalf("CreatePositionedComment error: %v", err)
	}
	want := ReviewComment{Body: "body", CommitID: "h", Path: "a.go", Line: 9, Side: "RIGHT"}
	if got != want {
		t.Errorf("payload = %+v, want %+v", got, want)
	}
}

func TestCreatePositionedComment_Unprocessable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"line must be part of the diff"}`))
	}))
	defer server.Close()

	err := newTestClient(server).CreatePositionedComment(context.Background(), forge.PositionedComment{Path: "a.go", Line: 1})
	if err == nil {
		t.Fatal("expected error for 422")
	}
}

func TestFetchChangeSet_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server).FetchChangeSet(context.Background())
	if !forge.IsAuth(err) {
		t.Errorf("expected auth error, got %v", err)
	}
}

func TestParseRemoteURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		{
			name:      "HTTPS",
			url:       "https://github.com/acme/shop.git",
			wantOwner: "acme",
			wantRepo:  "shop",
		},
		{
			name:      "HTTPS no .git",
			url:       "https://github.com/acme/shop",
			wantOwner: "acme",
			wantRepo:  "shop",
		},
		{
			name:      "SSH",
			url:       "git@github.com:acme/shop.git",
			wantOwner: "acme",
			wantRepo:  "shop",
		},
		{
			name:      "SSH no .git",
			url:       "git@github.com:acme/shop",
			wantOwner: "acme",
			wantRepo:  "shop",
		},
		{
			name:    "invalid",
			url:     "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseRemoteURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if owner != tt.wantOwner {
				t.Errorf("owner = %q, want %q", owner, tt.wantOwner)
			}
			if repo != tt.wantRepo {
				t.Errorf("repo = %q, want %q", repo, tt.wantRepo)
			}
		})
	}
}
