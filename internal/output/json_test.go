package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/mreview/internal/annotate"
	"github.com/dshills/mreview/internal/forge"
)

func TestJSONWriter(t *testing.T) {
	report := &Report{
		Tool:    "mreview",
		Version: "1.0",
		RunID:   "test-run",
		Unit:    "group/app!3",
		Stats:   annotate.Stats{FilesReviewed: 1, CommentsPublished: 1, CommentsDeleted: 2},
		Comments: []forge.PositionedComment{
			{Path: "main.go", Line: 4, Body: "b", Refs: forge.Refs{Base: "a", Head: "b", Start: "c"}},
		},
		Deleted: []forge.Note{{ID: 9, Body: "old"}},
	}

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if parsed.Tool != "mreview" || parsed.RunID != "test-run" {
		t.Errorf("header = %q/%q", parsed.Tool, parsed.RunID)
	}
	if parsed.Stats.CommentsDeleted != 2 {
		t.Errorf("Stats = %+v", parsed.Stats)
	}
	if len(parsed.Comments) != 1 || parsed.Comments[0].Refs.Head != "b" {
		t.Errorf("Comments = %+v", parsed.Comments)
	}
	if len(parsed.Deleted) != 1 {
		t.Errorf("Deleted = %+v", parsed.Deleted)
	}
}

func TestJSONWriter_EmptyCommentsIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONWriter{}).Write(&buf, &Report{Tool: "mreview"}); err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["comments"]) != "[]" {
		t.Errorf("comments = %s, want []", raw["comments"])
	}
}

func TestWriteReport_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteReport(&Report{Tool: "mreview"}, "json", path); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("file is not JSON: %s", data)
	}
}
