package forge

import (
	"context"
	"fmt"
)

// Recorder keeps notes and comments in memory. It implements the write
// side of Store for stores that publish nothing.
type Recorder struct {
	nextID      int64
	notes       []Note
	discussions []Discussion
	comments    []PositionedComment
	deleted     []Note
}

// ListDiscussions returns the discussions recorded so far.
func (r *Recorder) ListDiscussions(context.Context) ([]Discussion, error) {
	out := make([]Discussion, len(r.discussions))
	for i, d := range r.discussions {
		out[i] = Discussion{ID: d.ID, Notes: append([]Note(nil), d.Notes...)}
	}
	return out, nil
}

// ListNotes returns the notes recorded so far.
func (r *Recorder) ListNotes(context.Context) ([]Note, error) {
	return append([]Note(nil), r.notes...), nil
}

// CreateNote records a note.
func (r *Recorder) CreateNote(_ context.Context, body string) (Note, error) {
	r.nextID++
	n := Note{ID: r.nextID, Body: body}
	r.notes = append(r.notes, n)
	return n, nil
}

// UpdateNote replaces the body of a recorded note.
func (r *Recorder) UpdateNote(_ context.Context, noteID int64, body string) (Note, error) {
	for i := range r.notes {
		if r.notes[i].ID == noteID {
			r.notes[i].Body = body
			return r.notes[i], nil
		}
	}
	return Note{}, fmt.Errorf("note %d not found", noteID)
}

// DeleteNote removes a recorded note or discussion note.
func (r *Recorder) DeleteNote(_ context.Context, note Note) error {
	for i, n := range r.notes {
		if n.ID == note.ID {
			r.notes = append(r.notes[:i], r.notes[i+1:]...)
			r.deleted = append(r.deleted, n)
			return nil
		}
	}
	for i, d := range r.discussions {
		for j, n := range d.Notes {
			if n.ID == note.ID {
				r.discussions[i].Notes = append(d.Notes[:j], d.Notes[j+1:]...)
				r.deleted = append(r.deleted, n)
				return nil
			}
		}
	}
	return fmt.Errorf("note %d not found", note.ID)
}

// CreatePositionedComment records a comment as a new single-note
// discussion.
func (r *Recorder) CreatePositionedComment(_ context.Context, c PositionedComment) error {
	r.nextID++
	r.comments = append(r.comments, c)
	r.discussions = append(r.discussions, Discussion{
		ID:    fmt.Sprintf("local-%d", r.nextID),
		Notes: []Note{{ID: r.nextID, Body: c.Body}},
	})
	return nil
}

// Comments returns the positioned comments recorded so far.
func (r *Recorder) Comments() []PositionedComment {
	return append([]PositionedComment(nil), r.comments...)
}

// Deleted returns the notes deleted so far.
func (r *Recorder) Deleted() []Note {
	return append([]Note(nil), r.deleted...)
}

// Note returns the recorded note with id.
func (r *Recorder) Note(id int64) (Note, bool) {
	for _, n := range r.notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// DryRun reads from another store and records every write instead of
// performing it. Existing notes and discussions stay visible, so a pass
// shows what it would prune and which summary it would reuse.
type DryRun struct {
	inner   Store
	lastTmp int64
	Recorder
}

var _ Store = (*DryRun)(nil)

// NewDryRun wraps inner.
func NewDryRun(inner Store) *DryRun {
	return &DryRun{inner: inner}
}

func (d *DryRun) FetchChangeSet(ctx context.Context) (*ChangeSet, error) {
	return d.inner.FetchChangeSet(ctx)
}

func (d *DryRun) FetchFileContent(ctx context.Context, path, ref string) (string, bool, error) {
	return d.inner.FetchFileContent(ctx, path, ref)
}

// ListDiscussions returns the inner store's discussions.
func (d *DryRun) ListDiscussions(ctx context.Context) ([]Discussion, error) {
	return d.inner.ListDiscussions(ctx)
}

// ListNotes returns the inner store's notes, with recorded updates applied,
// followed by recorded notes.
func (d *DryRun) ListNotes(ctx context.Context) ([]Note, error) {
	notes, err := d.inner.ListNotes(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(notes))
	for i, n := range notes {
		if rec, ok := d.Note(n.ID); ok {
			notes[i] = rec
			seen[n.ID] = true
		}
	}
	for _, n := range d.notes {
		if !seen[n.ID] {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// CreateNote records a note with an ID below zero so it cannot collide
// with a real one.
func (d *DryRun) CreateNote(_ context.Context, body string) (Note, error) {
	d.lastTmp--
	n := Note{ID: d.lastTmp, Body: body}
	d.notes = append(d.notes, n)
	return n, nil
}

// UpdateNote records the new body for noteID.
func (d *DryRun) UpdateNote(_ context.Context, noteID int64, body string) (Note, error) {
	for i := range d.notes {
		if d.notes[i].ID == noteID {
			d.notes[i].Body = body
			return d.notes[i], nil
		}
	}
	n := Note{ID: noteID, Body: body}
	d.notes = append(d.notes, n)
	return n, nil
}

// DeleteNote records the deletion.
func (d *DryRun) DeleteNote(_ context.Context, note Note) error {
	d.deleted = append(d.deleted, note)
	return nil
}
