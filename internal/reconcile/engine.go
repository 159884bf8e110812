package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dshills/mreview/internal/annotate"
	"github.com/dshills/mreview/internal/diffmap"
	"github.com/dshills/mreview/internal/forge"
	"github.com/dshills/mreview/internal/logging"
	"github.com/dshills/mreview/internal/metrics"
	"github.com/dshills/mreview/internal/review"
	"github.com/dshills/mreview/internal/selector"
)

const tracerName = "github.com/dshills/mreview/internal/reconcile"

// Options configure a pass.
type Options struct {
	// Unit names the review unit in logs and spans, e.g. "group/app!42".
	Unit string
	// Rules is passed through to the analyzer unchanged.
	Rules string
	// MaxFileSize bounds the content sent to the analyzer, in bytes.
	// Zero or less disables truncation.
	MaxFileSize int
	// Footer is appended to the summary after the run ID, e.g. the
	// provider and model.
	Footer string
}

// Engine runs reconciliation passes against one store.
type Engine struct {
	store    forge.Store
	analyzer review.Analyzer
	selector *selector.Selector
	opts     Options

	log      logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	newRunID func() string
}

// Option customises an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMetrics records pass counters into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithTracer sets the tracer used for pass and state spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithRunID overrides run ID generation.
func WithRunID(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// New creates an Engine.
func New(store forge.Store, analyzer review.Analyzer, sel *selector.Selector, opts Options, options ...Option) *Engine {
	if sel == nil {
		sel = selector.New(nil, nil)
	}
	e := &Engine{
		store:    store,
		analyzer: analyzer,
		selector: sel,
		opts:     opts,
		log:      logging.Nop(),
		tracer:   otel.Tracer(tracerName),
		newRunID: uuid.NewString,
	}
	for _, o := range options {
		o(e)
	}
	return e
}

// Result describes a completed pass.
type Result struct {
	RunID         string
	SummaryNoteID int64
	Stats         annotate.Stats
	// Dropped counts findings discarded before publication.
	Dropped int
}

// pending is an accepted finding waiting to be published.
type pending struct {
	path    string
	finding review.Finding
}

// Run executes one pass: discover, prune, ensure summary, analyze, publish,
// finalize. Reads that fail and analyzer transport errors abort the pass;
// failed deletions and failed comments are logged and counted.
func (e *Engine) Run(ctx context.Context) (res Result, err error) {
	res.RunID = e.newRunID()
	log := e.log.With("unit", e.opts.Unit, "run_id", res.RunID)

	ctx, span := e.tracer.Start(ctx, "reconcile.pass", trace.WithAttributes(
		attribute.String("unit", e.opts.Unit),
		attribute.String("run_id", res.RunID),
	))
	defer func() {
		span.SetAttributes(
			attribute.Int("files_reviewed", res.Stats.FilesReviewed),
			attribute.Int("comments_published", res.Stats.CommentsPublished),
			attribute.Int("comments_deleted", res.Stats.CommentsDeleted),
		)
		endSpan(span, err)
	}()

	cs, discussions, err := e.discover(ctx, log)
	if err != nil {
		return res, err
	}

	e.prune(ctx, log, discussions, &res.Stats)

	summaryID, err := e.ensureSummary(ctx, log)
	if err != nil {
		return res, err
	}
	res.SummaryNoteID = summaryID

	accepted, dropped, err := e.analyze(ctx, log, cs, &res.Stats)
	res.Dropped = dropped
	if err != nil {
		return res, err
	}

	e.publish(ctx, log, cs.Refs, accepted, &res.Stats)

	if err := e.finalize(ctx, log, summaryID, res.RunID, res.Stats); err != nil {
		return res, err
	}
	log.Info("pass complete",
		"files_reviewed", res.Stats.FilesReviewed,
		"comments_published", res.Stats.CommentsPublished,
		"comments_deleted", res.Stats.CommentsDeleted,
		"findings_dropped", dropped)
	return res, nil
}

func (e *Engine) discover(ctx context.Context, log logging.Logger) (_ *forge.ChangeSet, _ []forge.Discussion, err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.discover")
	defer func() { endSpan(span, err) }()

	cs, err := e.store.FetchChangeSet(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching change set: %w", err)
	}
	discussions, err := e.store.ListDiscussions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing discussions: %w", err)
	}
	span.SetAttributes(
		attribute.Int("files", len(cs.Files)),
		attribute.Int("discussions", len(discussions)),
	)
	log.Info("discovered", "files", len(cs.Files), "discussions", len(discussions), "source_ref", cs.SourceRef)
	return cs, discussions, nil
}

func (e *Engine) prune(ctx context.Context, log logging.Logger, discussions []forge.Discussion, st *annotate.Stats) {
	ctx, span := e.tracer.Start(ctx, "reconcile.prune")
	defer span.End()

	for _, d := range discussions {
		for _, n := range d.Notes {
			if !annotate.IsAuthored(n.Body) {
				continue
			}
			if err := e.store.DeleteNote(ctx, n); err != nil {
				st.DeleteFailures++
				e.metrics.Failure(metrics.OpDelete)
				span.RecordError(err)
				log.Warn("delete stale comment failed", "note_id", n.ID, "discussion", d.ID, "error", err)
				continue
			}
			st.CommentsDeleted++
			e.metrics.CommentDeleted()
			log.Debug("deleted stale comment", "note_id", n.ID, "discussion", d.ID)
		}
	}
	span.SetAttributes(
		attribute.Int("deleted", st.CommentsDeleted),
		attribute.Int("failed", st.DeleteFailures),
	)
}

func (e *Engine) ensureSummary(ctx context.Context, log logging.Logger) (_ int64, err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.ensure_summary")
	defer func() { endSpan(span, err) }()

	notes, err := e.store.ListNotes(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing notes: %w", err)
	}
	for _, n := range notes {
		if annotate.IsSummary(n.Body) {
			span.SetAttributes(attribute.Bool("reused", true), attribute.Int64("note_id", n.ID))
			log.Info("reusing summary note", "note_id", n.ID)
			return n.ID, nil
		}
	}
	n, err := e.store.CreateNote(ctx, annotate.Placeholder())
	if err != nil {
		return 0, fmt.Errorf("creating summary note: %w", err)
	}
	span.SetAttributes(attribute.Bool("reused", false), attribute.Int64("note_id", n.ID))
	log.Info("created summary placeholder", "note_id", n.ID)
	return n.ID, nil
}

func (e *Engine) analyze(ctx context.Context, log logging.Logger, cs *forge.ChangeSet, st *annotate.Stats) (_ []pending, dropped int, err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.analyze")
	defer func() {
		span.SetAttributes(attribute.Int("dropped", dropped))
		endSpan(span, err)
	}()

	var accepted []pending
	for _, fc := range cs.Files {
		if !e.selector.ShouldReview(fc.Path) {
			log.Debug("skipping file", "file", fc.Path, "reason", "not selected")
			continue
		}
		if fc.Deleted {
			log.Debug("skipping file", "file", fc.Path, "reason", "deleted")
			continue
		}
		st.FilesReviewed++
		e.metrics.FileReviewed()

		findings, n, err := e.analyzeFile(ctx, log, cs.SourceRef, fc)
		dropped += n
		if err != nil {
			return accepted, dropped, err
		}
		for _, f := range findings {
			accepted = append(accepted, pending{path: fc.Path, finding: f})
		}
	}
	span.SetAttributes(
		attribute.Int("files_reviewed", st.FilesReviewed),
		attribute.Int("accepted", len(accepted)),
	)
	return accepted, dropped, nil
}

// analyzeFile returns the publishable findings for one file and how many
// were dropped.
func (e *Engine) analyzeFile(ctx context.Context, log logging.Logger, ref string, fc forge.FileChange) ([]review.Finding, int, error) {
	eligible := diffmap.EligibleLines(fc.Diff)
	if len(eligible) == 0 {
		log.Debug("no eligible lines", "file", fc.Path)
		return nil, 0, nil
	}

	content, found, err := e.store.FetchFileContent(ctx, fc.Path, ref)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching %s at %s: %w", fc.Path, ref, err)
	}
	if !found || strings.TrimSpace(content) == "" {
		e.metrics.Failure(metrics.OpContent)
		log.Warn("file content unavailable, skipping", "file", fc.Path, "ref", ref)
		return nil, 0, nil
	}
	if e.opts.MaxFileSize > 0 {
		content = review.Truncate(content, e.opts.MaxFileSize)
	}

	start := time.Now()
	findings, err := e.analyzer.Analyze(ctx, review.AnalyzeRequest{
		Path:          fc.Path,
		Content:       content,
		Diff:          fc.Diff,
		EligibleLines: eligible,
		Rules:         e.opts.Rules,
	})
	var malformed *review.MalformedOutputError
	switch {
	case errors.As(err, &malformed):
		e.metrics.ObserveAdvisory(time.Since(start), "malformed")
		e.metrics.FindingsDropped(metrics.DropMalformed, 1)
		log.Warn("malformed advisory output, no findings for file", "file", fc.Path, "excerpt", malformed.Excerpt)
		return nil, 1, nil
	case err != nil:
		e.metrics.ObserveAdvisory(time.Since(start), "error")
		e.metrics.Failure(metrics.OpAnalyze)
		return nil, 0, fmt.Errorf("analyzing %s: %w", fc.Path, err)
	}
	e.metrics.ObserveAdvisory(time.Since(start), "ok")

	lines := diffmap.NewLineSet(eligible)
	var kept []review.Finding
	var ineligible, empty int
	for _, f := range findings {
		if strings.TrimSpace(f.Message) == "" {
			empty++
			continue
		}
		if !lines.Contains(f.Line) {
			ineligible++
			log.Debug("dropping finding on ineligible line", "file", fc.Path, "line", f.Line)
			continue
		}
		kept = append(kept, f)
	}
	e.metrics.FindingsDropped(metrics.DropEmptyMessage, empty)
	e.metrics.FindingsDropped(metrics.DropIneligible, ineligible)
	log.Info("analyzed file", "file", fc.Path, "eligible_lines", len(eligible), "findings", len(findings), "accepted", len(kept))
	return kept, empty + ineligible, nil
}

func (e *Engine) publish(ctx context.Context, log logging.Logger, refs forge.Refs, accepted []pending, st *annotate.Stats) {
	ctx, span := e.tracer.Start(ctx, "reconcile.publish")
	defer span.End()

	for _, p := range accepted {
		c := forge.PositionedComment{
			Path: p.path,
			Line: p.finding.Line,
			Body: annotate.Format(p.finding),
			Refs: refs,
		}
		if err := e.store.CreatePositionedComment(ctx, c); err != nil {
			st.CommentFailures++
			e.metrics.Failure(metrics.OpComment)
			span.RecordError(err)
			log.Warn("create comment failed", "file", p.path, "line", p.finding.Line, "error", err)
			continue
		}
		st.CommentsPublished++
		e.metrics.CommentPublished()
		log.Debug("published comment", "file", p.path, "line", p.finding.Line, "severity", string(p.finding.Severity))
	}
	span.SetAttributes(
		attribute.Int("published", st.CommentsPublished),
		attribute.Int("failed", st.CommentFailures),
	)
}

func (e *Engine) finalize(ctx context.Context, log logging.Logger, noteID int64, runID string, st annotate.Stats) (err error) {
	ctx, span := e.tracer.Start(ctx, "reconcile.finalize", trace.WithAttributes(attribute.Int64("note_id", noteID)))
	defer func() { endSpan(span, err) }()

	footer := "Run " + runID
	if e.opts.Footer != "" {
		footer += " · " + e.opts.Footer
	}
	if _, err := e.store.UpdateNote(ctx, noteID, annotate.Summary(st, footer)); err != nil {
		return fmt.Errorf("updating summary note %d: %w", noteID, err)
	}
	log.Debug("summary updated", "note_id", noteID)
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
