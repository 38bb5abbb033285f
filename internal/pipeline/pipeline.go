// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a build: it walks the project's pages in order,
// renders the ones that need it into the staging directory, and assembles
// the staged pages into the output document.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/pdiddy/pagemill/internal/assemble"
	"github.com/pdiddy/pagemill/internal/journal"
	"github.com/pdiddy/pagemill/internal/project"
	"github.com/pdiddy/pagemill/internal/render"
	"github.com/pdiddy/pagemill/internal/staging"
	"github.com/pdiddy/pagemill/pkg/types"
)

// Recorder receives a log of what each run wrote. *journal.Journal
// implements it.
type Recorder interface {
	BeginRun(ctx context.Context, project string, opts types.RunOptions) (string, error)
	RecordPage(ctx context.Context, runID string, rec journal.PageRecord) error
	FinishRun(ctx context.Context, runID string, rendered int, assembled bool) error
}

// Result holds the outcome of a build.
type Result struct {
	Rendered     int
	Skipped      int
	Failed       int
	Placeholders int
	Pruned       int
	Assembled    bool
	Document     assemble.Summary
}

// Total returns the number of pages visited.
func (r Result) Total() int {
	return r.Rendered + r.Skipped + r.Failed
}

// Changed reports whether the staging directory differs from the last
// assembled document.
func (r Result) Changed() bool {
	return r.Rendered > 0 || r.Pruned > 0
}

// HasFailures reports whether any page failed.
func (r Result) HasFailures() bool {
	return r.Failed > 0
}

// Pipeline builds one project.
type Pipeline struct {
	project  *types.Project
	resolver *project.Resolver
	renderer *render.Renderer
	recorder Recorder
	w        io.Writer
	log      *slog.Logger

	runID string
	width int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder journals the run to rec.
func WithRecorder(rec Recorder) Option {
	return func(p *Pipeline) { p.recorder = rec }
}

// WithLogger sets the diagnostic logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New returns a Pipeline that renders proj with r and prints progress to w.
func New(proj *types.Project, r *render.Renderer, w io.Writer, opts ...Option) *Pipeline {
	p := &Pipeline{
		project:  proj,
		resolver: project.NewResolver(proj),
		renderer: r,
		w:        w,
		log:      slog.Default(),
		width:    staging.PadWidth(len(proj.Pages)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one build. Image pages are rendered when the freshness check
// asks for it; blank and placeholder pages are always rendered but only
// count as updates when their staged bytes change; front matter is
// re-rendered when it is missing, forced, or when any other page changed.
// The document is assembled when anything was written, when forced, or when
// opts.PDFOnly is set. The first hard error stops the run.
func (p *Pipeline) Run(ctx context.Context, opts types.RunOptions) (Result, error) {
	var result Result
	p.beginRun(ctx, opts)

	if !opts.PDFOnly {
		if err := p.renderPages(ctx, opts, &result); err != nil {
			p.finishRun(ctx, result)
			return result, err
		}
		fmt.Fprintf(p.w, "\nBuild summary: %d rendered, %d skipped, %d placeholder(s) (total: %d)\n",
			result.Rendered, result.Skipped, result.Placeholders, result.Total())
	}

	if !result.Changed() && !opts.Force && !opts.PDFOnly {
		fmt.Fprintln(p.w, "No update needed")
		p.finishRun(ctx, result)
		return result, nil
	}

	files, err := staging.List(p.project.Settings.Staging)
	if err != nil {
		p.finishRun(ctx, result)
		return result, err
	}
	s := p.project.Settings
	summary, err := assemble.Assemble(files, s.Output, assemble.Metadata{
		Title:  s.Title,
		Author: s.Author,
		DPI:    s.DPI,
	}, p.w)
	if err != nil {
		p.finishRun(ctx, result)
		return result, err
	}
	result.Assembled = true
	result.Document = summary
	p.finishRun(ctx, result)
	return result, nil
}

func (p *Pipeline) renderPages(ctx context.Context, opts types.RunOptions, result *Result) error {
	var frontMatter []int

	for i, page := range p.project.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		kind := p.resolver.Type(page)
		var err error
		switch {
		case !kind.Valid():
			err = p.store(ctx, i, "invalid", "", p.renderer.Invalid(string(kind)), false, result)
		case kind == types.PageImage:
			err = p.imagePage(ctx, i, page, opts, result)
		case kind == types.PageBlank:
			err = p.store(ctx, i, string(kind), "", p.renderer.Blank(), false, result)
		case kind == types.PageFrontMatter:
			frontMatter = append(frontMatter, i)
		}
		if err != nil {
			result.Failed++
			fmt.Fprintf(p.w, "failed:  %s (%v)\n", p.label(i), err)
			return fmt.Errorf("page %d: %w", i, err)
		}
	}

	removed, err := staging.Prune(p.project.Settings.Staging, p.project.Settings.Prefix, len(p.project.Pages), p.width)
	if err != nil {
		return err
	}
	for _, f := range removed {
		fmt.Fprintf(p.w, "pruned: %s\n", filepath.Base(f))
	}
	result.Pruned = len(removed)

	// Front matter carries the build time, so it follows the rest of the
	// book instead of forcing a rebuild on every run.
	changed := result.Changed()
	for _, i := range frontMatter {
		out := p.stagedPath(i)
		if !opts.Force && !changed && staging.Exists(out) {
			result.Skipped++
			fmt.Fprintf(p.w, "skipped: %s (frontmatter up to date)\n", p.label(i))
			continue
		}
		if err := p.store(ctx, i, string(types.PageFrontMatter), "", p.renderer.FrontMatter(), true, result); err != nil {
			result.Failed++
			fmt.Fprintf(p.w, "failed:  %s (%v)\n", p.label(i), err)
			return fmt.Errorf("page %d: %w", i, err)
		}
	}
	return nil
}

func (p *Pipeline) imagePage(ctx context.Context, i int, page types.PageDescriptor, opts types.RunOptions, result *Result) error {
	src, err := p.resolver.SourcePath(page)
	if err != nil {
		return err
	}
	out := p.stagedPath(i)
	update := staging.NeedsUpdate(src, out, opts.Force)
	p.log.Debug("freshness check", "page", i, "source", src, "output", out, "update", update)
	if !update {
		result.Skipped++
		fmt.Fprintf(p.w, "skipped: %s (%s up to date)\n", p.label(i), filepath.Base(src))
		return nil
	}

	colorspace, _ := p.resolver.Resolve(page, types.FieldColorspace)
	memo, _ := p.resolver.Resolve(page, types.FieldMemo)
	fmt.Fprintf(p.w, "processing: %s\n", src)
	rendered, err := p.renderer.Image(render.ImageRequest{
		Index:      i,
		Source:     src,
		Colorspace: colorspace,
		Memo:       memo,
		Annotate:   !opts.SuppressAnnotations,
	})
	if err != nil {
		return err
	}
	return p.store(ctx, i, string(types.PageImage), src, rendered, true, result)
}

// store writes a rendered page to its staging slot. A page whose encoded
// bytes match the staged file is counted as skipped. When touch is set the
// unchanged file's mtime is refreshed so the freshness check sees it as
// current again.
func (p *Pipeline) store(ctx context.Context, i int, kind, source string, page *render.Page, touch bool, result *Result) error {
	out := p.stagedPath(i)
	res, err := staging.Write(out, page.Image)
	if err != nil {
		return err
	}
	if !res.Written {
		if touch {
			if err := staging.Touch(out); err != nil {
				return fmt.Errorf("touching %s: %w", filepath.Base(out), err)
			}
		}
		result.Skipped++
		fmt.Fprintf(p.w, "skipped: %s (%s unchanged)\n", p.label(i), kind)
		return nil
	}

	result.Rendered++
	if page.Placeholder {
		result.Placeholders++
		fmt.Fprintf(p.w, "placeholder: %s (%s)\n", p.label(i), page.Stamps[0])
	} else {
		fmt.Fprintf(p.w, "rendered: %s (%s)\n", p.label(i), kind)
	}

	p.record(ctx, journal.PageRecord{
		Index:  i,
		Kind:   kind,
		Source: source,
		Staged: filepath.Base(out),
		Digest: res.Digest,
	})
	return nil
}

func (p *Pipeline) stagedPath(i int) string {
	s := p.project.Settings
	return staging.PagePath(s.Staging, s.Prefix, i, p.width)
}

func (p *Pipeline) label(i int) string {
	return fmt.Sprintf("page %0*d", p.width, i)
}

func (p *Pipeline) beginRun(ctx context.Context, opts types.RunOptions) {
	if p.recorder == nil {
		return
	}
	id, err := p.recorder.BeginRun(ctx, p.project.Path, opts)
	if err != nil {
		fmt.Fprintf(p.w, "warning: journal: %v\n", err)
		return
	}
	p.runID = id
	p.log.Debug("journal run started", "run", id)
}

func (p *Pipeline) record(ctx context.Context, rec journal.PageRecord) {
	if p.recorder == nil || p.runID == "" {
		return
	}
	if err := p.recorder.RecordPage(ctx, p.runID, rec); err != nil {
		fmt.Fprintf(p.w, "warning: journal: %v\n", err)
	}
}

func (p *Pipeline) finishRun(ctx context.Context, result Result) {
	if p.recorder == nil || p.runID == "" {
		return
	}
	if err := p.recorder.FinishRun(context.WithoutCancel(ctx), p.runID, result.Rendered, result.Assembled); err != nil {
		fmt.Fprintf(p.w, "warning: journal: %v\n", err)
	}
}
