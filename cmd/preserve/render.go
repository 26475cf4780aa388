package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	preserve "github.com/alnah/go-preserve"
	"github.com/alnah/go-preserve/internal/assets"
	"github.com/alnah/go-preserve/internal/config"
	"github.com/alnah/go-preserve/internal/fileutil"
	"github.com/alnah/go-preserve/internal/pipeline"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Sentinel errors for render operations.
var (
	ErrReadInput       = errors.New("failed to read input")
	ErrWriteOutput     = errors.New("failed to write output")
	ErrCreateOutputDir = errors.New("failed to create output directory")
	ErrPageTemplate    = errors.New("invalid page template")
)

// outputExt is the extension of rendered files.
const outputExt = ".html"

// stdinName labels standard input in messages.
const stdinName = "<stdin>"

// RenderResult holds the outcome of a single file.
type RenderResult struct {
	InputPath  string
	OutputPath string // empty when written to stdout
	HTML       string
	Err        error
	Duration   time.Duration
}

// renderJob carries what every file in a batch shares.
type renderJob struct {
	preserver  *preserve.Preserver
	channel    preserve.Channel
	opts       preserve.Options
	formatters []preserve.Formatter
	rebase     bool
	page       *pipeline.Page // nil unless --page
	css        string
	outDir     string
	now        func() time.Time
}

// render filters text and, in page mode, wraps the result. Relative links
// in text resolve from sourceDir; without an output directory they are
// rebased to file:// URLs.
func (j *renderJob) render(ctx context.Context, text, sourceDir, title string) (string, error) {
	formatters := j.formatters
	if j.rebase {
		formatters = append(slices.Clip(formatters), preserve.NewLinkRebaser(sourceDir, j.outDir))
	}

	out, err := j.preserver.Filter(ctx, j.channel, text, j.opts, formatters...)
	if err != nil {
		return "", err
	}
	if j.page == nil {
		return out, nil
	}
	return j.page.Wrap(ctx, pipeline.PageData{Title: title, CSS: j.css, Body: out})
}

func runRender(ctx context.Context, args []string, env *Environment) error {
	flags, fs, files, err := parseRenderFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printRenderUsage(env.Stdout)
			return nil
		}
		return err
	}

	s, err := openSession(ctx, flags.common, fs, env)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	channel, err := preserve.ParseChannel(s.cfg.Render.Channel)
	if err != nil {
		return err
	}

	// One snapshot for the whole batch.
	opts, err := s.settings.Load(ctx)
	if err != nil {
		return err
	}

	job := &renderJob{
		preserver:  preserve.NewPreserver(preserve.WithLogger(s.log)),
		channel:    channel,
		opts:       opts,
		formatters: buildFormatters(s.cfg.Render),
		rebase:     s.cfg.Render.RebaseLinks,
		outDir:     flags.output,
		now:        env.Now,
	}
	if s.cfg.Render.Page {
		if job.page, job.css, err = loadPage(s.cfg.Render); err != nil {
			return err
		}
	}

	if len(files) == 0 {
		return renderStdin(ctx, job, env)
	}

	if job.outDir != "" {
		if err := os.MkdirAll(job.outDir, dirPermissions); err != nil {
			return fmt.Errorf("%w: %w", ErrCreateOutputDir, err)
		}
	}

	workers := resolveWorkers(s.cfg.Render.Workers)
	s.log.Debug("rendering",
		zap.Int("files", len(files)),
		zap.Int("workers", workers),
		zap.String("channel", string(channel)),
		zap.String("format", s.cfg.Render.Format),
	)

	results := renderBatch(ctx, job, files, workers)
	failed := printResults(results, flags.common, env)
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed: %w", failed, len(results), firstError(results))
	}
	return nil
}

func buildFormatters(rc config.RenderConfig) []preserve.Formatter {
	if rc.Format != config.FormatMarkdown {
		return nil
	}
	var opts []preserve.MarkdownOption
	if rc.RawHTML {
		opts = append(opts, preserve.WithRawHTML())
	}
	return []preserve.Formatter{preserve.NewMarkdownFormatter(opts...)}
}

// loadPage resolves the page template and style, user assets first.
func loadPage(rc config.RenderConfig) (*pipeline.Page, string, error) {
	resolver, err := assets.NewAssetResolver(rc.Assets)
	if err != nil {
		return nil, "", err
	}

	css, err := resolver.LoadStyle(rc.Style)
	if err != nil {
		return nil, "", err
	}
	tmpl, err := resolver.LoadTemplate(assets.PageTemplateName)
	if err != nil {
		return nil, "", err
	}

	page, err := pipeline.NewPage(tmpl)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrPageTemplate, err)
	}
	return page, css, nil
}

// resolveWorkers maps 0 to GOMAXPROCS.
func resolveWorkers(n int) int {
	if n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

func renderStdin(ctx context.Context, job *renderJob, env *Environment) error {
	data, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrReadInput, stdinName, err)
	}

	out, err := job.render(ctx, string(data), ".", "stdin")
	if err != nil {
		return err
	}

	if job.outDir == "" {
		if _, err := io.WriteString(env.Stdout, out); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}

	if err := os.MkdirAll(job.outDir, dirPermissions); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateOutputDir, err)
	}
	path := filepath.Join(job.outDir, "stdin"+outputExt)
	// #nosec G306 -- rendered HTML is meant to be readable
	if err := os.WriteFile(path, []byte(out), filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// renderBatch renders files concurrently, at most workers at a time. Results
// keep the input order. A failing file does not stop the others.
func renderBatch(ctx context.Context, job *renderJob, files []string, workers int) []RenderResult {
	results := make([]RenderResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		g.Go(func() error {
			results[i] = renderFile(gctx, job, path)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func renderFile(ctx context.Context, job *renderJob, path string) RenderResult {
	start := job.now()
	result := RenderResult{InputPath: path}
	finish := func(err error) RenderResult {
		result.Err = err
		result.Duration = job.now().Sub(start)
		return result
	}

	if err := ctx.Err(); err != nil {
		return finish(err)
	}

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input path
	if err != nil {
		return finish(fmt.Errorf("%w: %w", ErrReadInput, err))
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	out, err := job.render(ctx, string(data), filepath.Dir(path), title)
	if err != nil {
		return finish(err)
	}

	if job.outDir == "" {
		result.HTML = out
		return finish(nil)
	}

	result.OutputPath = fileutil.OutputPath(path, job.outDir, outputExt)
	// #nosec G306 -- rendered HTML is meant to be readable
	if err := os.WriteFile(result.OutputPath, []byte(out), filePermissions); err != nil {
		return finish(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}
	return finish(nil)
}

// printResults writes rendered HTML (stdout mode) or a line per created file,
// and reports failures on stderr. It returns the number of failures.
func printResults(results []RenderResult, common commonFlags, env *Environment) int {
	var succeeded, failed int

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		succeeded++

		if r.OutputPath == "" {
			_, _ = io.WriteString(env.Stdout, r.HTML)
			if common.verbose {
				fmt.Fprintf(env.Stderr, "%s (%v)\n", r.InputPath, r.Duration.Round(time.Millisecond))
			}
			continue
		}

		if common.quiet {
			continue
		}
		if common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stderr, "%d succeeded, %d failed\n", succeeded, failed)
	}
	return failed
}

func firstError(results []RenderResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
