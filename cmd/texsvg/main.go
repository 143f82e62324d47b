package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/wudi/texsvg"
	"github.com/wudi/texsvg/extensions"
	"github.com/wudi/texsvg/markdown"
	"github.com/wudi/texsvg/observability"
	"github.com/wudi/texsvg/scripting"
	"github.com/wudi/texsvg/streaming"
)

type options struct {
	inline     bool
	permissive bool
	packages   string
	maxWidth   float64
	mathML     bool
	markdown   bool
	batch      string
	script     string
	out        string
	verbose    bool
	source     string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "texsvg: %v\n", err)
		os.Exit(2)
	}
	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "texsvg: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: texsvg [flags] [latex]\n")
		flag.PrintDefaults()
	}
	flag.BoolVar(&opts.inline, "inline", false, "Render in inline mode instead of display mode")
	flag.BoolVar(&opts.permissive, "permissive", false, "Render undefined control sequences as placeholders")
	flag.StringVar(&opts.packages, "packages", "", "Comma-separated extension packages (default: all of "+strings.Join(extensions.Available(), ",")+")")
	flag.Float64Var(&opts.maxWidth, "max-width", 0, "Break lines wider than this many em")
	flag.BoolVar(&opts.mathML, "mathml", false, "Embed assistive MathML in the SVG metadata")
	flag.BoolVar(&opts.markdown, "markdown", false, "Treat input as Markdown and render its math spans")
	flag.StringVar(&opts.batch, "batch", "", "Render every line of `file` and print JSON lines")
	flag.StringVar(&opts.script, "script", "", "Run a JavaScript `file` with render/renderInline globals")
	flag.StringVar(&opts.out, "o", "", "Write output to `file` instead of stdout")
	flag.BoolVar(&opts.verbose, "v", false, "Log render stages to stderr")
	flag.Parse()

	if flag.NArg() > 1 {
		flag.Usage()
		return options{}, fmt.Errorf("expected at most one LaTeX argument")
	}
	if opts.batch != "" && opts.script != "" {
		return options{}, fmt.Errorf("-batch and -script are exclusive")
	}
	opts.source = flag.Arg(0)
	return opts, nil
}

func run(ctx context.Context, opts options) error {
	r, err := texsvg.New(rendererOptions(opts)...)
	if err != nil {
		return err
	}
	w := io.Writer(os.Stdout)
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch {
	case opts.batch != "":
		return runBatch(ctx, r, opts, w)
	case opts.script != "":
		return runScript(ctx, r, opts, w)
	}

	src := opts.source
	if flag.NArg() == 0 {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		src = string(b)
	}
	if opts.markdown {
		html, err := markdown.Convert(r, []byte(src))
		if err != nil {
			return err
		}
		_, err = w.Write(html)
		return err
	}
	svg, err := r.Convert(ctx, strings.TrimSpace(src), !opts.inline)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, svg)
	return err
}

func rendererOptions(opts options) []texsvg.Option {
	out := []texsvg.Option{
		texsvg.WithPermissive(opts.permissive),
		texsvg.WithMaxWidth(opts.maxWidth),
		texsvg.WithAssistiveMathML(opts.mathML),
		texsvg.WithTitle(true),
	}
	if opts.packages != "" {
		var names []string
		for _, n := range strings.Split(opts.packages, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		out = append(out, texsvg.WithPackages(names...))
	}
	if opts.verbose {
		log := observability.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		out = append(out, texsvg.WithLogger(log), texsvg.WithTracer(observability.NewLogTracer(log)))
	}
	if opts.batch != "" || opts.markdown {
		out = append(out, texsvg.WithCache(256))
	}
	return out
}

type batchLine struct {
	Index int    `json:"index"`
	LaTeX string `json:"latex"`
	SVG   string `json:"svg,omitempty"`
	Error string `json:"error,omitempty"`
}

func runBatch(ctx context.Context, r *texsvg.Renderer, opts options, w io.Writer) error {
	f, err := os.Open(opts.batch)
	if err != nil {
		return err
	}
	defer f.Close()

	var jobs []streaming.Job
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		jobs = append(jobs, streaming.Job{LaTeX: line, Display: !opts.inline})
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", opts.batch, err)
	}

	results, err := streaming.RenderAll(ctx, r, jobs, streaming.StreamConfig{BufferSize: 16})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	failed := 0
	for _, res := range results {
		line := batchLine{Index: res.Index, LaTeX: res.Job.LaTeX, SVG: res.SVG}
		if res.Err != nil {
			line.Error = res.Err.Error()
			failed++
		}
		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d formulas failed", failed, len(results))
	}
	return nil
}

func runScript(ctx context.Context, r *texsvg.Renderer, opts options, w io.Writer) error {
	src, err := os.ReadFile(opts.script)
	if err != nil {
		return err
	}
	engine := scripting.NewEngine()
	if err := engine.RegisterRenderer(r); err != nil {
		return err
	}
	val, err := engine.Execute(ctx, string(src))
	if err != nil {
		return fmt.Errorf("script %s: %w", opts.script, err)
	}
	if val == nil {
		return nil
	}
	_, err = fmt.Fprintln(w, val)
	return err
}
