// Command pdfmarks prints the bookmarks of a document in pdftk dump_data
// form or one of the other supported renderings.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/dump"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/dgallion1/pdfmarks/internal/parser"
	"github.com/dgallion1/pdfmarks/internal/render"
)

type options struct {
	path     string
	output   string
	format   render.Format
	crlf     bool
	ascii    bool
	maxDepth int
	password string
	quiet    bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfmarks: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pdfmarks: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfmarks", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfmarks [flags] <file>\n")
		fs.PrintDefaults()
	}
	format := fs.String("format", "text", "Output format: text, json, markdown, html or xlsx")
	fs.StringVar(&opts.output, "o", "", "Write output to `path` instead of stdout")
	fs.BoolVar(&opts.crlf, "crlf", false, "End dump lines with CRLF")
	fs.BoolVar(&opts.ascii, "ascii", false, "Write non-ASCII title characters as XML character references")
	fs.IntVar(&opts.maxDepth, "max-depth", outline.DefaultMaxDepth, "Maximum outline nesting depth")
	fs.StringVar(&opts.password, "password", "", "Password to open encrypted PDFs")
	fs.BoolVar(&opts.quiet, "q", false, "Only log errors")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, errors.New("missing document path")
	}
	opts.path = fs.Arg(0)

	f, err := render.ParseFormat(*format)
	if err != nil {
		return options{}, err
	}
	opts.format = f
	return opts, nil
}

func run(opts options, stdout, stderr io.Writer) error {
	level := slog.LevelInfo
	if opts.quiet {
		level = slog.LevelError
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	res, err := bookmarks.ExtractSource(func() (outline.Source, error) {
		return parser.OpenFile(opts.path, parser.Options{Password: opts.password})
	}, bookmarks.Options{
		MaxDepth: opts.maxDepth,
		Logger:   log.With("file", opts.path),
	})
	if err != nil {
		return err
	}
	if res == nil {
		// Printed even with -q: an empty outline gives empty output too.
		fmt.Fprintf(stderr, "pdfmarks: %s: no bookmarks\n", opts.path)
		return nil
	}

	dumpOpts := dump.Options{Newline: "\n", ASCII: opts.ascii}
	if opts.crlf {
		dumpOpts.Newline = "\r\n"
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, res, opts.format, dumpOpts); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if opts.output == "" {
		_, err = stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info("wrote bookmarks",
		"output", opts.output,
		"bookmarks", len(res.Records),
		"warnings", len(res.Diagnostics),
	)
	return nil
}
