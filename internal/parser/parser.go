// Package parser opens documents of the supported formats and exposes
// their outlines.
package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/outline"
)

// ErrUnsupported is returned for file extensions without a parser.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser opens a document held in r.
type Parser interface {
	Open(r io.ReaderAt, size int64, filename string) (outline.Source, error)
}

// Options configure the parsers returned by ForFile.
type Options struct {
	// Password is tried when a PDF file is encrypted.
	Password string
}

// SupportedExtensions lists file extensions this tool can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{Password: opts.Password}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
}

// Kind names the parser that reads filename: its lowercased extension,
// with aliases folded (".markdown" is ".md", ".htm" is ".html").
func Kind(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".markdown":
		return ".md"
	case ".htm":
		return ".html"
	default:
		return ext
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// OpenFile opens the document at path. Closing the returned source closes
// the file.
func OpenFile(path string, opts Options) (outline.Source, error) {
	p, err := ForFile(path, opts)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	src, err := p.Open(f, info.Size(), filepath.Base(path))
	if err != nil {
		f.Close()
		return nil, err
	}
	return &fileSource{Source: src, f: f}, nil
}

// OpenBytes opens a document held in memory.
func OpenBytes(data []byte, filename string, opts Options) (outline.Source, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, err
	}
	return p.Open(bytes.NewReader(data), int64(len(data)), filename)
}

type fileSource struct {
	outline.Source
	f *os.File
}

func (s *fileSource) Close() error {
	err := s.Source.Close()
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// readAll reads the whole of r, for parsers that need a stream.
func readAll(r io.ReaderAt, size int64) ([]byte, error) {
	return io.ReadAll(io.NewSectionReader(r, 0, size))
}
