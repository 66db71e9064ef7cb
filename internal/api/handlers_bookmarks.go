package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/bookmarks"
	"github.com/dgallion1/pdfmarks/internal/config"
	"github.com/dgallion1/pdfmarks/internal/dump"
	"github.com/dgallion1/pdfmarks/internal/outline"
	"github.com/dgallion1/pdfmarks/internal/parser"
	"github.com/dgallion1/pdfmarks/internal/render"
)

// WarningsHeader carries the number of diagnostics of a rendering.
const WarningsHeader = "X-Bookmark-Warnings"

// errTooLarge is returned by readUpload when a file exceeds the upload limit.
var errTooLarge = errors.New("file exceeds max size")

// handleBookmarks extracts and renders the bookmarks of one uploaded file.
func (s *Server) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format, opts, err := s.renderOptions(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusUnsupportedMediaType)
		return
	}

	data, err := s.readUpload(file)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	ext, err := s.orchestrator.Extractor().Extract(r.Context(), filename, data)
	if err != nil {
		jsonError(w, err.Error(), extractStatus(err))
		return
	}
	if ext.Result == nil {
		jsonError(w, "document has no outline", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := render.Render(&buf, ext.Result, format, opts); err != nil {
		s.log.Error("render failed", "filename", filename, "format", format, "error", err)
		jsonError(w, "render failed", http.StatusInternalServerError)
		return
	}
	writeRendering(w, filename, format, ext.Result, buf.Bytes())
}

// renderOptions reads the format, newline and ascii form values. Absent
// values fall back to the configured defaults.
func (s *Server) renderOptions(r *http.Request) (render.Format, dump.Options, error) {
	format, err := render.ParseFormat(r.FormValue("format"))
	if err != nil {
		return "", dump.Options{}, err
	}

	newline := s.cfg.DumpNewline
	if v := r.FormValue("newline"); v != "" {
		newline = strings.ToLower(v)
	}
	seq, err := config.NewlineSeq(newline)
	if err != nil {
		return "", dump.Options{}, err
	}

	ascii := s.cfg.DumpASCII
	if v := r.FormValue("ascii"); v != "" {
		ascii, err = strconv.ParseBool(v)
		if err != nil {
			return "", dump.Options{}, fmt.Errorf("invalid ascii value %q", v)
		}
	}
	return format, dump.Options{Newline: seq, ASCII: ascii}, nil
}

func (s *Server) readUpload(f multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w (%d bytes)", errTooLarge, s.cfg.MaxUploadBytes)
	}
	return data, nil
}

// extractStatus maps an extraction error to an HTTP status.
func extractStatus(err error) int {
	switch {
	case errors.Is(err, outline.ErrTooLarge), errors.Is(err, bookmarks.ErrUnreadable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, parser.ErrUnsupported):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

func writeRendering(w http.ResponseWriter, filename string, f render.Format, res *bookmarks.Result, body []byte) {
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set(WarningsHeader, strconv.Itoa(len(res.Diagnostics)))
	if f == render.FormatXLSX {
		name := strings.TrimSuffix(filename, filepath.Ext(filename)) + f.Extension()
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	}
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
