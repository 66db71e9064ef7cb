package bookmarks

import (
	"fmt"

	"github.com/dgallion1/pdfmarks/internal/outline"
)

// DiagnosticKind classifies a per-bookmark problem.
type DiagnosticKind string

const (
	// KindUnresolvedPage means the destination names a page that is not
	// part of the page tree.
	KindUnresolvedPage DiagnosticKind = "unresolved_page"

	// KindUnsupportedDestination means the destination is a view-state
	// kind whose page is not extracted.
	KindUnsupportedDestination DiagnosticKind = "unsupported_destination"

	// KindDepthLimit means the children of a bookmark were skipped because
	// the outline is nested too deeply.
	KindDepthLimit DiagnosticKind = "depth_limit"
)

// Diagnostic is a non-fatal problem with a single bookmark.
type Diagnostic struct {
	Kind   DiagnosticKind `json:"kind"`
	Title  string         `json:"title"`
	Level  int            `json:"level"`
	Detail string         `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %q (level %d): %s", d.Kind, d.Title, d.Level, d.Detail)
}

// EffectiveDestination returns the destination n navigates to. A go-to
// action wins over a direct destination. The result is nil if n has no
// destination.
func EffectiveDestination(n outline.Node) outline.Destination {
	if a, ok := n.Action().(outline.GoToAction); ok && a.Dest != nil {
		return a.Dest
	}
	return n.Destination()
}

// Resolve builds the record for n at the given level. The returned
// diagnostic is nil unless the page could not be determined from a
// destination that is present.
func Resolve(n outline.Node, level int) (Record, *Diagnostic) {
	rec := Record{
		Title: n.Title(),
		Level: level,
	}

	dest := EffectiveDestination(n)
	if dest == nil {
		return rec, nil
	}

	diag := func(kind DiagnosticKind, detail string) *Diagnostic {
		return &Diagnostic{Kind: kind, Title: rec.Title, Level: level, Detail: detail}
	}

	switch d := dest.(type) {
	case outline.PageDestination:
		if d.Index < 0 {
			return rec, diag(KindUnresolvedPage, "cannot resolve "+d.String())
		}
		rec.PageNumber = d.Index + 1
	case outline.FitDestination, outline.XYZDestination:
		return rec, diag(KindUnsupportedDestination, "page of "+dest.String()+" not extracted")
	default:
		return rec, diag(KindUnsupportedDestination, fmt.Sprintf("unknown destination %T", dest))
	}
	return rec, nil
}
