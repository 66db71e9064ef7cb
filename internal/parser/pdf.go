package parser

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/dgallion1/pdfmarks/internal/outline"
	pdflib "github.com/ledongthuc/pdf"
)

const (
	// nameTreeBudget bounds the nodes visited per named destination lookup.
	nameTreeBudget = 4096

	// pageTreeBudget bounds the page tree walk that numbers the pages.
	pageTreeBudget = 1 << 20
)

// ErrMalformed is returned when a PDF cannot be read at all.
var ErrMalformed = errors.New("malformed pdf")

// PDFParser reads the document outline (bookmarks) of a PDF file.
type PDFParser struct {
	// Password is offered once if the file is encrypted.
	Password string
}

func (p *PDFParser) Open(r io.ReaderAt, size int64, filename string) (src outline.Source, err error) {
	// The PDF reader panics on some malformed objects.
	defer func() {
		if rec := recover(); rec != nil {
			src, err = nil, fmt.Errorf("%w: %s: %v", ErrMalformed, filename, rec)
		}
	}()

	tried := false
	reader, err := pdflib.NewReaderEncrypted(r, size, func() string {
		if tried {
			return ""
		}
		tried = true
		return p.Password
	})
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", filename, err)
	}
	return &pdfDocument{r: reader}, nil
}

// pdfDocument exposes the /Outlines tree of a PDF.
//
// The PDF reader does not expose object numbers, but it prints indirect
// references inside arrays as "id gen R". Page identity is recovered from
// that textual form: the /Kids arrays of the page tree give each page its
// reference, and the first element of an explicit destination names one.
type pdfDocument struct {
	r     *pdflib.Reader
	pages map[string]int // "id gen" -> zero-based page index
}

func (d *pdfDocument) OutlineRoot() (outline.Container, error) {
	root := d.r.Trailer().Key("Root")
	if root.Kind() != pdflib.Dict {
		return nil, fmt.Errorf("%w: document catalog missing", ErrMalformed)
	}
	outlines := root.Key("Outlines")
	switch outlines.Kind() {
	case pdflib.Null:
		return nil, nil
	case pdflib.Dict:
		return pdfItem{doc: d, v: outlines}, nil
	default:
		return nil, fmt.Errorf("%w: /Outlines is not a dictionary", ErrMalformed)
	}
}

// Title is the /Title entry of the document information dictionary.
func (d *pdfDocument) Title() string {
	return d.r.Trailer().Key("Info").Key("Title").Text()
}

func (d *pdfDocument) Close() error { return nil }

// pdfItem is an outline item dictionary, or the outline root itself.
type pdfItem struct {
	doc *pdfDocument
	v   pdflib.Value
}

func (it pdfItem) link(key string) outline.Node {
	next := it.v.Key(key)
	if next.Kind() != pdflib.Dict {
		return nil
	}
	return pdfItem{doc: it.doc, v: next}
}

func (it pdfItem) FirstChild() outline.Node { return it.link("First") }

func (it pdfItem) NextSibling() outline.Node { return it.link("Next") }

func (it pdfItem) Title() string { return it.v.Key("Title").Text() }

func (it pdfItem) Action() outline.Action {
	a := it.v.Key("A")
	if a.Kind() != pdflib.Dict {
		return nil
	}
	if s := a.Key("S").Name(); s != "GoTo" {
		return outline.OtherAction{Type: s}
	}
	return outline.GoToAction{Dest: it.doc.destination(a.Key("D"))}
}

func (it pdfItem) Destination() outline.Destination {
	return it.doc.destination(it.v.Key("Dest"))
}

func (d *pdfDocument) destination(v pdflib.Value) outline.Destination {
	switch v.Kind() {
	case pdflib.Null:
		return nil
	case pdflib.Array:
		return d.explicit(v)
	case pdflib.Name:
		return d.named(v.Name())
	case pdflib.String:
		return d.named(v.RawString())
	default:
		return outline.PageDestination{Index: outline.Unresolved, Target: v.String()}
	}
}

// named looks name up in the catalog /Dests dictionary and then in the
// /Dests name tree.
func (d *pdfDocument) named(name string) outline.Destination {
	root := d.r.Trailer().Key("Root")
	if v := root.Key("Dests").Key(name); v.Kind() != pdflib.Null {
		return d.namedValue(name, v)
	}
	if v, ok := lookupNameTree(root.Key("Names").Key("Dests"), name); ok {
		return d.namedValue(name, v)
	}
	return outline.PageDestination{
		Index:  outline.Unresolved,
		Target: fmt.Sprintf("named destination %q", name),
	}
}

// namedValue resolves the value a name maps to: an explicit destination
// array, or a dictionary holding one under /D.
func (d *pdfDocument) namedValue(name string, v pdflib.Value) outline.Destination {
	if v.Kind() == pdflib.Dict {
		v = v.Key("D")
	}
	if v.Kind() != pdflib.Array {
		return outline.PageDestination{
			Index:  outline.Unresolved,
			Target: fmt.Sprintf("named destination %q", name),
		}
	}
	return d.explicit(v)
}

// lookupNameTree searches a name tree without recursion, pruning subtrees
// whose /Limits exclude name.
func lookupNameTree(node pdflib.Value, name string) (pdflib.Value, bool) {
	if node.Kind() != pdflib.Dict {
		return pdflib.Value{}, false
	}
	stack := []pdflib.Value{node}
	for visited := 0; len(stack) > 0 && visited < nameTreeBudget; visited++ {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if lim := n.Key("Limits"); lim.Kind() == pdflib.Array && lim.Len() == 2 {
			if name < lim.Index(0).RawString() || name > lim.Index(1).RawString() {
				continue
			}
		}
		if names := n.Key("Names"); names.Kind() == pdflib.Array {
			for i := 0; i+1 < names.Len(); i += 2 {
				if names.Index(i).RawString() == name {
					return names.Index(i + 1), true
				}
			}
		}
		kids := n.Key("Kids")
		for i := kids.Len() - 1; i >= 0; i-- {
			if kid := kids.Index(i); kid.Kind() == pdflib.Dict {
				stack = append(stack, kid)
			}
		}
	}
	return pdflib.Value{}, false
}

// explicit classifies an explicit destination array by its view.
func (d *pdfDocument) explicit(arr pdflib.Value) outline.Destination {
	target := arr.String()
	if arr.Len() == 0 {
		return outline.PageDestination{Index: outline.Unresolved, Target: target}
	}
	switch arr.Index(1).Name() {
	case "XYZ":
		return outline.XYZDestination{Target: target}
	case "Fit", "FitB":
		return outline.FitDestination{Target: target}
	default:
		return outline.PageDestination{Index: d.pageIndex(arr), Target: target}
	}
}

var (
	leadingRef = regexp.MustCompile(`^\[(\d+) (\d+) R[\] ]`)
	anyRef     = regexp.MustCompile(`(\d+) (\d+) R`)
)

// pageIndex finds the zero-based index of the page an explicit destination
// points at. An integer in place of a page reference is taken as an index.
func (d *pdfDocument) pageIndex(arr pdflib.Value) int {
	if first := arr.Index(0); first.Kind() == pdflib.Integer {
		if n := first.Int64(); n >= 0 && n < int64(d.r.NumPage()) {
			return int(n)
		}
		return outline.Unresolved
	}
	m := leadingRef.FindStringSubmatch(arr.String())
	if m == nil {
		return outline.Unresolved
	}
	if d.pages == nil {
		d.pages = d.numberPages()
	}
	if i, ok := d.pages[m[1]+" "+m[2]]; ok {
		return i
	}
	return outline.Unresolved
}

// numberPages walks the page tree in document order and maps the
// reference of every leaf page to its index.
func (d *pdfDocument) numberPages() map[string]int {
	pages := make(map[string]int)
	stack := []pdflib.Value{d.r.Trailer().Key("Root").Key("Pages")}
	refs := [][]string{nil}
	next := 0

	for visited := 0; len(stack) > 0 && visited < pageTreeBudget; visited++ {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ref := refs[len(refs)-1]
		refs = refs[:len(refs)-1]

		if n.Kind() != pdflib.Dict {
			continue
		}
		kids := n.Key("Kids")
		if n.Key("Type").Name() == "Page" || kids.Kind() != pdflib.Array {
			if ref != nil {
				pages[strings.Join(ref, " ")] = next
			}
			next++
			continue
		}

		kidRefs := anyRef.FindAllStringSubmatch(kids.String(), -1)
		for i := kids.Len() - 1; i >= 0; i-- {
			stack = append(stack, kids.Index(i))
			if len(kidRefs) == kids.Len() {
				refs = append(refs, kidRefs[i][1:3])
			} else {
				refs = append(refs, nil)
			}
		}
	}
	return pages
}
