// Package document holds the in-memory page model consumed by the exporter.
//
// Page and source page numbers are 0-based throughout. Only layer visibility
// is mutated by the export pipeline; everything else is read-only for the
// duration of an export.
package document

import (
	"errors"
	"fmt"
	"image/color"
)

// BackgroundKind identifies how a page background is produced.
type BackgroundKind int

const (
	BackgroundPlain BackgroundKind = iota
	BackgroundRuled
	BackgroundGraph
	BackgroundDotted
	BackgroundPDF
)

func (k BackgroundKind) String() string {
	switch k {
	case BackgroundRuled:
		return "ruled"
	case BackgroundGraph:
		return "graph"
	case BackgroundDotted:
		return "dotted"
	case BackgroundPDF:
		return "pdf"
	default:
		return "plain"
	}
}

// Background describes a page background.
type Background struct {
	Kind  BackgroundKind
	Color color.NRGBA
	// PDFPage is the source page number for BackgroundPDF.
	PDFPage int
}

// IsPDF reports whether the background is an embedded source page.
func (b Background) IsPDF() bool {
	return b.Kind == BackgroundPDF
}

// Ruled reports whether the background carries ruling or grid decoration.
func (b Background) Ruled() bool {
	switch b.Kind {
	case BackgroundRuled, BackgroundGraph, BackgroundDotted:
		return true
	}
	return false
}

// Page is an ordered stack of layers over a background.
type Page struct {
	Width      float64
	Height     float64
	Background Background
	Layers     []*Layer
}

// NewPage creates a page with a plain white background.
func NewPage(width, height float64, layers ...*Layer) *Page {
	return &Page{
		Width:      width,
		Height:     height,
		Background: Background{Kind: BackgroundPlain, Color: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		Layers:     layers,
	}
}

// Layer is a named group of elements with a visibility flag.
type Layer struct {
	Name     string
	Visible  bool
	Elements []Element
}

// NewLayer creates a visible layer.
func NewLayer(name string, elements ...Element) *Layer {
	return &Layer{Name: name, Visible: true, Elements: elements}
}

// OutlineEntry is one table of contents entry.
type OutlineEntry struct {
	Title string
	Level int
	// SourcePage is the 0-based source page the entry points at.
	SourcePage int
}

// ErrPageOutOfRange is returned for page lookups beyond the page count.
var ErrPageOutOfRange = errors.New("page index out of range")

// Document is the read side of a document as seen by the exporter.
type Document interface {
	PageCount() int
	Page(index int) (*Page, error)
	// BackgroundPage resolves an embedded background page by source page number.
	BackgroundPage(number int) (SourcePage, bool)
	Outline() []OutlineEntry
}

// Memory is an in-memory Document.
type Memory struct {
	Title   string
	Pages   []*Page
	Sources []SourcePage
	Entries []OutlineEntry
}

// NewMemory creates an in-memory document from pages.
func NewMemory(pages ...*Page) *Memory {
	return &Memory{Pages: pages}
}

func (d *Memory) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

func (d *Memory) Page(index int) (*Page, error) {
	if d == nil || index < 0 || index >= len(d.Pages) {
		return nil, fmt.Errorf("%w: %d", ErrPageOutOfRange, index)
	}
	return d.Pages[index], nil
}

func (d *Memory) BackgroundPage(number int) (SourcePage, bool) {
	if d == nil || number < 0 || number >= len(d.Sources) {
		return nil, false
	}
	src := d.Sources[number]
	return src, src != nil
}

func (d *Memory) Outline() []OutlineEntry {
	if d == nil {
		return nil
	}
	return d.Entries
}

var _ Document = (*Memory)(nil)
