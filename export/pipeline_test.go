package export

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-page-export/canvas"
	"github.com/goliatone/go-page-export/document"
	"github.com/google/go-cmp/cmp"
)

type stubSurface struct {
	*canvas.Recorder
	unit      Unit
	sources   []document.SourcePage
	renderErr error
}

func (s *stubSurface) RenderSource(src document.SourcePage) error {
	if s.renderErr != nil {
		return s.renderErr
	}
	s.sources = append(s.sources, src)
	return nil
}

type stubBackend struct {
	target    Target
	opened    bool
	begun     []Unit
	ended     []Unit
	surfaces  []*stubSurface
	failBegin int
	renderErr error
	closed    bool
	committed bool
	onBegin   func(unit Unit)
}

func newStubBackend() *stubBackend {
	return &stubBackend{failBegin: -1}
}

func (b *stubBackend) Open(ctx context.Context, target Target) error {
	_ = ctx
	b.opened = true
	b.target = target
	return nil
}

func (b *stubBackend) Begin(page *document.Page, unit Unit) (Surface, error) {
	b.begun = append(b.begun, unit)
	if b.onBegin != nil {
		b.onBegin(unit)
	}
	if unit.Index == b.failBegin {
		return nil, errors.New("surface allocation failed")
	}
	s := &stubSurface{Recorder: canvas.NewRecorder(page.Width, page.Height), unit: unit, renderErr: b.renderErr}
	b.surfaces = append(b.surfaces, s)
	return s, nil
}

func (b *stubBackend) End(surface Surface) error {
	b.ended = append(b.ended, surface.(*stubSurface).unit)
	return nil
}

func (b *stubBackend) Close(commit bool) error {
	b.closed = true
	b.committed = commit
	return nil
}

type recordingProgress struct {
	maximum []int
	current []int
}

func (p *recordingProgress) SetMaximumUnits(total int) { p.maximum = append(p.maximum, total) }
func (p *recordingProgress) SetCurrentUnit(index int)  { p.current = append(p.current, index) }

func namedPage(layers ...string) *document.Page {
	page := document.NewPage(100, 100)
	for _, name := range layers {
		page.Layers = append(page.Layers, document.NewLayer(name, &document.Text{Value: name, Size: 10}))
	}
	return page
}

func fivePageDoc() *document.Memory {
	doc := document.NewMemory()
	for i := 0; i < 5; i++ {
		doc.Pages = append(doc.Pages, namedPage("ink"))
	}
	return doc
}

func unitPages(units []Unit) []int {
	out := make([]int, len(units))
	for i, u := range units {
		out[i] = u.Page
	}
	return out
}

func TestPipeline_PageRangeScenario(t *testing.T) {
	backend := newStubBackend()
	progress := &recordingProgress{}

	pipeline := NewPipeline(fivePageDoc(), backend).
		SetPageRange(PageRange("2-4", 5)).
		SetProgress(progress)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}

	if diff := cmp.Diff([]int{1, 2, 3}, unitPages(backend.begun)); diff != "" {
		t.Fatalf("unexpected pages (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3}, progress.maximum); diff != "" {
		t.Fatalf("unexpected maximum (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, progress.current); diff != "" {
		t.Fatalf("unexpected progress (-want +got):\n%s", diff)
	}
	if pipeline.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", pipeline.State())
	}
	if pipeline.LastErrorMessage() != "" {
		t.Fatalf("expected no error, got %q", pipeline.LastErrorMessage())
	}
	if !backend.closed || !backend.committed {
		t.Fatalf("expected committed close")
	}
	if len(backend.ended) != 3 {
		t.Fatalf("expected every surface ended, got %d", len(backend.ended))
	}
}

func TestPipeline_DefaultsToWholeDocument(t *testing.T) {
	backend := newStubBackend()
	if err := NewPipeline(fivePageDoc(), backend).Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, unitPages(backend.begun)); diff != "" {
		t.Fatalf("unexpected pages (-want +got):\n%s", diff)
	}
	if backend.target.SinglePage {
		t.Fatalf("expected multi page target")
	}
}

func TestPipeline_OverlappingRangesRevisit(t *testing.T) {
	backend := newStubBackend()
	pipeline := NewPipeline(fivePageDoc(), backend).SetPageRange(PageRange("1-2,2", 5))
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff([]int{0, 1, 1}, unitPages(backend.begun)); diff != "" {
		t.Fatalf("unexpected pages (-want +got):\n%s", diff)
	}
	if pipeline.Units() != 3 {
		t.Fatalf("expected 3 units, got %d", pipeline.Units())
	}
}

func TestPipeline_SinglePageTarget(t *testing.T) {
	backend := newStubBackend()
	if err := NewPipeline(fivePageDoc(), backend).SetPageRange(PageRange("3", 5)).Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !backend.target.SinglePage {
		t.Fatalf("expected single page target")
	}
	if backend.target.Units != 1 {
		t.Fatalf("expected 1 unit, got %d", backend.target.Units)
	}
}

func TestPipeline_ProgressiveScenario(t *testing.T) {
	page := namedPage("L0", "L1", "L2")
	page.Layers[1].Visible = false
	doc := document.NewMemory(page)
	backend := newStubBackend()
	progress := &recordingProgress{}

	pipeline := NewPipeline(doc, backend).SetProgressive(true).SetProgress(progress)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}

	if len(backend.surfaces) != 3 {
		t.Fatalf("expected 3 units, got %d", len(backend.surfaces))
	}
	want := [][]string{{"L0"}, {"L0", "L1"}, {"L0", "L1", "L2"}}
	for i, surface := range backend.surfaces {
		if diff := cmp.Diff(want[i], surface.Texts()); diff != "" {
			t.Fatalf("unit %d visibility mismatch (-want +got):\n%s", i, diff)
		}
		if surface.unit.Layer != i || !surface.unit.Progressive {
			t.Fatalf("unexpected unit %+v", surface.unit)
		}
	}
	if diff := cmp.Diff([]int{3}, progress.maximum); diff != "" {
		t.Fatalf("unexpected maximum (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, progress.current); diff != "" {
		t.Fatalf("unexpected progress (-want +got):\n%s", diff)
	}

	got := []bool{page.Layers[0].Visible, page.Layers[1].Visible, page.Layers[2].Visible}
	if diff := cmp.Diff([]bool{true, false, true}, got); diff != "" {
		t.Fatalf("visibility not restored (-want +got):\n%s", diff)
	}
}

func TestPipeline_ProgressiveUnitCount(t *testing.T) {
	doc := document.NewMemory(namedPage("a", "b"), namedPage("a"), namedPage("a", "b", "c", "d"))
	backend := newStubBackend()
	progress := &recordingProgress{}

	pipeline := NewPipeline(doc, backend).
		SetPageRange(PageRange("1,3", 3)).
		SetProgressive(true).
		SetProgress(progress)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff([]int{6}, progress.maximum); diff != "" {
		t.Fatalf("unexpected maximum (-want +got):\n%s", diff)
	}
	if len(backend.begun) != 6 {
		t.Fatalf("expected 6 units, got %d", len(backend.begun))
	}
	if backend.target.SinglePage {
		t.Fatalf("progressive exports are never single page")
	}
}

func TestPipeline_FirstErrorWins(t *testing.T) {
	backend := newStubBackend()
	backend.failBegin = 1
	progress := &recordingProgress{}

	pipeline := NewPipeline(fivePageDoc(), backend).SetProgress(progress)
	err := pipeline.Export(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if KindFromError(err) != KindRender {
		t.Fatalf("expected render error, got %s", KindFromError(err))
	}
	if diff := cmp.Diff([]int{0, 1}, unitPages(backend.begun)); diff != "" {
		t.Fatalf("expected units after the failure to be skipped (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0}, progress.current); diff != "" {
		t.Fatalf("unexpected progress (-want +got):\n%s", diff)
	}
	if pipeline.State() != StateFailed {
		t.Fatalf("expected failed, got %s", pipeline.State())
	}
	if !strings.Contains(pipeline.LastErrorMessage(), "surface allocation failed") {
		t.Fatalf("unexpected last error %q", pipeline.LastErrorMessage())
	}
	if !backend.closed || backend.committed {
		t.Fatalf("expected discarded output")
	}
	if err := pipeline.Export(context.Background()); KindFromError(err) != KindValidation {
		t.Fatalf("expected a second run to be rejected, got %v", err)
	}
}

func TestPipeline_ProgressiveFailureRestoresVisibility(t *testing.T) {
	page := namedPage("a", "b", "c")
	page.Layers[2].Visible = false
	backend := newStubBackend()
	backend.failBegin = 1

	err := NewPipeline(document.NewMemory(page), backend).SetProgressive(true).Export(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	got := []bool{page.Layers[0].Visible, page.Layers[1].Visible, page.Layers[2].Visible}
	if diff := cmp.Diff([]bool{true, true, false}, got); diff != "" {
		t.Fatalf("visibility not restored (-want +got):\n%s", diff)
	}
}

func TestPipeline_MissingBackgroundIsNonFatal(t *testing.T) {
	page := namedPage("ink")
	page.Background = document.Background{Kind: document.BackgroundPDF, PDFPage: 7}
	backend := newStubBackend()

	pipeline := NewPipeline(document.NewMemory(page), backend)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if pipeline.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", pipeline.State())
	}
	if pipeline.LastErrorMessage() != "cannot find the pdf page number: 7" {
		t.Fatalf("unexpected warning %q", pipeline.LastErrorMessage())
	}
	if len(pipeline.Warnings()) != 1 || KindFromError(pipeline.Warnings()[0]) != KindBackground {
		t.Fatalf("expected one background warning, got %v", pipeline.Warnings())
	}
	if diff := cmp.Diff([]string{"ink"}, backend.surfaces[0].Texts()); diff != "" {
		t.Fatalf("expected content without background (-want +got):\n%s", diff)
	}
}

func TestPipeline_UnsupportedBackgroundKeepsBareMessage(t *testing.T) {
	page := namedPage("ink")
	page.Background = document.Background{Kind: document.BackgroundPDF, PDFPage: 0}
	doc := document.NewMemory(page)
	doc.Sources = []document.SourcePage{document.PDFFilePage{Path: "bg.pdf"}}
	backend := newStubBackend()
	backend.renderErr = document.ErrRenderUnsupported

	pipeline := NewPipeline(doc, backend)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if pipeline.LastErrorMessage() != "cannot render the pdf page number: 0" {
		t.Fatalf("unexpected warning %q", pipeline.LastErrorMessage())
	}
	warnings := pipeline.Warnings()
	if len(warnings) != 1 || !errors.Is(warnings[0], document.ErrRenderUnsupported) {
		t.Fatalf("expected warning wrapping the render error, got %v", warnings)
	}
}

func TestPipeline_BackgroundPolicy(t *testing.T) {
	newDoc := func() *document.Memory {
		page := namedPage("ink")
		page.Background = document.Background{Kind: document.BackgroundPDF, PDFPage: 0}
		doc := document.NewMemory(page)
		doc.Sources = []document.SourcePage{document.PDFFilePage{Path: "bg.pdf"}}
		return doc
	}

	backend := newStubBackend()
	if err := NewPipeline(newDoc(), backend).SetBackground(BackgroundNone).Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(backend.surfaces[0].sources) != 0 {
		t.Fatalf("expected no background for policy none")
	}

	backend = newStubBackend()
	if err := NewPipeline(newDoc(), backend).SetBackground(BackgroundUnruled).Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(backend.surfaces[0].sources) != 1 {
		t.Fatalf("expected background for policy unruled")
	}
}

func TestPipeline_RulingFollowsPolicy(t *testing.T) {
	cases := []struct {
		policy  BackgroundPolicy
		strokes bool
		fill    bool
	}{
		{BackgroundNone, false, false},
		{BackgroundUnruled, false, true},
		{BackgroundAll, true, true},
	}
	for _, tc := range cases {
		page := document.NewPage(100, 100)
		page.Background.Kind = document.BackgroundGraph
		backend := newStubBackend()
		if err := NewPipeline(document.NewMemory(page), backend).SetBackground(tc.policy).Export(context.Background()); err != nil {
			t.Fatalf("%s: export: %v", tc.policy, err)
		}
		rec := backend.surfaces[0]
		if (rec.Count("stroke") > 0) != tc.strokes {
			t.Fatalf("%s: expected ruling %v, got %d strokes", tc.policy, tc.strokes, rec.Count("stroke"))
		}
		if (rec.Count("rect") > 0) != tc.fill {
			t.Fatalf("%s: expected fill %v", tc.policy, tc.fill)
		}
	}
}

func TestPipeline_UnsupportedSourceRenderIsNonFatal(t *testing.T) {
	page := namedPage("ink")
	page.Background = document.Background{Kind: document.BackgroundPDF, PDFPage: 0}
	doc := document.NewMemory(page)
	doc.Sources = []document.SourcePage{document.PDFFilePage{Path: "bg.pdf"}}

	backend := newStubBackend()
	backend.renderErr = document.ErrRenderUnsupported
	pipeline := NewPipeline(doc, backend)
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if pipeline.LastErrorMessage() == "" {
		t.Fatalf("expected warning")
	}

	backend = newStubBackend()
	backend.renderErr = errors.New("corrupt stream")
	pipeline = NewPipeline(doc, backend)
	if err := pipeline.Export(context.Background()); KindFromError(err) != KindRender {
		t.Fatalf("expected render failure, got %v", err)
	}
}

func TestPipeline_LayerRange(t *testing.T) {
	doc := document.NewMemory(namedPage("a", "b", "c"), namedPage("a"))
	backend := newStubBackend()

	pipeline := NewPipeline(doc, backend).SetLayerRange(LayerRange("2-"))
	if err := pipeline.Export(context.Background()); err != nil {
		t.Fatalf("export: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, backend.surfaces[0].Texts()); diff != "" {
		t.Fatalf("page 1 mismatch (-want +got):\n%s", diff)
	}
	if len(backend.surfaces[1].Texts()) != 0 {
		t.Fatalf("expected no layers on page 2, got %v", backend.surfaces[1].Texts())
	}
}

func TestPipeline_CancelBeforeUnit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	backend := newStubBackend()
	backend.onBegin = func(unit Unit) {
		if unit.Index == 1 {
			cancel()
		}
	}

	pipeline := NewPipeline(fivePageDoc(), backend)
	err := pipeline.Export(ctx)
	if KindFromError(err) != KindCanceled {
		t.Fatalf("expected canceled, got %v", err)
	}
	if len(backend.begun) != 2 {
		t.Fatalf("expected the in-flight unit to finish and no more to start, got %d", len(backend.begun))
	}
	if pipeline.State() != StateFailed {
		t.Fatalf("expected failed, got %s", pipeline.State())
	}
}

func TestPipeline_Validation(t *testing.T) {
	if err := NewPipeline(nil, newStubBackend()).Export(context.Background()); KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error for missing document, got %v", err)
	}
	if err := NewPipeline(fivePageDoc(), nil).Export(context.Background()); KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error for missing backend, got %v", err)
	}
	backend := newStubBackend()
	if err := NewPipeline(document.NewMemory(), backend).Export(context.Background()); KindFromError(err) != KindValidation {
		t.Fatalf("expected validation error for empty document, got %v", err)
	}
	if backend.opened {
		t.Fatalf("expected backend untouched")
	}
}
