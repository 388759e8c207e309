package canvas

import "testing"

func TestRecorder_TracksLayers(t *testing.T) {
	rec := NewRecorder(100, 50)
	rec.BeginLayer("ink")
	_ = rec.StrokePath([]Point{{0, 0}, {10, 10}}, 1, Black)
	rec.EndLayer()
	_ = rec.FillRect(Rect{W: 100, H: 50}, White)

	if rec.Count("stroke") != 1 {
		t.Fatalf("expected one stroke, got %d", rec.Count("stroke"))
	}
	if rec.Ops[1].Layer != "ink" {
		t.Fatalf("expected stroke in ink layer, got %q", rec.Ops[1].Layer)
	}
	if rec.Ops[2].Layer != "" {
		t.Fatalf("expected rect outside layers, got %q", rec.Ops[2].Layer)
	}
	w, h := rec.Size()
	if w != 100 || h != 50 {
		t.Fatalf("unexpected size %vx%v", w, h)
	}
}

func TestRect_Empty(t *testing.T) {
	if !(Rect{W: 0, H: 10}).Empty() {
		t.Fatalf("expected zero width rect to be empty")
	}
	if (Rect{W: 1, H: 1}).Empty() {
		t.Fatalf("expected unit rect to be non empty")
	}
}
