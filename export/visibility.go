package export

import "github.com/goliatone/go-page-export/document"

// VisibilityScope holds the layer visibility of a page captured by
// HideLayers. Callers defer Restore so the flags are put back on every exit
// path.
type VisibilityScope struct {
	page  *document.Page
	saved map[*document.Layer]bool
}

// HideLayers snapshots the visibility of every layer on the page and hides
// them all.
func HideLayers(page *document.Page) *VisibilityScope {
	scope := &VisibilityScope{page: page, saved: map[*document.Layer]bool{}}
	if page == nil {
		return scope
	}
	for _, layer := range page.Layers {
		if layer == nil {
			continue
		}
		scope.saved[layer] = layer.Visible
		layer.Visible = false
	}
	return scope
}

// Reveal makes the layer at index visible. Out of range indices are ignored.
func (s *VisibilityScope) Reveal(index int) {
	if s == nil || s.page == nil || index < 0 || index >= len(s.page.Layers) {
		return
	}
	if layer := s.page.Layers[index]; layer != nil {
		layer.Visible = true
	}
}

// Restore writes the captured visibility back. It is safe to call more than
// once.
func (s *VisibilityScope) Restore() {
	if s == nil || s.saved == nil {
		return
	}
	for layer, visible := range s.saved {
		layer.Visible = visible
	}
	s.saved = nil
}
