// Package exportpdf provides the paginated PDF export backend.
//
// Every unit becomes a page of a single document written with fpdf. Layers
// map to optional content groups, the source outline becomes bookmarks and
// PDF backgrounds are embedded as vector templates through gofpdi.
package exportpdf
