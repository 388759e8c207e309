// Package raster provides the PNG export backend.
//
// Each unit becomes its own PNG file. Paths and strokes are rasterized with
// rasterx, text is drawn with the Go fonts and images are resampled with
// x/image/draw. Embedded background pages use the preview rendering path.
//
// PDF file backgrounds are not rasterized. A PDFFilePage source reports
// document.ErrRenderUnsupported on this surface, so the page is exported
// without its PDF background and the run records a
// "cannot render the pdf page number" warning.
package raster
