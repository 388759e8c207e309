package export

import "math"

const (
	// DefaultDPI is the raster resolution used when no quality is set.
	DefaultDPI = 300
	// DPINormalization is the number of page units per inch.
	DPINormalization = 72.0
)

// QualityCriterion selects which raster quality parameter governs output size.
type QualityCriterion int

const (
	QualityDPI QualityCriterion = iota
	QualityWidth
	QualityHeight
)

// Quality sizes raster output.
type Quality struct {
	Criterion QualityCriterion
	Value     int
}

// DefaultQuality renders at DefaultDPI.
func DefaultQuality() Quality {
	return Quality{Criterion: QualityDPI, Value: DefaultDPI}
}

// QualityFromParams picks the governing parameter with priority
// DPI > width > height. Non-positive values are ignored.
func QualityFromParams(dpi, width, height int) Quality {
	switch {
	case dpi > 0:
		return Quality{Criterion: QualityDPI, Value: dpi}
	case width > 0:
		return Quality{Criterion: QualityWidth, Value: width}
	case height > 0:
		return Quality{Criterion: QualityHeight, Value: height}
	}
	return DefaultQuality()
}

// Zoom returns the device pixels per page unit for a page. Width and height
// criteria yield a per-page zoom when page sizes differ.
func (q Quality) Zoom(pageWidth, pageHeight float64) float64 {
	if q.Value <= 0 {
		q = DefaultQuality()
	}
	switch q.Criterion {
	case QualityWidth:
		if pageWidth > 0 {
			return float64(q.Value) / pageWidth
		}
	case QualityHeight:
		if pageHeight > 0 {
			return float64(q.Value) / pageHeight
		}
	}
	if q.Criterion == QualityDPI {
		return float64(q.Value) / DPINormalization
	}
	return float64(DefaultDPI) / DPINormalization
}

// PixelSize returns the raster dimensions for a page.
func (q Quality) PixelSize(pageWidth, pageHeight float64) (int, int) {
	zoom := q.Zoom(pageWidth, pageHeight)
	w := int(math.Round(pageWidth * zoom))
	h := int(math.Round(pageHeight * zoom))
	switch {
	case q.Criterion == QualityWidth && q.Value > 0:
		w = q.Value
	case q.Criterion == QualityHeight && q.Value > 0:
		h = q.Value
	}
	return max(w, 1), max(h, 1)
}
