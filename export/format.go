package export

import (
	"path/filepath"
	"strings"
)

// Format is the export output format.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// NormalizeFormat coerces format values into known aliases with defaults applied.
func NormalizeFormat(format Format) Format {
	normalized := strings.ToLower(strings.TrimSpace(string(format)))
	switch normalized {
	case "", "png", "image", "bitmap":
		return FormatPNG
	case "svg":
		return FormatSVG
	case "pdf":
		return FormatPDF
	default:
		return Format(normalized)
	}
}

// ImageFormatFor picks the image format for an output path. ".svg" selects
// SVG; every other extension is a bitmap.
func ImageFormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return FormatSVG
	}
	return FormatPNG
}
