package export

import (
	"path/filepath"
	"strconv"
	"strings"
)

// NumberedFilename inserts "-n" for every number before the extension of
// path. With no numbers the path is returned unchanged.
//
//	NumberedFilename("out/notes.png", 2)    // out/notes-2.png
//	NumberedFilename("out/notes.png", 2, 3) // out/notes-2-3.png
func NumberedFilename(path string, numbers ...int) string {
	if len(numbers) == 0 {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)

	var b strings.Builder
	b.WriteString(stem)
	for _, n := range numbers {
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(n))
	}
	b.WriteString(ext)
	return b.String()
}

// UnitFilename returns the output file for a unit of a per-file export.
// A lone page outside progressive mode keeps the path as given; otherwise
// the 1-based page number, and in progressive mode the 1-based layer
// number, are appended.
func UnitFilename(path string, unit Unit, single bool) string {
	switch {
	case unit.Progressive:
		return NumberedFilename(path, unit.Page+1, unit.Layer+1)
	case single:
		return path
	default:
		return NumberedFilename(path, unit.Page+1)
	}
}
