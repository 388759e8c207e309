package xopp

import (
	"fmt"
	"os"

	"github.com/phpdave11/gofpdi"
)

// PDFSizer reads media boxes with gofpdi.
type PDFSizer struct{}

func (PDFSizer) PageSizes(path string) (sizes []Size, err error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	// gofpdi reports malformed files by panicking.
	defer func() {
		if r := recover(); r != nil {
			sizes, err = nil, fmt.Errorf("read %s: %v", path, r)
		}
	}()

	importer := gofpdi.NewImporter()
	importer.SetSourceFile(path)
	count := importer.GetNumPages()
	boxes := importer.GetPageSizes()

	sizes = make([]Size, 0, count)
	for page := 1; page <= count; page++ {
		box := boxes[page]["/MediaBox"]
		sizes = append(sizes, Size{Width: box["w"], Height: box["h"]})
	}
	return sizes, nil
}

var _ PageSizer = PDFSizer{}
